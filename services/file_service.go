package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mybox/config"
	"mybox/logger"
	"mybox/models"
	"mybox/repositories"
	"mybox/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadInput struct {
	Name        string
	Description string
	MimeType    string
	FolderID    *uint
	Content     io.Reader
}

type FileService interface {
	Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error)
	RenameFile(ctx context.Context, userID, fileID uint, newBaseName, description string) (models.File, error)
	MoveFile(ctx context.Context, userID, fileID uint, folderID *uint) (models.File, error)
	DeleteFile(ctx context.Context, userID, fileID uint) error
	GetFile(ctx context.Context, userID, fileID uint) (models.File, error)
	GetFileBySlug(ctx context.Context, userID uint, slug string) (models.File, error)
	ListFiles(ctx context.Context, userID uint, folderID *uint) ([]models.File, error)
	ToggleFavorite(ctx context.Context, userID, fileID uint) (bool, error)
	SetDownloadPolicy(ctx context.Context, userID, fileID uint, downloadLimit *uint, expiresAt *time.Time) error
	Download(ctx context.Context, userID, fileID uint) (models.File, string, error)
	ThumbnailPath(ctx context.Context, userID, fileID uint) (string, error)
}

type fileService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	shares    repositories.ShareRepository
	sizes     repositories.SizeCache
	walker    folderWalker
	now       func() time.Time
}

func NewFileService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
	sizes repositories.SizeCache,
) FileService {
	return &fileService{
		txManager: txManager,
		folders:   folders,
		files:     files,
		shares:    shares,
		sizes:     sizes,
		walker:    folderWalker{folders: folders},
		now:       time.Now,
	}
}

// Upload writes the content to disk first and commits metadata second; a
// metadata failure removes the orphaned content. The stored path derives
// from a fresh UUID, never from the display name.
func (s *fileService) Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error) {
	if err := validateFileName(in.Name); err != nil {
		return models.File{}, err
	}
	if err := validateExtension(in.Name); err != nil {
		return models.File{}, err
	}

	if in.FolderID != nil {
		if _, err := s.folders.GetByIDAndUser(ctx, nil, *in.FolderID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.File{}, newNotFoundError("target folder not found")
			}
			return models.File{}, newInternalError("failed to load target folder", err)
		}
	}

	count, err := s.files.CountByFolderAndName(ctx, nil, userID, in.FolderID, in.Name, 0)
	if err != nil {
		return models.File{}, newInternalError("failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.File{}, newConflictError("a file with this name already exists here")
	}

	fileUUID := uuid.NewString()
	relPath := storageRelPath(userID, fileUUID)
	absPath := filepath.Join(config.AppConfig.Storage.BasePath, relPath)

	size, err := s.writeContent(absPath, in.Content)
	if err != nil {
		return models.File{}, err
	}

	file := models.File{
		Name:        in.Name,
		Description: in.Description,
		Slug:        utils.FileSlug(in.Name, s.now()),
		FileUUID:    fileUUID,
		StoragePath: relPath,
		FileSize:    size,
		MimeType:    in.MimeType,
		IsImage:     utils.IsImageFile(in.Name),
		FolderID:    in.FolderID,
		UserID:      userID,
		ShareUUID:   uuid.NewString(),
	}

	if file.IsImage {
		thumbRel := thumbnailRelPath(userID, fileUUID)
		thumbAbs := filepath.Join(config.AppConfig.Storage.BasePath, thumbRel)
		if err := utils.GenerateThumbnail(absPath, thumbAbs, config.AppConfig.Storage.ThumbnailWidth, config.AppConfig.Storage.ThumbnailHeight); err != nil {
			logger.Warnf("failed to generate thumbnail for %s: %v", in.Name, err)
		} else {
			file.ThumbnailPath = thumbRel
		}
	}

	if err := s.createWithSlugRetry(ctx, &file); err != nil {
		os.Remove(absPath)
		if file.ThumbnailPath != "" {
			os.Remove(filepath.Join(config.AppConfig.Storage.BasePath, file.ThumbnailPath))
		}
		return models.File{}, err
	}

	s.invalidateSizes(ctx, userID, in.FolderID)
	return file, nil
}

func (s *fileService) createWithSlugRetry(ctx context.Context, file *models.File) error {
	err := s.files.Create(ctx, nil, file)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return newInternalError("failed to save file metadata", err)
	}

	file.Slug = utils.FileSlug(file.Name, s.now())
	if err := s.files.Create(ctx, nil, file); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newConflictError("slug conflict, please retry")
		}
		return newInternalError("failed to save file metadata", err)
	}
	return nil
}

// writeContent streams the upload to disk, enforcing the configured byte
// ceiling. Reading one byte past the ceiling is how the overflow is
// detected without buffering the whole body.
func (s *fileService) writeContent(absPath string, content io.Reader) (int64, error) {
	maxSize := config.AppConfig.Storage.MaxFileSize
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return 0, newStorageError("failed to prepare storage directory", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return 0, newStorageError("failed to create content file", err)
	}

	size, err := io.Copy(dst, io.LimitReader(content, maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(absPath)
		return 0, newStorageError("failed to write file content", err)
	}
	if size > maxSize {
		os.Remove(absPath)
		return 0, newLimitError(fmt.Sprintf("file exceeds the %s limit", utils.HumanSize(maxSize)), nil)
	}
	return size, nil
}

// RenameFile keeps the original extension; only the base name changes.
// The slug is regenerated only when the base name actually changed.
func (s *fileService) RenameFile(ctx context.Context, userID, fileID uint, newBaseName, description string) (models.File, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newNotFoundError("file not found")
		}
		return models.File{}, newInternalError("failed to load file", err)
	}

	newName := newBaseName
	if ext := file.Extension(); ext != "" {
		newName = newBaseName + "." + ext
	}
	if err := validateFileName(newName); err != nil {
		return models.File{}, err
	}

	count, err := s.files.CountByFolderAndName(ctx, nil, userID, file.FolderID, newName, file.ID)
	if err != nil {
		return models.File{}, newInternalError("failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.File{}, newConflictError("a file with this name already exists here")
	}

	updates := map[string]interface{}{"name": newName, "description": description}
	if newBaseName != file.BaseName() {
		updates["slug"] = utils.FileSlug(newName, s.now())
	}
	if err := s.files.UpdateByID(ctx, nil, file.ID, updates); err != nil {
		return models.File{}, newInternalError("failed to rename file", err)
	}

	file.Name = newName
	file.Description = description
	if slug, ok := updates["slug"].(string); ok {
		file.Slug = slug
	}
	return file, nil
}

func (s *fileService) MoveFile(ctx context.Context, userID, fileID uint, folderID *uint) (models.File, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newNotFoundError("file not found")
		}
		return models.File{}, newInternalError("failed to load file", err)
	}

	if folderID != nil {
		if _, err := s.folders.GetByIDAndUser(ctx, nil, *folderID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.File{}, newNotFoundError("target folder not found")
			}
			return models.File{}, newInternalError("failed to load target folder", err)
		}
	}

	count, err := s.files.CountByFolderAndName(ctx, nil, userID, folderID, file.Name, file.ID)
	if err != nil {
		return models.File{}, newInternalError("failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.File{}, newConflictError("a file with this name already exists in the target folder")
	}

	oldFolderID := file.FolderID
	if err := s.files.UpdateByID(ctx, nil, file.ID, map[string]interface{}{"folder_id": folderID}); err != nil {
		return models.File{}, newInternalError("failed to move file", err)
	}

	s.invalidateSizes(ctx, userID, oldFolderID)
	s.invalidateSizes(ctx, userID, folderID)
	file.FolderID = folderID
	return file, nil
}

// DeleteFile soft-deletes the file and revokes every grant on it, in one
// transaction. Already-deleted files are a no-op.
func (s *fileService) DeleteFile(ctx context.Context, userID, fileID uint) error {
	file, err := s.files.GetByIDAndUserUnscoped(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}
	if file.Deleted() {
		return nil
	}

	deletedAt := s.now()
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.SoftDeleteByIDs(ctx, tx, userID, []uint{file.ID}, deletedAt); err != nil {
			return err
		}
		return s.shares.SoftDeleteByTargets(ctx, tx, []uint{file.ID}, nil, deletedAt)
	})
	if err != nil {
		return newInternalError("failed to delete file", err)
	}

	s.invalidateSizes(ctx, userID, file.FolderID)
	return nil
}

func (s *fileService) GetFile(ctx context.Context, userID, fileID uint) (models.File, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newNotFoundError("file not found")
		}
		return models.File{}, newInternalError("failed to load file", err)
	}
	return file, nil
}

func (s *fileService) GetFileBySlug(ctx context.Context, userID uint, slug string) (models.File, error) {
	file, err := s.files.GetBySlugAndUser(ctx, nil, slug, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newNotFoundError("file not found")
		}
		return models.File{}, newInternalError("failed to load file", err)
	}
	return file, nil
}

func (s *fileService) ListFiles(ctx context.Context, userID uint, folderID *uint) ([]models.File, error) {
	files, err := s.files.ListByFolder(ctx, nil, userID, folderID)
	if err != nil {
		return nil, newInternalError("failed to list files", err)
	}
	return files, nil
}

func (s *fileService) ToggleFavorite(ctx context.Context, userID, fileID uint) (bool, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, newNotFoundError("file not found")
		}
		return false, newInternalError("failed to load file", err)
	}

	next := !file.IsFavorite
	if err := s.files.UpdateByID(ctx, nil, file.ID, map[string]interface{}{"is_favorite": next}); err != nil {
		return false, newInternalError("failed to update favorite flag", err)
	}
	return next, nil
}

func (s *fileService) SetDownloadPolicy(ctx context.Context, userID, fileID uint, downloadLimit *uint, expiresAt *time.Time) error {
	if _, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}

	updates := map[string]interface{}{"download_limit": downloadLimit, "expires_at": expiresAt}
	if err := s.files.UpdateByID(ctx, nil, fileID, updates); err != nil {
		return newInternalError("failed to update download policy", err)
	}
	return nil
}

// Download returns the file and the absolute content path after the
// expiry and download-limit gates, then meters the access.
func (s *fileService) Download(ctx context.Context, userID, fileID uint) (models.File, string, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, "", newNotFoundError("file not found")
		}
		return models.File{}, "", newInternalError("failed to load file", err)
	}

	now := s.now()
	if file.Expired(now) {
		return models.File{}, "", newExpiredError("this file has expired")
	}
	if file.DownloadLimit != nil && file.DownloadCount >= *file.DownloadLimit {
		return models.File{}, "", newLimitError("download limit reached for this file", nil)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.IncrementDownloadCount(ctx, tx, file.ID); err != nil {
			return err
		}
		return s.files.UpdateByID(ctx, tx, file.ID, map[string]interface{}{"last_accessed_at": now})
	})
	if err != nil {
		return models.File{}, "", newInternalError("failed to record download", err)
	}

	file.DownloadCount++
	file.LastAccessedAt = &now
	return file, filepath.Join(config.AppConfig.Storage.BasePath, file.StoragePath), nil
}

func (s *fileService) ThumbnailPath(ctx context.Context, userID, fileID uint) (string, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newNotFoundError("file not found")
		}
		return "", newInternalError("failed to load file", err)
	}
	if file.ThumbnailPath == "" {
		return "", newNotFoundError("file has no thumbnail")
	}
	return filepath.Join(config.AppConfig.Storage.BasePath, file.ThumbnailPath), nil
}

func (s *fileService) invalidateSizes(ctx context.Context, userID uint, parentID *uint) {
	chain, err := s.walker.ancestors(ctx, nil, userID, parentID, false)
	if err != nil {
		logger.Warnf("failed to walk ancestors for size invalidation: %v", err)
		return
	}

	ids := make([]uint, 0, len(chain))
	for _, folder := range chain {
		ids = append(ids, folder.ID)
	}
	if err := s.sizes.InvalidateFolders(ctx, ids); err != nil {
		logger.Warnf("failed to invalidate size cache: %v", err)
	}
}

// storageRelPath partitions content by owner and by the first four hex
// characters of the file UUID, keeping directory fan-out flat.
func storageRelPath(userID uint, fileUUID string) string {
	hex := strings.ReplaceAll(fileUUID, "-", "")
	return filepath.Join("uploads", fmt.Sprintf("u%d", userID), hex[:2], hex[2:4], hex+".dat")
}

func thumbnailRelPath(userID uint, fileUUID string) string {
	hex := strings.ReplaceAll(fileUUID, "-", "")
	return filepath.Join("thumbnails", fmt.Sprintf("u%d", userID), hex+".jpg")
}
