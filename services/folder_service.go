package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mybox/logger"
	"mybox/models"
	"mybox/repositories"
	"mybox/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FolderService interface {
	CreateFolder(ctx context.Context, userID uint, name, description string, parentID *uint) (models.Folder, error)
	RenameFolder(ctx context.Context, userID, folderID uint, name, description string) (models.Folder, error)
	DeleteFolder(ctx context.Context, userID, folderID uint) error
	GetFolder(ctx context.Context, userID, folderID uint) (models.Folder, error)
	GetFolderBySlug(ctx context.Context, userID uint, slug string) (models.Folder, error)
	ListChildren(ctx context.Context, userID uint, parentID *uint) ([]models.Folder, error)
	FolderSize(ctx context.Context, userID, folderID uint) (int64, error)
	FolderDepth(ctx context.Context, userID, folderID uint) (int, error)
	FolderPath(ctx context.Context, userID, folderID uint) (string, error)
	ContainsFolderSlug(ctx context.Context, userID, folderID uint, slug string) (bool, error)
	ContainsFileSlug(ctx context.Context, userID, folderID uint, slug string) (bool, error)
	ToggleFavorite(ctx context.Context, userID, folderID uint) (bool, error)
}

type folderService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	shares    repositories.ShareRepository
	sizes     repositories.SizeCache
	walker    folderWalker
	now       func() time.Time
}

func NewFolderService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
	sizes repositories.SizeCache,
) FolderService {
	return &folderService{
		txManager: txManager,
		folders:   folders,
		files:     files,
		shares:    shares,
		sizes:     sizes,
		walker:    folderWalker{folders: folders},
		now:       time.Now,
	}
}

func (s *folderService) CreateFolder(ctx context.Context, userID uint, name, description string, parentID *uint) (models.Folder, error) {
	if err := validateFolderName(name); err != nil {
		return models.Folder{}, err
	}

	parentPath := ""
	if parentID != nil {
		parent, err := s.folders.GetByIDAndUser(ctx, nil, *parentID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Folder{}, newNotFoundError("parent folder not found")
			}
			return models.Folder{}, newInternalError("failed to load parent folder", err)
		}

		depth, err := s.walker.depth(ctx, nil, userID, parent.ParentID)
		if err != nil {
			return models.Folder{}, newInternalError("failed to compute folder depth", err)
		}
		// depth is the parent's own depth; the new folder sits one below.
		if depth+1 > maxFolderDepth {
			return models.Folder{}, newValidationError(fmt.Sprintf("folder nesting exceeds %d levels", maxFolderDepth))
		}

		parentPath, err = s.walker.fullPath(ctx, nil, parent)
		if err != nil {
			return models.Folder{}, newInternalError("failed to compute folder path", err)
		}
	}
	if len(parentPath)+1+len(name) > maxPathLength {
		return models.Folder{}, newValidationError(fmt.Sprintf("full path exceeds %d characters", maxPathLength))
	}

	count, err := s.folders.CountByParentAndName(ctx, nil, userID, parentID, name, 0)
	if err != nil {
		return models.Folder{}, newInternalError("failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.Folder{}, newConflictError("a folder with this name already exists here")
	}

	folder := models.Folder{
		Name:        name,
		Description: description,
		Slug:        utils.FolderSlug(name, s.now()),
		ParentID:    parentID,
		UserID:      userID,
		ShareUUID:   uuid.NewString(),
	}
	if err := s.createWithSlugRetry(ctx, &folder); err != nil {
		return models.Folder{}, err
	}

	s.invalidateSizes(ctx, userID, parentID)
	return folder, nil
}

// createWithSlugRetry retries once with a fresh slug when the unique index
// rejects the first one. Slugs embed a timestamp and a UUID fragment, so a
// second collision in a row means something is genuinely wrong.
func (s *folderService) createWithSlugRetry(ctx context.Context, folder *models.Folder) error {
	err := s.folders.Create(ctx, nil, folder)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return newInternalError("failed to create folder", err)
	}

	folder.Slug = utils.FolderSlug(folder.Name, s.now())
	if err := s.folders.Create(ctx, nil, folder); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newConflictError("slug conflict, please retry")
		}
		return newInternalError("failed to create folder", err)
	}
	return nil
}

func (s *folderService) RenameFolder(ctx context.Context, userID, folderID uint, name, description string) (models.Folder, error) {
	if err := validateFolderName(name); err != nil {
		return models.Folder{}, err
	}

	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Folder{}, newNotFoundError("folder not found")
		}
		return models.Folder{}, newInternalError("failed to load folder", err)
	}

	count, err := s.folders.CountByParentAndName(ctx, nil, userID, folder.ParentID, name, folder.ID)
	if err != nil {
		return models.Folder{}, newInternalError("failed to check for duplicate name", err)
	}
	if count > 0 {
		return models.Folder{}, newConflictError("a folder with this name already exists here")
	}

	updates := map[string]interface{}{"name": name, "description": description}
	if name != folder.Name {
		updates["slug"] = utils.FolderSlug(name, s.now())
	}
	if err := s.folders.UpdateByID(ctx, nil, folder.ID, updates); err != nil {
		return models.Folder{}, newInternalError("failed to rename folder", err)
	}

	folder.Name = name
	folder.Description = description
	if slug, ok := updates["slug"].(string); ok {
		folder.Slug = slug
	}
	return folder, nil
}

// DeleteFolder soft-deletes the folder and its whole subtree: files first,
// then folders, then every grant pointing at any of them, all in one
// transaction. Re-deleting an already-deleted folder is a no-op.
func (s *folderService) DeleteFolder(ctx context.Context, userID, folderID uint) error {
	folder, err := s.folders.GetByIDAndUserUnscoped(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("folder not found")
		}
		return newInternalError("failed to load folder", err)
	}
	if folder.Deleted() {
		return nil
	}

	deletedAt := s.now()
	var folderIDs []uint
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folderIDs, err = s.walker.subtreeIDs(ctx, tx, userID, folderID, true)
		if err != nil {
			return err
		}

		fileIDs, err := s.files.PluckIDsByFolderIDs(ctx, tx, userID, folderIDs)
		if err != nil {
			return err
		}

		if err := s.files.SoftDeleteByFolderIDs(ctx, tx, userID, folderIDs, deletedAt); err != nil {
			return err
		}
		if err := s.folders.SoftDeleteByIDs(ctx, tx, userID, folderIDs, deletedAt); err != nil {
			return err
		}
		return s.shares.SoftDeleteByTargets(ctx, tx, fileIDs, folderIDs, deletedAt)
	})
	if err != nil {
		return newInternalError("failed to delete folder", err)
	}

	if err := s.sizes.InvalidateFolders(ctx, folderIDs); err != nil {
		logger.Warnf("failed to invalidate size cache after delete: %v", err)
	}
	s.invalidateSizes(ctx, userID, folder.ParentID)
	return nil
}

func (s *folderService) GetFolder(ctx context.Context, userID, folderID uint) (models.Folder, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Folder{}, newNotFoundError("folder not found")
		}
		return models.Folder{}, newInternalError("failed to load folder", err)
	}
	return folder, nil
}

func (s *folderService) GetFolderBySlug(ctx context.Context, userID uint, slug string) (models.Folder, error) {
	folder, err := s.folders.GetBySlugAndUser(ctx, nil, slug, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Folder{}, newNotFoundError("folder not found")
		}
		return models.Folder{}, newInternalError("failed to load folder", err)
	}
	return folder, nil
}

func (s *folderService) ListChildren(ctx context.Context, userID uint, parentID *uint) ([]models.Folder, error) {
	if parentID != nil {
		if _, err := s.folders.GetByIDAndUser(ctx, nil, *parentID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFoundError("folder not found")
			}
			return nil, newInternalError("failed to load folder", err)
		}
	}

	list, err := s.folders.ListByParent(ctx, nil, userID, parentID)
	if err != nil {
		return nil, newInternalError("failed to list folders", err)
	}
	return list, nil
}

// FolderSize sums the sizes of every live file in the subtree. The result
// is memoized in Redis because nothing maintains it incrementally.
func (s *folderService) FolderSize(ctx context.Context, userID, folderID uint) (int64, error) {
	// Owner check first; the cache only short-circuits the subtree walk.
	if _, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newNotFoundError("folder not found")
		}
		return 0, newInternalError("failed to load folder", err)
	}

	if size, ok, err := s.sizes.GetFolderSize(ctx, folderID); err == nil && ok {
		return size, nil
	}

	folderIDs, err := s.walker.subtreeIDs(ctx, nil, userID, folderID, false)
	if err != nil {
		return 0, newInternalError("failed to walk folder tree", err)
	}

	total, err := s.files.SumSizeByFolderIDs(ctx, nil, userID, folderIDs)
	if err != nil {
		return 0, newInternalError("failed to sum file sizes", err)
	}

	if err := s.sizes.SetFolderSize(ctx, folderID, total); err != nil {
		logger.Warnf("failed to cache size of folder %d: %v", folderID, err)
	}
	return total, nil
}

// FolderDepth counts ancestors up to the root; a root-level folder has
// depth zero.
func (s *folderService) FolderDepth(ctx context.Context, userID, folderID uint) (int, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newNotFoundError("folder not found")
		}
		return 0, newInternalError("failed to load folder", err)
	}

	depth, err := s.walker.depth(ctx, nil, userID, folder.ParentID)
	if err != nil {
		return 0, newInternalError("failed to compute folder depth", err)
	}
	return depth, nil
}

func (s *folderService) FolderPath(ctx context.Context, userID, folderID uint) (string, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newNotFoundError("folder not found")
		}
		return "", newInternalError("failed to load folder", err)
	}

	path, err := s.walker.fullPath(ctx, nil, folder)
	if err != nil {
		return "", newInternalError("failed to compute folder path", err)
	}
	return path, nil
}

// ContainsFolderSlug reports whether the slug names a folder inside the
// given subtree, the folder itself included. Shared-folder browsing uses
// this to keep recipients from wandering outside the shared tree.
func (s *folderService) ContainsFolderSlug(ctx context.Context, userID, folderID uint, slug string) (bool, error) {
	target, err := s.folders.GetBySlugAndUser(ctx, nil, slug, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, newInternalError("failed to resolve folder slug", err)
	}

	folderIDs, err := s.walker.subtreeIDs(ctx, nil, userID, folderID, false)
	if err != nil {
		return false, newInternalError("failed to walk folder tree", err)
	}
	for _, id := range folderIDs {
		if id == target.ID {
			return true, nil
		}
	}
	return false, nil
}

func (s *folderService) ContainsFileSlug(ctx context.Context, userID, folderID uint, slug string) (bool, error) {
	folderIDs, err := s.walker.subtreeIDs(ctx, nil, userID, folderID, false)
	if err != nil {
		return false, newInternalError("failed to walk folder tree", err)
	}

	count, err := s.files.CountByFolderIDsAndSlug(ctx, nil, folderIDs, slug)
	if err != nil {
		return false, newInternalError("failed to resolve file slug", err)
	}
	return count > 0, nil
}

func (s *folderService) ToggleFavorite(ctx context.Context, userID, folderID uint) (bool, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, newNotFoundError("folder not found")
		}
		return false, newInternalError("failed to load folder", err)
	}

	next := !folder.IsFavorite
	if err := s.folders.UpdateByID(ctx, nil, folder.ID, map[string]interface{}{"is_favorite": next}); err != nil {
		return false, newInternalError("failed to update favorite flag", err)
	}
	return next, nil
}

// invalidateSizes drops cached sizes for a folder's ancestor chain after a
// mutation below them.
func (s *folderService) invalidateSizes(ctx context.Context, userID uint, parentID *uint) {
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
