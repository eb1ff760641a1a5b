package services

import (
	"context"
	"errors"
	"time"

	"mybox/config"
	"mybox/logger"
	"mybox/models"
	"mybox/repositories"

	"gorm.io/gorm"
)

type TrashView struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

type TrashService interface {
	List(ctx context.Context, userID uint) (TrashView, error)
	RestoreFile(ctx context.Context, userID, fileID uint) error
	RestoreFolder(ctx context.Context, userID, folderID uint, withChildren bool) error
	ArchiveFile(ctx context.Context, userID, fileID uint) error
	Empty(ctx context.Context, userID uint) error
}

type trashService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	sizes     repositories.SizeCache
	walker    folderWalker
	now       func() time.Time
}

func NewTrashService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	sizes repositories.SizeCache,
) TrashService {
	return &trashService{
		txManager: txManager,
		folders:   folders,
		files:     files,
		sizes:     sizes,
		walker:    folderWalker{folders: folders},
		now:       time.Now,
	}
}

func (s *trashService) List(ctx context.Context, userID uint) (TrashView, error) {
	limit := config.AppConfig.Trash.ListLimit

	folders, err := s.folders.ListDeletedByUser(ctx, nil, userID, limit)
	if err != nil {
		return TrashView{}, newInternalError("failed to list deleted folders", err)
	}
	files, err := s.files.ListDeletedByUser(ctx, nil, userID, limit)
	if err != nil {
		return TrashView{}, newInternalError("failed to list deleted files", err)
	}
	return TrashView{Folders: folders, Files: files}, nil
}

// RestoreFile clears the file's deleted flag and un-deletes every
// deleted ancestor folder on its chain; a restored file must not sit
// under a deleted folder. Siblings stay deleted.
func (s *trashService) RestoreFile(ctx context.Context, userID, fileID uint) error {
	file, err := s.files.GetByIDAndUserUnscoped(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}
	if file.Archived() {
		return newValidationError("archived files cannot be restored")
	}
	if !file.Deleted() {
		return nil
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.restoreAncestors(ctx, tx, userID, file.FolderID); err != nil {
			return err
		}
		return s.files.UpdateByIDUnscoped(ctx, tx, file.ID, map[string]interface{}{"deleted_at": nil})
	})
	if err != nil {
		return newInternalError("failed to restore file", err)
	}

	s.invalidateSizes(ctx, userID, file.FolderID)
	return nil
}

// RestoreFolder un-deletes the folder and its deleted ancestors. The
// subtree below stays deleted unless withChildren is set, which also
// revives every descendant folder and every non-archived descendant
// file.
func (s *trashService) RestoreFolder(ctx context.Context, userID, folderID uint, withChildren bool) error {
	folder, err := s.folders.GetByIDAndUserUnscoped(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("folder not found")
		}
		return newInternalError("failed to load folder", err)
	}
	if !folder.Deleted() {
		return nil
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.restoreAncestors(ctx, tx, userID, folder.ParentID); err != nil {
			return err
		}
		if err := s.folders.UpdateByIDUnscoped(ctx, tx, folder.ID, map[string]interface{}{"deleted_at": nil}); err != nil {
			return err
		}
		if !withChildren {
			return nil
		}

		subtree, err := s.walker.subtreeIDs(ctx, tx, userID, folder.ID, true)
		if err != nil {
			return err
		}
		for _, id := range subtree {
			if id == folder.ID {
				continue
			}
			if err := s.folders.UpdateByIDUnscoped(ctx, tx, id, map[string]interface{}{"deleted_at": nil}); err != nil {
				return err
			}
		}
		return s.files.RestoreByFolderIDs(ctx, tx, userID, subtree)
	})
	if err != nil {
		return newInternalError("failed to restore folder", err)
	}

	s.invalidateSizes(ctx, userID, folder.ParentID)
	return nil
}

// restoreAncestors walks the parent chain to the root and clears the
// deleted flag on any deleted ancestor.
func (s *trashService) restoreAncestors(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) error {
	chain, err := s.walker.ancestors(ctx, tx, userID, parentID, false)
	if err != nil {
		return err
	}
	for _, ancestor := range chain {
		if !ancestor.Deleted() {
			continue
		}
		if err := s.folders.UpdateByIDUnscoped(ctx, tx, ancestor.ID, map[string]interface{}{"deleted_at": nil}); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveFile moves a deleted file into the terminal archived state.
// Archived files never come back; their rows survive until the cleanup
// worker purges them.
func (s *trashService) ArchiveFile(ctx context.Context, userID, fileID uint) error {
	file, err := s.files.GetByIDAndUserUnscoped(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}
	if file.Archived() {
		return nil
	}
	if !file.Deleted() {
		return newValidationError("only deleted files can be archived")
	}

	if err := s.files.UpdateByIDUnscoped(ctx, nil, file.ID, map[string]interface{}{"archived_at": s.now()}); err != nil {
		return newInternalError("failed to archive file", err)
	}
	return nil
}

// Empty archives every deleted file of the user in one update. Deleted
// folders stay in the trash; only file content is ever reclaimed.
func (s *trashService) Empty(ctx context.Context, userID uint) error {
	if err := s.files.ArchiveDeletedByUser(ctx, nil, userID, s.now()); err != nil {
		return newInternalError("failed to empty trash", err)
	}
	return nil
}

func (s *trashService) invalidateSizes(ctx context.Context, userID uint, parentID *uint) {
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
