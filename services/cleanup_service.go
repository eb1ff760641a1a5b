package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"mybox/config"
	"mybox/logger"
	"mybox/repositories"

	"gorm.io/gorm"
)

type CleanupService interface {
	PurgeArchivedFiles(ctx context.Context) (int, error)
	PurgeExpiredGrants(ctx context.Context) (int64, error)
}

type cleanupService struct {
	txManager TxManager
	files     repositories.FileRepository
	shares    repositories.ShareRepository
	now       func() time.Time
}

func NewCleanupService(txManager TxManager, files repositories.FileRepository, shares repositories.ShareRepository) CleanupService {
	return &cleanupService{txManager: txManager, files: files, shares: shares, now: time.Now}
}

// PurgeArchivedFiles hard-deletes files archived longer ago than the
// retention window: rows and grants go in one transaction, content and
// thumbnails from disk after the commit.
func (s *cleanupService) PurgeArchivedFiles(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -config.AppConfig.Trash.RetentionDays)

	files, err := s.files.ListArchivedBefore(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shares.UnscopedDeleteByFileIDs(ctx, tx, ids); err != nil {
			return err
		}
		return s.files.UnscopedDeleteByIDs(ctx, tx, ids)
	})
	if err != nil {
		return 0, err
	}

	basePath := config.AppConfig.Storage.BasePath
	for _, file := range files {
		if file.StoragePath != "" {
			if err := os.Remove(filepath.Join(basePath, file.StoragePath)); err != nil && !os.IsNotExist(err) {
				logger.Warnf("failed to remove content of purged file %d: %v", file.ID, err)
			}
		}
		if file.ThumbnailPath != "" {
			os.Remove(filepath.Join(basePath, file.ThumbnailPath))
		}
	}
	return len(files), nil
}

// PurgeExpiredGrants soft-deletes grants whose expiry has passed. Expiry
// is already enforced at query time; the sweep just keeps the ledger
// tidy.
func (s *cleanupService) PurgeExpiredGrants(ctx context.Context) (int64, error) {
	return s.shares.SoftDeleteExpiredBefore(ctx, nil, s.now())
}

// StartCleanupWorkers runs the purge loops until the context is
// cancelled.
func StartCleanupWorkers(ctx context.Context, cleanup CleanupService) {
	go purgeLoop(ctx, cleanup)
}

func purgeLoop(ctx context.Context, cleanup CleanupService) {
	interval := time.Duration(config.AppConfig.Trash.CleanupInterval) * time.Second
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := cleanup.PurgeArchivedFiles(ctx); err != nil {
				logger.Warnf("archived file purge failed: %v", err)
			} else if n > 0 {
				logger.Infof("purged %d archived files", n)
			}
			if n, err := cleanup.PurgeExpiredGrants(ctx); err != nil {
				logger.Warnf("expired grant sweep failed: %v", err)
			} else if n > 0 {
				logger.Infof("swept %d expired share grants", n)
			}
		}
	}
}
