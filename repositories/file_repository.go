package repositories

import (
	"context"
	"time"

	"mybox/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(_ context.Context, tx *gorm.DB, file *models.File) error {
	return useTx(r.db, tx).Create(file).Error
}

// GetByID looks a file up regardless of owner or deleted state. Used by
// share access checks, which must see targets the requester does not own.
func (r *GormFileRepository) GetByID(_ context.Context, tx *gorm.DB, fileID uint) (models.File, error) {
	var file models.File
	err := useTx(r.db, tx).Unscoped().Where("id = ?", fileID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, fileID, userID uint) (models.File, error) {
	var file models.File
	err := useTx(r.db, tx).Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) GetByIDAndUserUnscoped(_ context.Context, tx *gorm.DB, fileID, userID uint) (models.File, error) {
	var file models.File
	err := useTx(r.db, tx).Unscoped().Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) GetBySlugAndUser(_ context.Context, tx *gorm.DB, slug string, userID uint) (models.File, error) {
	var file models.File
	err := useTx(r.db, tx).Where("slug = ? AND user_id = ?", slug, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) ListByFolder(_ context.Context, tx *gorm.DB, userID uint, folderID *uint) ([]models.File, error) {
	db := useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND archived_at IS NULL", userID)
	db = folderScope(db, "folder_id", folderID)

	var files []models.File
	err := db.Order("created_at DESC").Find(&files).Error
	return files, err
}

func (r *GormFileRepository) CountByFolderAndName(_ context.Context, tx *gorm.DB, userID uint, folderID *uint, name string, excludeID uint) (int64, error) {
	db := useTx(r.db, tx).Model(&models.File{}).Where("user_id = ? AND name = ?", userID, name)
	db = folderScope(db, "folder_id", folderID)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormFileRepository) SumSizeByFolderIDs(_ context.Context, tx *gorm.DB, userID uint, folderIDs []uint) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}

	var total int64
	err := useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND folder_id IN ? AND archived_at IS NULL", userID, folderIDs).
		Select("COALESCE(SUM(file_size), 0)").Scan(&total).Error
	return total, err
}

func (r *GormFileRepository) CountByFolderIDsAndSlug(_ context.Context, tx *gorm.DB, folderIDs []uint, slug string) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := useTx(r.db, tx).Model(&models.File{}).
		Where("folder_id IN ? AND slug = ?", folderIDs, slug).
		Count(&count).Error
	return count, err
}

func (r *GormFileRepository) UpdateByID(_ context.Context, tx *gorm.DB, fileID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.File{}).Where("id = ?", fileID).Updates(updates).Error
}

func (r *GormFileRepository) UpdateByIDUnscoped(_ context.Context, tx *gorm.DB, fileID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Unscoped().Model(&models.File{}).Where("id = ?", fileID).Updates(updates).Error
}

func (r *GormFileRepository) PluckIDsByFolderIDs(_ context.Context, tx *gorm.DB, userID uint, folderIDs []uint) ([]uint, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	var ids []uint
	err := useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND folder_id IN ?", userID, folderIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormFileRepository) SoftDeleteByIDs(_ context.Context, tx *gorm.DB, userID uint, fileIDs []uint, deletedAt time.Time) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND id IN ?", userID, fileIDs).
		Updates(map[string]interface{}{"deleted_at": deletedAt, "shared_at": nil}).Error
}

func (r *GormFileRepository) SoftDeleteByFolderIDs(_ context.Context, tx *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND folder_id IN ?", userID, folderIDs).
		Updates(map[string]interface{}{"deleted_at": deletedAt, "shared_at": nil}).Error
}

// RestoreByFolderIDs clears deleted_at on every non-archived file under the
// given folders. Archived files stay out of circulation.
func (r *GormFileRepository) RestoreByFolderIDs(_ context.Context, tx *gorm.DB, userID uint, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Unscoped().Model(&models.File{}).
		Where("user_id = ? AND folder_id IN ? AND archived_at IS NULL", userID, folderIDs).
		Update("deleted_at", nil).Error
}

func (r *GormFileRepository) ListDeletedByUser(_ context.Context, tx *gorm.DB, userID uint, limit int) ([]models.File, error) {
	var files []models.File
	err := useTx(r.db, tx).Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL AND archived_at IS NULL", userID).
		Order("deleted_at DESC").Limit(limit).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ArchiveDeletedByUser(_ context.Context, tx *gorm.DB, userID uint, archivedAt time.Time) error {
	return useTx(r.db, tx).Unscoped().Model(&models.File{}).
		Where("user_id = ? AND deleted_at IS NOT NULL AND archived_at IS NULL", userID).
		Update("archived_at", archivedAt).Error
}

func (r *GormFileRepository) IncrementDownloadCount(_ context.Context, tx *gorm.DB, fileID uint) error {
	return useTx(r.db, tx).Model(&models.File{}).Where("id = ?", fileID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *GormFileRepository) ListArchivedBefore(_ context.Context, tx *gorm.DB, cutoff time.Time) ([]models.File, error) {
	var files []models.File
	err := useTx(r.db, tx).Unscoped().
		Where("archived_at IS NOT NULL AND archived_at < ?", cutoff).
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) UnscopedDeleteByIDs(_ context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Unscoped().Where("id IN ?", fileIDs).Delete(&models.File{}).Error
}
