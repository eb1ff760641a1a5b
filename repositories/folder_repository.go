package repositories

import (
	"context"
	"time"

	"mybox/models"

	"gorm.io/gorm"
)

type GormFolderRepository struct {
	db *gorm.DB
}

func NewGormFolderRepository(db *gorm.DB) *GormFolderRepository {
	return &GormFolderRepository{db: db}
}

func (r *GormFolderRepository) Create(_ context.Context, tx *gorm.DB, folder *models.Folder) error {
	return useTx(r.db, tx).Create(folder).Error
}

// GetByID looks a folder up regardless of owner or deleted state. Used by
// share access checks, which must see targets the requester does not own.
func (r *GormFolderRepository) GetByID(_ context.Context, tx *gorm.DB, folderID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(r.db, tx).Unscoped().Where("id = ?", folderID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, folderID, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(r.db, tx).Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) GetByIDAndUserUnscoped(_ context.Context, tx *gorm.DB, folderID, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(r.db, tx).Unscoped().Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) GetBySlugAndUser(_ context.Context, tx *gorm.DB, slug string, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(r.db, tx).Where("slug = ? AND user_id = ?", slug, userID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) ListByParent(_ context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error) {
	db := useTx(r.db, tx).Model(&models.Folder{}).Where("user_id = ?", userID)
	db = folderScope(db, "parent_id", parentID)

	var folders []models.Folder
	err := db.Order("name ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) ListByParentUnscoped(_ context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error) {
	db := useTx(r.db, tx).Unscoped().Model(&models.Folder{}).Where("user_id = ?", userID)
	db = folderScope(db, "parent_id", parentID)

	var folders []models.Folder
	err := db.Order("name ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) CountByParentAndName(_ context.Context, tx *gorm.DB, userID uint, parentID *uint, name string, excludeID uint) (int64, error) {
	db := useTx(r.db, tx).Model(&models.Folder{}).Where("user_id = ? AND name = ?", userID, name)
	db = folderScope(db, "parent_id", parentID)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormFolderRepository) UpdateByID(_ context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Folder{}).Where("id = ?", folderID).Updates(updates).Error
}

func (r *GormFolderRepository) UpdateByIDUnscoped(_ context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Unscoped().Model(&models.Folder{}).Where("id = ?", folderID).Updates(updates).Error
}

// SoftDeleteByIDs stamps deleted_at and clears the share marker in the
// same update; a deleted folder must not look shared.
func (r *GormFolderRepository) SoftDeleteByIDs(_ context.Context, tx *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.Folder{}).
		Where("user_id = ? AND id IN ?", userID, folderIDs).
		Updates(map[string]interface{}{"deleted_at": deletedAt, "shared_at": nil}).Error
}

func (r *GormFolderRepository) ListDeletedByUser(_ context.Context, tx *gorm.DB, userID uint, limit int) ([]models.Folder, error) {
	var folders []models.Folder
	err := useTx(r.db, tx).Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").Limit(limit).Find(&folders).Error
	return folders, err
}
