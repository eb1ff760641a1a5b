package repositories

import (
	"context"
	"time"

	"mybox/models"

	"gorm.io/gorm"
)

type GormShareRepository struct {
	db *gorm.DB
}

func NewGormShareRepository(db *gorm.DB) *GormShareRepository {
	return &GormShareRepository{db: db}
}

func (r *GormShareRepository) Create(_ context.Context, tx *gorm.DB, grant *models.ShareGrant) error {
	return useTx(r.db, tx).Create(grant).Error
}

// GetByIDAndOwner scopes the lookup to grants whose contact belongs to
// the acting user; grant rows carry no owner column of their own.
func (r *GormShareRepository) GetByIDAndOwner(_ context.Context, tx *gorm.DB, grantID, ownerID uint) (models.ShareGrant, error) {
	var grant models.ShareGrant
	err := useTx(r.db, tx).
		Joins("JOIN contacts ON contacts.id = share_grants.contact_id").
		Where("share_grants.id = ? AND contacts.user_id = ?", grantID, ownerID).
		Preload("Contact").Preload("File").Preload("Folder").
		First(&grant).Error
	return grant, err
}

func (r *GormShareRepository) GetBySlug(_ context.Context, tx *gorm.DB, slug string) (models.ShareGrant, error) {
	var grant models.ShareGrant
	err := useTx(r.db, tx).Where("slug = ?", slug).
		Preload("Contact").Preload("File").Preload("Folder").
		First(&grant).Error
	return grant, err
}

func (r *GormShareRepository) ListActiveByFile(_ context.Context, tx *gorm.DB, fileID uint) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := useTx(r.db, tx).Where("file_id = ?", fileID).
		Preload("Contact").Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *GormShareRepository) ListActiveByFolders(_ context.Context, tx *gorm.DB, folderIDs []uint) ([]models.ShareGrant, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	var grants []models.ShareGrant
	err := useTx(r.db, tx).Where("folder_id IN ?", folderIDs).
		Preload("Contact").Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *GormShareRepository) ListActiveByRecipient(_ context.Context, tx *gorm.DB, userID uint) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := useTx(r.db, tx).Where("recipient_id = ?", userID).
		Preload("Contact").Preload("File").Preload("Folder").
		Order("created_at DESC").
		Find(&grants).Error
	return grants, err
}

func (r *GormShareRepository) SoftDeleteByIDs(_ context.Context, tx *gorm.DB, grantIDs []uint, deletedAt time.Time) error {
	if len(grantIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.ShareGrant{}).
		Where("id IN ?", grantIDs).
		Update("deleted_at", deletedAt).Error
}

// SoftDeleteByTargets revokes every active grant on the given files
// and folders; used when a subtree is soft-deleted.
func (r *GormShareRepository) SoftDeleteByTargets(_ context.Context, tx *gorm.DB, fileIDs, folderIDs []uint, deletedAt time.Time) error {
	db := useTx(r.db, tx)
	if len(fileIDs) > 0 {
		if err := db.Model(&models.ShareGrant{}).
			Where("file_id IN ?", fileIDs).
			Update("deleted_at", deletedAt).Error; err != nil {
			return err
		}
	}
	if len(folderIDs) > 0 {
		if err := db.Model(&models.ShareGrant{}).
			Where("folder_id IN ?", folderIDs).
			Update("deleted_at", deletedAt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormShareRepository) UnscopedDeleteByFileIDs(_ context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).Unscoped().Where("file_id IN ?", fileIDs).Delete(&models.ShareGrant{}).Error
}

func (r *GormShareRepository) SoftDeleteExpiredBefore(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := useTx(r.db, tx).Model(&models.ShareGrant{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Update("deleted_at", cutoff)
	return res.RowsAffected, res.Error
}
