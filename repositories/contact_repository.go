package repositories

import (
	"context"

	"mybox/models"

	"gorm.io/gorm"
)

type GormContactRepository struct {
	db *gorm.DB
}

func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) Create(_ context.Context, tx *gorm.DB, contact *models.Contact) error {
	return useTx(r.db, tx).Create(contact).Error
}

func (r *GormContactRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, contactID, userID uint) (models.Contact, error) {
	var contact models.Contact
	err := useTx(r.db, tx).Where("id = ? AND user_id = ?", contactID, userID).First(&contact).Error
	return contact, err
}

func (r *GormContactRepository) ListByUser(_ context.Context, tx *gorm.DB, userID uint, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := useTx(r.db, tx).Where("user_id = ?", userID).
		Order("first_name ASC, last_name ASC").Limit(limit).
		Find(&contacts).Error
	return contacts, err
}

func (r *GormContactRepository) ListByGroupAndUser(_ context.Context, tx *gorm.DB, groupID, userID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	err := useTx(r.db, tx).Model(&models.Contact{}).
		Joins("JOIN contact_group_members ON contact_group_members.contact_id = contacts.id").
		Joins("JOIN contact_groups ON contact_groups.id = contact_group_members.contact_group_id").
		Where("contact_groups.id = ? AND contact_groups.user_id = ? AND contact_groups.deleted_at IS NULL", groupID, userID).
		Where("contacts.user_id = ?", userID).
		Find(&contacts).Error
	return contacts, err
}

func (r *GormContactRepository) SoftDeleteByID(_ context.Context, tx *gorm.DB, contactID, userID uint) error {
	return useTx(r.db, tx).Where("id = ? AND user_id = ?", contactID, userID).Delete(&models.Contact{}).Error
}

func (r *GormContactRepository) CreateGroup(_ context.Context, tx *gorm.DB, group *models.ContactGroup) error {
	return useTx(r.db, tx).Create(group).Error
}

func (r *GormContactRepository) GetGroupByIDAndUser(_ context.Context, tx *gorm.DB, groupID, userID uint) (models.ContactGroup, error) {
	var group models.ContactGroup
	err := useTx(r.db, tx).Where("id = ? AND user_id = ?", groupID, userID).
		Preload("Contacts").First(&group).Error
	return group, err
}

func (r *GormContactRepository) ListGroupsByUser(_ context.Context, tx *gorm.DB, userID uint) ([]models.ContactGroup, error) {
	var groups []models.ContactGroup
	err := useTx(r.db, tx).Where("user_id = ?", userID).
		Preload("Contacts").Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *GormContactRepository) AddToGroup(_ context.Context, tx *gorm.DB, group *models.ContactGroup, contact models.Contact) error {
	return useTx(r.db, tx).Model(group).Association("Contacts").Append(&contact)
}

func (r *GormContactRepository) SoftDeleteGroupByID(_ context.Context, tx *gorm.DB, groupID, userID uint) error {
	return useTx(r.db, tx).Where("id = ? AND user_id = ?", groupID, userID).Delete(&models.ContactGroup{}).Error
}
