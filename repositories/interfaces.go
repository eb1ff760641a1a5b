package repositories

import (
	"context"
	"time"

	"mybox/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error)
	CountByUsernameOrEmail(ctx context.Context, username, email string) (int64, error)
}

type FolderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error
	GetByID(ctx context.Context, tx *gorm.DB, folderID uint) (models.Folder, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, folderID, userID uint) (models.Folder, error)
	GetByIDAndUserUnscoped(ctx context.Context, tx *gorm.DB, folderID, userID uint) (models.Folder, error)
	GetBySlugAndUser(ctx context.Context, tx *gorm.DB, slug string, userID uint) (models.Folder, error)
	ListByParent(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error)
	ListByParentUnscoped(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error)
	CountByParentAndName(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint, name string, excludeID uint) (int64, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error
	UpdateByIDUnscoped(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error
	ListDeletedByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]models.Folder, error)
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	GetByID(ctx context.Context, tx *gorm.DB, fileID uint) (models.File, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID, userID uint) (models.File, error)
	GetByIDAndUserUnscoped(ctx context.Context, tx *gorm.DB, fileID, userID uint) (models.File, error)
	GetBySlugAndUser(ctx context.Context, tx *gorm.DB, slug string, userID uint) (models.File, error)
	ListByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID *uint) ([]models.File, error)
	CountByFolderAndName(ctx context.Context, tx *gorm.DB, userID uint, folderID *uint, name string, excludeID uint) (int64, error)
	SumSizeByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint) (int64, error)
	CountByFolderIDsAndSlug(ctx context.Context, tx *gorm.DB, folderIDs []uint, slug string) (int64, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, fileID uint, updates map[string]interface{}) error
	UpdateByIDUnscoped(ctx context.Context, tx *gorm.DB, fileID uint, updates map[string]interface{}) error
	PluckIDsByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint) ([]uint, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, userID uint, fileIDs []uint, deletedAt time.Time) error
	SoftDeleteByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error
	RestoreByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint) error
	ListDeletedByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]models.File, error)
	ArchiveDeletedByUser(ctx context.Context, tx *gorm.DB, userID uint, archivedAt time.Time) error
	IncrementDownloadCount(ctx context.Context, tx *gorm.DB, fileID uint) error
	ListArchivedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.File, error)
	UnscopedDeleteByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
}

type ShareRepository interface {
	Create(ctx context.Context, tx *gorm.DB, grant *models.ShareGrant) error
	GetByIDAndOwner(ctx context.Context, tx *gorm.DB, grantID, ownerID uint) (models.ShareGrant, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (models.ShareGrant, error)
	ListActiveByFile(ctx context.Context, tx *gorm.DB, fileID uint) ([]models.ShareGrant, error)
	ListActiveByFolders(ctx context.Context, tx *gorm.DB, folderIDs []uint) ([]models.ShareGrant, error)
	ListActiveByRecipient(ctx context.Context, tx *gorm.DB, userID uint) ([]models.ShareGrant, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, grantIDs []uint, deletedAt time.Time) error
	SoftDeleteByTargets(ctx context.Context, tx *gorm.DB, fileIDs, folderIDs []uint, deletedAt time.Time) error
	UnscopedDeleteByFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
	SoftDeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type ContactRepository interface {
	Create(ctx context.Context, tx *gorm.DB, contact *models.Contact) error
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, contactID, userID uint) (models.Contact, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]models.Contact, error)
	ListByGroupAndUser(ctx context.Context, tx *gorm.DB, groupID, userID uint) ([]models.Contact, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, contactID, userID uint) error
	CreateGroup(ctx context.Context, tx *gorm.DB, group *models.ContactGroup) error
	GetGroupByIDAndUser(ctx context.Context, tx *gorm.DB, groupID, userID uint) (models.ContactGroup, error)
	ListGroupsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.ContactGroup, error)
	AddToGroup(ctx context.Context, tx *gorm.DB, group *models.ContactGroup, contact models.Contact) error
	SoftDeleteGroupByID(ctx context.Context, tx *gorm.DB, groupID, userID uint) error
}

// SizeCache memoizes recursive folder sizes; the computation is
// proportional to subtree size and sits on the browse hot path.
type SizeCache interface {
	GetFolderSize(ctx context.Context, folderID uint) (int64, bool, error)
	SetFolderSize(ctx context.Context, folderID uint, size int64) error
	InvalidateFolders(ctx context.Context, folderIDs []uint) error
}

type Container struct {
	TxManager TxManager
	Users     UserRepository
	Folders   FolderRepository
	Files     FileRepository
	Shares    ShareRepository
	Contacts  ContactRepository
	Sizes     SizeCache
}
