package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"mybox/config"
	"mybox/logger"
	"mybox/models"
	"mybox/repositories"

	"github.com/lithammer/shortuuid/v4"
	"gorm.io/gorm"
)

// SharedFolderView is what a recipient sees when browsing a folder that
// was shared with them.
type SharedFolderView struct {
	Folder  models.Folder   `json:"folder"`
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

type ShareService interface {
	ResolveFileGrants(ctx context.Context, ownerID, fileID uint) ([]models.ShareGrant, error)
	ResolveFolderGrants(ctx context.Context, ownerID, folderID uint) ([]models.ShareGrant, error)
	FileShared(ctx context.Context, ownerID, fileID uint) (bool, error)
	FolderShared(ctx context.Context, ownerID, folderID uint) (bool, error)
	CanAccessFile(ctx context.Context, fileID, userID uint) (bool, error)
	AddContactToFile(ctx context.Context, ownerID, fileID, contactID uint, expiresAt *time.Time) (models.ShareGrant, bool, error)
	AddContactToFolder(ctx context.Context, ownerID, folderID, contactID uint, expiresAt *time.Time) (models.ShareGrant, bool, error)
	AddGroupToFile(ctx context.Context, ownerID, fileID, groupID uint, expiresAt *time.Time) (int, error)
	AddGroupToFolder(ctx context.Context, ownerID, folderID, groupID uint, expiresAt *time.Time) (int, error)
	RemoveContactFromFile(ctx context.Context, ownerID, fileID, grantID uint) error
	RemoveContactFromFolder(ctx context.Context, ownerID, folderID, grantID uint) error
	SetFileShareExpiry(ctx context.Context, ownerID, fileID uint, expiresAt *time.Time) error
	SetFolderShareExpiry(ctx context.Context, ownerID, folderID uint, expiresAt *time.Time) error
	SharedWithMe(ctx context.Context, userID uint) ([]models.ShareGrant, error)
	BrowseSharedFolder(ctx context.Context, userID uint, grantSlug, subfolderSlug string) (SharedFolderView, error)
}

type shareService struct {
	txManager TxManager
	users     repositories.UserRepository
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	shares    repositories.ShareRepository
	contacts  repositories.ContactRepository
	walker    folderWalker
	now       func() time.Time
}

func NewShareService(
	txManager TxManager,
	users repositories.UserRepository,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
	contacts repositories.ContactRepository,
) ShareService {
	return &shareService{
		txManager: txManager,
		users:     users,
		folders:   folders,
		files:     files,
		shares:    shares,
		contacts:  contacts,
		walker:    folderWalker{folders: folders},
		now:       time.Now,
	}
}

// resolveGrants merges the direct grants on a target with the grants on
// its non-deleted ancestor folders, drops expired ones, and collapses
// duplicate recipients by contact email, keeping the newest grant.
// Deleted targets, and targets whose own share expiry has passed,
// resolve to nothing.
func (s *shareService) resolveGrants(ctx context.Context, tx *gorm.DB, target models.ShareTarget) ([]models.ShareGrant, error) {
	if target.Deleted() {
		return nil, nil
	}
	if expiry := target.ShareExpiry(); expiry != nil && expiry.Before(s.now()) {
		return nil, nil
	}

	var direct []models.ShareGrant
	var err error
	switch target.TargetKind() {
	case models.TargetFile:
		direct, err = s.shares.ListActiveByFile(ctx, tx, target.TargetID())
	case models.TargetFolder:
		direct, err = s.shares.ListActiveByFolders(ctx, tx, []uint{target.TargetID()})
	}
	if err != nil {
		return nil, err
	}

	// The walk stops at the first deleted ancestor: grants above a
	// deleted folder must not leak through it.
	chain, err := s.walker.ancestors(ctx, tx, target.OwnerID(), target.ContainingFolder(), true)
	if err != nil {
		return nil, err
	}

	var inherited []models.ShareGrant
	if len(chain) > 0 {
		ids := make([]uint, 0, len(chain))
		for _, ancestor := range chain {
			ids = append(ids, ancestor.ID)
		}
		inherited, err = s.shares.ListActiveByFolders(ctx, tx, ids)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	byEmail := make(map[string]models.ShareGrant)
	for _, grant := range append(direct, inherited...) {
		if grant.Expired(now) {
			continue
		}
		email := strings.ToLower(grant.Contact.Email)
		if kept, ok := byEmail[email]; !ok || grant.CreatedAt.After(kept.CreatedAt) {
			byEmail[email] = grant
		}
	}

	resolved := make([]models.ShareGrant, 0, len(byEmail))
	for _, grant := range byEmail {
		resolved = append(resolved, grant)
	}
	return resolved, nil
}

func (s *shareService) ResolveFileGrants(ctx context.Context, ownerID, fileID uint) ([]models.ShareGrant, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("file not found")
		}
		return nil, newInternalError("failed to load file", err)
	}

	grants, err := s.resolveGrants(ctx, nil, &file)
	if err != nil {
		return nil, newInternalError("failed to resolve grants", err)
	}
	return grants, nil
}

func (s *shareService) ResolveFolderGrants(ctx context.Context, ownerID, folderID uint) ([]models.ShareGrant, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("folder not found")
		}
		return nil, newInternalError("failed to load folder", err)
	}

	grants, err := s.resolveGrants(ctx, nil, &folder)
	if err != nil {
		return nil, newInternalError("failed to resolve grants", err)
	}
	return grants, nil
}

func (s *shareService) FileShared(ctx context.Context, ownerID, fileID uint) (bool, error) {
	grants, err := s.ResolveFileGrants(ctx, ownerID, fileID)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

func (s *shareService) FolderShared(ctx context.Context, ownerID, folderID uint) (bool, error) {
	grants, err := s.ResolveFolderGrants(ctx, ownerID, folderID)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

// CanAccessFile answers the access question for any user, not just the
// owner: the owner always can; everyone else needs a resolved grant
// whose recipient account or contact email matches them.
func (s *shareService) CanAccessFile(ctx context.Context, fileID, userID uint) (bool, error) {
	file, err := s.files.GetByID(ctx, nil, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, newNotFoundError("file not found")
		}
		return false, newInternalError("failed to load file", err)
	}
	if file.UserID == userID {
		return true, nil
	}
	if file.Deleted() {
		return false, nil
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, newInternalError("failed to load user", err)
	}

	grants, err := s.resolveGrants(ctx, nil, &file)
	if err != nil {
		return false, newInternalError("failed to resolve grants", err)
	}
	for _, grant := range grants {
		if grant.RecipientID != nil && *grant.RecipientID == userID {
			return true, nil
		}
		if strings.EqualFold(grant.Contact.Email, user.Email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *shareService) AddContactToFile(ctx context.Context, ownerID, fileID, contactID uint, expiresAt *time.Time) (models.ShareGrant, bool, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShareGrant{}, false, newNotFoundError("file not found")
		}
		return models.ShareGrant{}, false, newInternalError("failed to load file", err)
	}
	return s.addContact(ctx, &file, contactID, expiresAt)
}

func (s *shareService) AddContactToFolder(ctx context.Context, ownerID, folderID, contactID uint, expiresAt *time.Time) (models.ShareGrant, bool, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShareGrant{}, false, newNotFoundError("folder not found")
		}
		return models.ShareGrant{}, false, newInternalError("failed to load folder", err)
	}
	return s.addContact(ctx, &folder, contactID, expiresAt)
}

// addContact is idempotent twice over: once on the exact contact and
// once on any other contact row carrying the same email. The recipient
// cap counts resolved grants, so inherited recipients take up seats too.
func (s *shareService) addContact(ctx context.Context, target models.ShareTarget, contactID uint, expiresAt *time.Time) (models.ShareGrant, bool, error) {
	contact, err := s.contacts.GetByIDAndUser(ctx, nil, contactID, target.OwnerID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShareGrant{}, false, newNotFoundError("contact not found")
		}
		return models.ShareGrant{}, false, newInternalError("failed to load contact", err)
	}

	var created models.ShareGrant
	var already bool
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		grant, existed, err := s.addContactTx(ctx, tx, target, contact, expiresAt)
		if err != nil {
			return err
		}
		created, already = grant, existed
		return nil
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return models.ShareGrant{}, false, appErr
		}
		return models.ShareGrant{}, false, newInternalError("failed to add contact to share", err)
	}
	return created, already, nil
}

func (s *shareService) addContactTx(ctx context.Context, tx *gorm.DB, target models.ShareTarget, contact models.Contact, expiresAt *time.Time) (models.ShareGrant, bool, error) {
	direct, err := s.listDirect(ctx, tx, target)
	if err != nil {
		return models.ShareGrant{}, false, err
	}
	for _, grant := range direct {
		if grant.ContactID == contact.ID || strings.EqualFold(grant.Contact.Email, contact.Email) {
			return grant, true, nil
		}
	}

	resolved, err := s.resolveGrants(ctx, tx, target)
	if err != nil {
		return models.ShareGrant{}, false, err
	}
	max := config.AppConfig.Sharing.MaxRecipients
	if len(resolved) >= max {
		return models.ShareGrant{}, false, newLimitError("share recipient limit reached", map[string]int{"max": max})
	}

	grant := models.ShareGrant{
		Slug:      shortuuid.New(),
		ContactID: contact.ID,
		ExpiresAt: expiresAt,
		Contact:   contact,
	}
	targetID := target.TargetID()
	switch target.TargetKind() {
	case models.TargetFile:
		grant.FileID = &targetID
	case models.TargetFolder:
		grant.FolderID = &targetID
	}

	if recipient, err := s.users.GetByEmail(ctx, tx, contact.Email); err == nil {
		recipientID := recipient.ID
		grant.RecipientID = &recipientID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ShareGrant{}, false, err
	}

	if err := s.shares.Create(ctx, tx, &grant); err != nil {
		return models.ShareGrant{}, false, err
	}

	// The first grant flips the shared marker; it stays set after that.
	if target.SharedSince() == nil {
		updates := map[string]interface{}{"shared_at": s.now()}
		switch target.TargetKind() {
		case models.TargetFile:
			err = s.files.UpdateByID(ctx, tx, targetID, updates)
		case models.TargetFolder:
			err = s.folders.UpdateByID(ctx, tx, targetID, updates)
		}
		if err != nil {
			return models.ShareGrant{}, false, err
		}
	}
	return grant, false, nil
}

func (s *shareService) listDirect(ctx context.Context, tx *gorm.DB, target models.ShareTarget) ([]models.ShareGrant, error) {
	switch target.TargetKind() {
	case models.TargetFile:
		return s.shares.ListActiveByFile(ctx, tx, target.TargetID())
	default:
		return s.shares.ListActiveByFolders(ctx, tx, []uint{target.TargetID()})
	}
}

func (s *shareService) AddGroupToFile(ctx context.Context, ownerID, fileID, groupID uint, expiresAt *time.Time) (int, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newNotFoundError("file not found")
		}
		return 0, newInternalError("failed to load file", err)
	}
	return s.addGroup(ctx, &file, groupID, expiresAt)
}

func (s *shareService) AddGroupToFolder(ctx context.Context, ownerID, folderID, groupID uint, expiresAt *time.Time) (int, error) {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newNotFoundError("folder not found")
		}
		return 0, newInternalError("failed to load folder", err)
	}
	return s.addGroup(ctx, &folder, groupID, expiresAt)
}

// addGroup shares with every contact in the group inside one
// transaction: members already covered are skipped, and hitting the
// recipient cap rolls the whole batch back.
func (s *shareService) addGroup(ctx context.Context, target models.ShareTarget, groupID uint, expiresAt *time.Time) (int, error) {
	members, err := s.contacts.ListByGroupAndUser(ctx, nil, groupID, target.OwnerID())
	if err != nil {
		return 0, newInternalError("failed to load group members", err)
	}
	if len(members) == 0 {
		return 0, newNotFoundError("group not found or empty")
	}

	added := 0
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, contact := range members {
			_, existed, err := s.addContactTx(ctx, tx, target, contact, expiresAt)
			if err != nil {
				return err
			}
			if !existed {
				added++
			}
		}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, newInternalError("failed to share with group", err)
	}
	return added, nil
}

func (s *shareService) RemoveContactFromFile(ctx context.Context, ownerID, fileID, grantID uint) error {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}
	return s.removeContact(ctx, &file, ownerID, grantID)
}

func (s *shareService) RemoveContactFromFolder(ctx context.Context, ownerID, folderID, grantID uint) error {
	folder, err := s.folders.GetByIDAndUser(ctx, nil, folderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("folder not found")
		}
		return newInternalError("failed to load folder", err)
	}
	return s.removeContact(ctx, &folder, ownerID, grantID)
}

// SetFileShareExpiry stamps (or clears, with nil) a target-wide expiry
// on the file. Once past, every grant on the file stops resolving,
// regardless of per-grant expiries.
func (s *shareService) SetFileShareExpiry(ctx context.Context, ownerID, fileID uint, expiresAt *time.Time) error {
	if _, err := s.files.GetByIDAndUser(ctx, nil, fileID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("file not found")
		}
		return newInternalError("failed to load file", err)
	}
	if err := s.files.UpdateByID(ctx, nil, fileID, map[string]interface{}{"share_expires_at": expiresAt}); err != nil {
		return newInternalError("failed to update file", err)
	}
	return nil
}

func (s *shareService) SetFolderShareExpiry(ctx context.Context, ownerID, folderID uint, expiresAt *time.Time) error {
	if _, err := s.folders.GetByIDAndUser(ctx, nil, folderID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("folder not found")
		}
		return newInternalError("failed to load folder", err)
	}
	if err := s.folders.UpdateByID(ctx, nil, folderID, map[string]interface{}{"share_expires_at": expiresAt}); err != nil {
		return newInternalError("failed to update folder", err)
	}
	return nil
}

// removeContact revokes the named grant plus every other active grant on
// the target whose contact shares the same email. A partial revoke that
// leaves a same-person grant active would be a hole. The target's
// shared marker stays set; unsharing is a separate owner action.
func (s *shareService) removeContact(ctx context.Context, target models.ShareTarget, ownerID, grantID uint) error {
	grant, err := s.shares.GetByIDAndOwner(ctx, nil, grantID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("share grant not found")
		}
		return newInternalError("failed to load share grant", err)
	}
	if !grantTargets(grant, target) {
		return newNotFoundError("share grant not found on this target")
	}

	email := grant.Contact.Email
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		direct, err := s.listDirect(ctx, tx, target)
		if err != nil {
			return err
		}

		ids := []uint{grant.ID}
		for _, other := range direct {
			if other.ID != grant.ID && strings.EqualFold(other.Contact.Email, email) {
				ids = append(ids, other.ID)
			}
		}
		if len(ids) > 1 {
			logger.Debugf("revoking %d grants sharing email on %s %d", len(ids), target.TargetKind(), target.TargetID())
		}
		return s.shares.SoftDeleteByIDs(ctx, tx, ids, s.now())
	})
	if err != nil {
		return newInternalError("failed to revoke share grant", err)
	}
	return nil
}

func grantTargets(grant models.ShareGrant, target models.ShareTarget) bool {
	switch target.TargetKind() {
	case models.TargetFile:
		return grant.FileID != nil && *grant.FileID == target.TargetID()
	case models.TargetFolder:
		return grant.FolderID != nil && *grant.FolderID == target.TargetID()
	}
	return false
}

// SharedWithMe lists the active grants whose recipient account is the
// given user, skipping expired grants and deleted targets.
func (s *shareService) SharedWithMe(ctx context.Context, userID uint) ([]models.ShareGrant, error) {
	grants, err := s.shares.ListActiveByRecipient(ctx, nil, userID)
	if err != nil {
		return nil, newInternalError("failed to list shares", err)
	}

	now := s.now()
	out := make([]models.ShareGrant, 0, len(grants))
	for _, grant := range grants {
		if grant.Expired(now) {
			continue
		}
		// Soft-deleted targets are hidden from the preload, leaving the
		// association nil while the foreign key is still set.
		if grant.FileID != nil && grant.File == nil {
			continue
		}
		if grant.FolderID != nil && grant.Folder == nil {
			continue
		}
		out = append(out, grant)
	}
	return out, nil
}

// BrowseSharedFolder lets a recipient list a shared folder, or one of
// its subfolders named by slug. The slug must resolve inside the shared
// subtree; anything else is reported as not found.
func (s *shareService) BrowseSharedFolder(ctx context.Context, userID uint, grantSlug, subfolderSlug string) (SharedFolderView, error) {
	grant, err := s.shares.GetBySlug(ctx, nil, grantSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SharedFolderView{}, newNotFoundError("share not found")
		}
		return SharedFolderView{}, newInternalError("failed to load share", err)
	}
	if grant.FolderID == nil {
		return SharedFolderView{}, newNotFoundError("share does not target a folder")
	}
	if grant.Folder == nil {
		// The folder was soft-deleted and hidden from the preload.
		return SharedFolderView{}, newNotFoundError("share not found")
	}
	if grant.Expired(s.now()) {
		return SharedFolderView{}, newExpiredError("this share has expired")
	}

	if err := s.checkGrantAudience(ctx, grant, userID); err != nil {
		return SharedFolderView{}, err
	}

	ownerID := grant.Folder.UserID
	current := *grant.Folder
	if subfolderSlug != "" {
		target, err := s.folders.GetBySlugAndUser(ctx, nil, subfolderSlug, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return SharedFolderView{}, newNotFoundError("folder not found in this share")
			}
			return SharedFolderView{}, newInternalError("failed to resolve folder", err)
		}

		subtree, err := s.walker.subtreeIDs(ctx, nil, ownerID, grant.Folder.ID, false)
		if err != nil {
			return SharedFolderView{}, newInternalError("failed to walk shared folder", err)
		}
		inside := false
		for _, id := range subtree {
			if id == target.ID {
				inside = true
				break
			}
		}
		if !inside {
			return SharedFolderView{}, newNotFoundError("folder not found in this share")
		}
		current = target
	}

	currentID := current.ID
	folders, err := s.folders.ListByParent(ctx, nil, ownerID, &currentID)
	if err != nil {
		return SharedFolderView{}, newInternalError("failed to list folders", err)
	}
	files, err := s.files.ListByFolder(ctx, nil, ownerID, &currentID)
	if err != nil {
		return SharedFolderView{}, newInternalError("failed to list files", err)
	}

	return SharedFolderView{Folder: current, Folders: folders, Files: files}, nil
}

// checkGrantAudience verifies the caller is the grant's recipient, a
// user matching the contact email, or the owner.
func (s *shareService) checkGrantAudience(ctx context.Context, grant models.ShareGrant, userID uint) error {
	if grant.Folder != nil && grant.Folder.UserID == userID {
		return nil
	}
	if grant.File != nil && grant.File.UserID == userID {
		return nil
	}
	if grant.RecipientID != nil && *grant.RecipientID == userID {
		return nil
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err == nil && strings.EqualFold(user.Email, grant.Contact.Email) {
		return nil
	}
	return newNotFoundError("share not found")
}
