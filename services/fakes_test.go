package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"mybox/config"
	"mybox/models"

	"gorm.io/gorm"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{
		Storage: config.StorageConfig{
			BasePath:        t.TempDir(),
			MaxFileSize:     1 << 20,
			ThumbnailWidth:  200,
			ThumbnailHeight: 200,
		},
		Sharing: config.SharingConfig{MaxRecipients: 99},
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Trash:   config.TrashConfig{RetentionDays: 30, CleanupInterval: 86400, ListLimit: 100},
	}
	t.Cleanup(func() { config.AppConfig = old })
}

type fakeTxManager struct {
	err error
}

func (m *fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

type fakeUserRepo struct {
	users     map[uint]models.User
	nextID    uint
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]models.User{}, nextID: 1}
}

func (r *fakeUserRepo) addUser(username, email string) models.User {
	user := models.User{ID: r.nextID, Username: username, Email: email}
	r.users[user.ID] = user
	r.nextID++
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uint) (models.User, error) {
	if r.getErr != nil {
		return models.User{}, r.getErr
	}
	user, ok := r.users[userID]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, _ *gorm.DB, username string) (models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (models.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) CountByUsernameOrEmail(_ context.Context, username, email string) (int64, error) {
	var count int64
	for _, user := range r.users {
		if user.Username == username || strings.EqualFold(user.Email, email) {
			count++
		}
	}
	return count, nil
}

type fakeFolderRepo struct {
	folders   map[uint]models.Folder
	nextID    uint
	createErr error
	getErr    error
	updateErr error
	dupNext   int
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: map[uint]models.Folder{}, nextID: 1}
}

func (r *fakeFolderRepo) addFolder(userID uint, name string, parentID *uint) models.Folder {
	folder := models.Folder{
		ID:       r.nextID,
		Name:     name,
		Slug:     strings.ToLower(name) + "-slug",
		ParentID: parentID,
		UserID:   userID,
	}
	r.folders[folder.ID] = folder
	r.nextID++
	return folder
}

func (r *fakeFolderRepo) markDeleted(folderID uint, at time.Time) {
	folder := r.folders[folderID]
	folder.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	folder.SharedAt = nil
	r.folders[folderID] = folder
}

func (r *fakeFolderRepo) Create(_ context.Context, _ *gorm.DB, folder *models.Folder) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.dupNext > 0 {
		r.dupNext--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.folders {
		if existing.Slug == folder.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if folder.ID == 0 {
		folder.ID = r.nextID
		r.nextID++
	}
	r.folders[folder.ID] = *folder
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, _ *gorm.DB, folderID uint) (models.Folder, error) {
	if r.getErr != nil {
		return models.Folder{}, r.getErr
	}
	folder, ok := r.folders[folderID]
	if !ok {
		return models.Folder{}, gorm.ErrRecordNotFound
	}
	return folder, nil
}

func (r *fakeFolderRepo) GetByIDAndUser(_ context.Context, _ *gorm.DB, folderID, userID uint) (models.Folder, error) {
	if r.getErr != nil {
		return models.Folder{}, r.getErr
	}
	folder, ok := r.folders[folderID]
	if !ok || folder.UserID != userID || folder.DeletedAt.Valid {
		return models.Folder{}, gorm.ErrRecordNotFound
	}
	return folder, nil
}

func (r *fakeFolderRepo) GetByIDAndUserUnscoped(_ context.Context, _ *gorm.DB, folderID, userID uint) (models.Folder, error) {
	if r.getErr != nil {
		return models.Folder{}, r.getErr
	}
	folder, ok := r.folders[folderID]
	if !ok || folder.UserID != userID {
		return models.Folder{}, gorm.ErrRecordNotFound
	}
	return folder, nil
}

func (r *fakeFolderRepo) GetBySlugAndUser(_ context.Context, _ *gorm.DB, slug string, userID uint) (models.Folder, error) {
	for _, folder := range r.folders {
		if folder.Slug == slug && folder.UserID == userID && !folder.DeletedAt.Valid {
			return folder, nil
		}
	}
	return models.Folder{}, gorm.ErrRecordNotFound
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeFolderRepo) listByParent(userID uint, parentID *uint, includeDeleted bool) []models.Folder {
	out := make([]models.Folder, 0)
	for _, folder := range r.folders {
		if folder.UserID != userID || !sameParent(folder.ParentID, parentID) {
			continue
		}
		if !includeDeleted && folder.DeletedAt.Valid {
			continue
		}
		out = append(out, folder)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeFolderRepo) ListByParent(_ context.Context, _ *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error) {
	return r.listByParent(userID, parentID, false), nil
}

func (r *fakeFolderRepo) ListByParentUnscoped(_ context.Context, _ *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error) {
	return r.listByParent(userID, parentID, true), nil
}

func (r *fakeFolderRepo) CountByParentAndName(_ context.Context, _ *gorm.DB, userID uint, parentID *uint, name string, excludeID uint) (int64, error) {
	var count int64
	for _, folder := range r.folders {
		if folder.UserID != userID || folder.ID == excludeID || folder.Name != name || folder.DeletedAt.Valid {
			continue
		}
		if sameParent(folder.ParentID, parentID) {
			count++
		}
	}
	return count, nil
}

func applyFolderUpdates(folder *models.Folder, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "name":
			folder.Name = value.(string)
		case "description":
			folder.Description = value.(string)
		case "slug":
			folder.Slug = value.(string)
		case "is_favorite":
			folder.IsFavorite = value.(bool)
		case "shared_at":
			if value == nil {
				folder.SharedAt = nil
			} else {
				at := value.(time.Time)
				folder.SharedAt = &at
			}
		case "share_expires_at":
			if value == nil {
				folder.ShareExpiresAt = nil
			} else {
				folder.ShareExpiresAt = value.(*time.Time)
			}
		case "deleted_at":
			if value == nil {
				folder.DeletedAt = gorm.DeletedAt{}
			} else {
				folder.DeletedAt = gorm.DeletedAt{Time: value.(time.Time), Valid: true}
			}
		}
	}
}

func (r *fakeFolderRepo) UpdateByID(_ context.Context, _ *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return r.UpdateByIDUnscoped(nil, nil, folderID, updates)
}

func (r *fakeFolderRepo) UpdateByIDUnscoped(_ context.Context, _ *gorm.DB, folderID uint, updates map[string]interface{}) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	folder, ok := r.folders[folderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyFolderUpdates(&folder, updates)
	r.folders[folderID] = folder
	return nil
}

func (r *fakeFolderRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error {
	for _, id := range folderIDs {
		folder, ok := r.folders[id]
		if !ok || folder.UserID != userID {
			continue
		}
		folder.DeletedAt = gorm.DeletedAt{Time: deletedAt, Valid: true}
		folder.SharedAt = nil
		r.folders[id] = folder
	}
	return nil
}

func (r *fakeFolderRepo) ListDeletedByUser(_ context.Context, _ *gorm.DB, userID uint, limit int) ([]models.Folder, error) {
	out := make([]models.Folder, 0)
	for _, folder := range r.folders {
		if folder.UserID == userID && folder.DeletedAt.Valid {
			out = append(out, folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeFileRepo struct {
	files     map[uint]models.File
	nextID    uint
	createErr error
	getErr    error
	updateErr error
	dupNext   int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[uint]models.File{}, nextID: 1}
}

func (r *fakeFileRepo) addFile(userID uint, name string, folderID *uint, size int64) models.File {
	file := models.File{
		ID:       r.nextID,
		Name:     name,
		Slug:     strings.ToLower(name) + "-slug",
		FolderID: folderID,
		UserID:   userID,
		FileSize: size,
	}
	r.files[file.ID] = file
	r.nextID++
	return file
}

func (r *fakeFileRepo) markDeleted(fileID uint, at time.Time) {
	file := r.files[fileID]
	file.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	file.SharedAt = nil
	r.files[fileID] = file
}

func (r *fakeFileRepo) Create(_ context.Context, _ *gorm.DB, file *models.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.dupNext > 0 {
		r.dupNext--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.files {
		if existing.Slug == file.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if file.ID == 0 {
		file.ID = r.nextID
		r.nextID++
	}
	r.files[file.ID] = *file
	return nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, _ *gorm.DB, fileID uint) (models.File, error) {
	if r.getErr != nil {
		return models.File{}, r.getErr
	}
	file, ok := r.files[fileID]
	if !ok {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) GetByIDAndUser(_ context.Context, _ *gorm.DB, fileID, userID uint) (models.File, error) {
	if r.getErr != nil {
		return models.File{}, r.getErr
	}
	file, ok := r.files[fileID]
	if !ok || file.UserID != userID || file.DeletedAt.Valid {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) GetByIDAndUserUnscoped(_ context.Context, _ *gorm.DB, fileID, userID uint) (models.File, error) {
	if r.getErr != nil {
		return models.File{}, r.getErr
	}
	file, ok := r.files[fileID]
	if !ok || file.UserID != userID {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) GetBySlugAndUser(_ context.Context, _ *gorm.DB, slug string, userID uint) (models.File, error) {
	for _, file := range r.files {
		if file.Slug == slug && file.UserID == userID && !file.DeletedAt.Valid {
			return file, nil
		}
	}
	return models.File{}, gorm.ErrRecordNotFound
}

func (r *fakeFileRepo) ListByFolder(_ context.Context, _ *gorm.DB, userID uint, folderID *uint) ([]models.File, error) {
	out := make([]models.File, 0)
	for _, file := range r.files {
		if file.UserID != userID || file.DeletedAt.Valid || file.ArchivedAt != nil {
			continue
		}
		if sameParent(file.FolderID, folderID) {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) CountByFolderAndName(_ context.Context, _ *gorm.DB, userID uint, folderID *uint, name string, excludeID uint) (int64, error) {
	var count int64
	for _, file := range r.files {
		if file.UserID != userID || file.ID == excludeID || file.Name != name || file.DeletedAt.Valid {
			continue
		}
		if sameParent(file.FolderID, folderID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeFileRepo) SumSizeByFolderIDs(_ context.Context, _ *gorm.DB, userID uint, folderIDs []uint) (int64, error) {
	var total int64
	for _, file := range r.files {
		if file.UserID != userID || file.DeletedAt.Valid || file.ArchivedAt != nil || file.FolderID == nil {
			continue
		}
		for _, id := range folderIDs {
			if *file.FolderID == id {
				total += file.FileSize
				break
			}
		}
	}
	return total, nil
}

func (r *fakeFileRepo) CountByFolderIDsAndSlug(_ context.Context, _ *gorm.DB, folderIDs []uint, slug string) (int64, error) {
	var count int64
	for _, file := range r.files {
		if file.Slug != slug || file.DeletedAt.Valid || file.FolderID == nil {
			continue
		}
		for _, id := range folderIDs {
			if *file.FolderID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func applyFileUpdates(file *models.File, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "name":
			file.Name = value.(string)
		case "description":
			file.Description = value.(string)
		case "slug":
			file.Slug = value.(string)
		case "is_favorite":
			file.IsFavorite = value.(bool)
		case "folder_id":
			if value == nil {
				file.FolderID = nil
			} else {
				file.FolderID = value.(*uint)
			}
		case "shared_at":
			if value == nil {
				file.SharedAt = nil
			} else {
				at := value.(time.Time)
				file.SharedAt = &at
			}
		case "share_expires_at":
			if value == nil {
				file.ShareExpiresAt = nil
			} else {
				file.ShareExpiresAt = value.(*time.Time)
			}
		case "deleted_at":
			if value == nil {
				file.DeletedAt = gorm.DeletedAt{}
			} else {
				file.DeletedAt = gorm.DeletedAt{Time: value.(time.Time), Valid: true}
			}
		case "archived_at":
			if value == nil {
				file.ArchivedAt = nil
			} else {
				at := value.(time.Time)
				file.ArchivedAt = &at
			}
		case "last_accessed_at":
			at := value.(time.Time)
			file.LastAccessedAt = &at
		case "download_limit":
			if value == nil {
				file.DownloadLimit = nil
			} else {
				file.DownloadLimit = value.(*uint)
			}
		case "expires_at":
			if value == nil {
				file.ExpiresAt = nil
			} else {
				file.ExpiresAt = value.(*time.Time)
			}
		}
	}
}

func (r *fakeFileRepo) UpdateByID(_ context.Context, _ *gorm.DB, fileID uint, updates map[string]interface{}) error {
	return r.UpdateByIDUnscoped(nil, nil, fileID, updates)
}

func (r *fakeFileRepo) UpdateByIDUnscoped(_ context.Context, _ *gorm.DB, fileID uint, updates map[string]interface{}) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	file, ok := r.files[fileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyFileUpdates(&file, updates)
	r.files[fileID] = file
	return nil
}

func (r *fakeFileRepo) PluckIDsByFolderIDs(_ context.Context, _ *gorm.DB, userID uint, folderIDs []uint) ([]uint, error) {
	var ids []uint
	for _, file := range r.files {
		if file.UserID != userID || file.FolderID == nil {
			continue
		}
		for _, id := range folderIDs {
			if *file.FolderID == id {
				ids = append(ids, file.ID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeFileRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, userID uint, fileIDs []uint, deletedAt time.Time) error {
	for _, id := range fileIDs {
		file, ok := r.files[id]
		if !ok || file.UserID != userID {
			continue
		}
		file.DeletedAt = gorm.DeletedAt{Time: deletedAt, Valid: true}
		file.SharedAt = nil
		r.files[id] = file
	}
	return nil
}

func (r *fakeFileRepo) SoftDeleteByFolderIDs(_ context.Context, _ *gorm.DB, userID uint, folderIDs []uint, deletedAt time.Time) error {
	ids, _ := r.PluckIDsByFolderIDs(nil, nil, userID, folderIDs)
	return r.SoftDeleteByIDs(nil, nil, userID, ids, deletedAt)
}

func (r *fakeFileRepo) RestoreByFolderIDs(_ context.Context, _ *gorm.DB, userID uint, folderIDs []uint) error {
	ids, _ := r.PluckIDsByFolderIDs(nil, nil, userID, folderIDs)
	for _, id := range ids {
		file := r.files[id]
		if file.ArchivedAt != nil {
			continue
		}
		file.DeletedAt = gorm.DeletedAt{}
		r.files[id] = file
	}
	return nil
}

func (r *fakeFileRepo) ListDeletedByUser(_ context.Context, _ *gorm.DB, userID uint, limit int) ([]models.File, error) {
	out := make([]models.File, 0)
	for _, file := range r.files {
		if file.UserID == userID && file.DeletedAt.Valid && file.ArchivedAt == nil {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFileRepo) ArchiveDeletedByUser(_ context.Context, _ *gorm.DB, userID uint, archivedAt time.Time) error {
	for id, file := range r.files {
		if file.UserID == userID && file.DeletedAt.Valid && file.ArchivedAt == nil {
			at := archivedAt
			file.ArchivedAt = &at
			r.files[id] = file
		}
	}
	return nil
}

func (r *fakeFileRepo) IncrementDownloadCount(_ context.Context, _ *gorm.DB, fileID uint) error {
	file, ok := r.files[fileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	file.DownloadCount++
	r.files[fileID] = file
	return nil
}

func (r *fakeFileRepo) ListArchivedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) ([]models.File, error) {
	out := make([]models.File, 0)
	for _, file := range r.files {
		if file.ArchivedAt != nil && file.ArchivedAt.Before(cutoff) {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) UnscopedDeleteByIDs(_ context.Context, _ *gorm.DB, fileIDs []uint) error {
	for _, id := range fileIDs {
		delete(r.files, id)
	}
	return nil
}

type fakeShareRepo struct {
	grants    map[uint]models.ShareGrant
	nextID    uint
	createErr error
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{grants: map[uint]models.ShareGrant{}, nextID: 1}
}

func (r *fakeShareRepo) addGrant(grant models.ShareGrant) models.ShareGrant {
	if grant.ID == 0 {
		grant.ID = r.nextID
		r.nextID++
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}
	r.grants[grant.ID] = grant
	return grant
}

func (r *fakeShareRepo) Create(_ context.Context, _ *gorm.DB, grant *models.ShareGrant) error {
	if r.createErr != nil {
		return r.createErr
	}
	if grant.ID == 0 {
		grant.ID = r.nextID
		r.nextID++
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}
	r.grants[grant.ID] = *grant
	return nil
}

func (r *fakeShareRepo) GetByIDAndOwner(_ context.Context, _ *gorm.DB, grantID, ownerID uint) (models.ShareGrant, error) {
	grant, ok := r.grants[grantID]
	if !ok || grant.DeletedAt.Valid || grant.Contact.UserID != ownerID {
		return models.ShareGrant{}, gorm.ErrRecordNotFound
	}
	return grant, nil
}

func (r *fakeShareRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (models.ShareGrant, error) {
	for _, grant := range r.grants {
		if grant.Slug == slug && !grant.DeletedAt.Valid {
			return grant, nil
		}
	}
	return models.ShareGrant{}, gorm.ErrRecordNotFound
}

func (r *fakeShareRepo) ListActiveByFile(_ context.Context, _ *gorm.DB, fileID uint) ([]models.ShareGrant, error) {
	out := make([]models.ShareGrant, 0)
	for _, grant := range r.grants {
		if grant.DeletedAt.Valid || grant.FileID == nil || *grant.FileID != fileID {
			continue
		}
		out = append(out, grant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShareRepo) ListActiveByFolders(_ context.Context, _ *gorm.DB, folderIDs []uint) ([]models.ShareGrant, error) {
	out := make([]models.ShareGrant, 0)
	for _, grant := range r.grants {
		if grant.DeletedAt.Valid || grant.FolderID == nil {
			continue
		}
		for _, id := range folderIDs {
			if *grant.FolderID == id {
				out = append(out, grant)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShareRepo) ListActiveByRecipient(_ context.Context, _ *gorm.DB, userID uint) ([]models.ShareGrant, error) {
	out := make([]models.ShareGrant, 0)
	for _, grant := range r.grants {
		if grant.DeletedAt.Valid || grant.RecipientID == nil || *grant.RecipientID != userID {
			continue
		}
		out = append(out, grant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShareRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, grantIDs []uint, deletedAt time.Time) error {
	for _, id := range grantIDs {
		grant, ok := r.grants[id]
		if !ok {
			continue
		}
		grant.DeletedAt = gorm.DeletedAt{Time: deletedAt, Valid: true}
		r.grants[id] = grant
	}
	return nil
}

func (r *fakeShareRepo) SoftDeleteByTargets(_ context.Context, _ *gorm.DB, fileIDs, folderIDs []uint, deletedAt time.Time) error {
	for id, grant := range r.grants {
		hit := false
		if grant.FileID != nil {
			for _, fid := range fileIDs {
				if *grant.FileID == fid {
					hit = true
					break
				}
			}
		}
		if grant.FolderID != nil {
			for _, fid := range folderIDs {
				if *grant.FolderID == fid {
					hit = true
					break
				}
			}
		}
		if hit {
			grant.DeletedAt = gorm.DeletedAt{Time: deletedAt, Valid: true}
			r.grants[id] = grant
		}
	}
	return nil
}

func (r *fakeShareRepo) UnscopedDeleteByFileIDs(_ context.Context, _ *gorm.DB, fileIDs []uint) error {
	for id, grant := range r.grants {
		if grant.FileID == nil {
			continue
		}
		for _, fid := range fileIDs {
			if *grant.FileID == fid {
				delete(r.grants, id)
				break
			}
		}
	}
	return nil
}

func (r *fakeShareRepo) SoftDeleteExpiredBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	var n int64
	for id, grant := range r.grants {
		if grant.DeletedAt.Valid || grant.ExpiresAt == nil || !grant.ExpiresAt.Before(cutoff) {
			continue
		}
		grant.DeletedAt = gorm.DeletedAt{Time: cutoff, Valid: true}
		r.grants[id] = grant
		n++
	}
	return n, nil
}

type fakeContactRepo struct {
	contacts map[uint]models.Contact
	groups   map[uint]models.ContactGroup
	nextID   uint
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[uint]models.Contact{}, groups: map[uint]models.ContactGroup{}, nextID: 1}
}

func (r *fakeContactRepo) addContact(userID uint, firstName, email string) models.Contact {
	contact := models.Contact{ID: r.nextID, UserID: userID, FirstName: firstName, Email: email}
	r.contacts[contact.ID] = contact
	r.nextID++
	return contact
}

func (r *fakeContactRepo) addGroup(userID uint, name string, members ...models.Contact) models.ContactGroup {
	group := models.ContactGroup{ID: r.nextID, UserID: userID, Name: name, Contacts: members}
	r.groups[group.ID] = group
	r.nextID++
	return group
}

func (r *fakeContactRepo) Create(_ context.Context, _ *gorm.DB, contact *models.Contact) error {
	if contact.ID == 0 {
		contact.ID = r.nextID
		r.nextID++
	}
	r.contacts[contact.ID] = *contact
	return nil
}

func (r *fakeContactRepo) GetByIDAndUser(_ context.Context, _ *gorm.DB, contactID, userID uint) (models.Contact, error) {
	contact, ok := r.contacts[contactID]
	if !ok || contact.UserID != userID {
		return models.Contact{}, gorm.ErrRecordNotFound
	}
	return contact, nil
}

func (r *fakeContactRepo) ListByUser(_ context.Context, _ *gorm.DB, userID uint, limit int) ([]models.Contact, error) {
	out := make([]models.Contact, 0)
	for _, contact := range r.contacts {
		if contact.UserID == userID {
			out = append(out, contact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeContactRepo) ListByGroupAndUser(_ context.Context, _ *gorm.DB, groupID, userID uint) ([]models.Contact, error) {
	group, ok := r.groups[groupID]
	if !ok || group.UserID != userID {
		return nil, nil
	}
	return group.Contacts, nil
}

func (r *fakeContactRepo) SoftDeleteByID(_ context.Context, _ *gorm.DB, contactID, userID uint) error {
	contact, ok := r.contacts[contactID]
	if ok && contact.UserID == userID {
		delete(r.contacts, contactID)
	}
	return nil
}

func (r *fakeContactRepo) CreateGroup(_ context.Context, _ *gorm.DB, group *models.ContactGroup) error {
	if group.ID == 0 {
		group.ID = r.nextID
		r.nextID++
	}
	r.groups[group.ID] = *group
	return nil
}

func (r *fakeContactRepo) GetGroupByIDAndUser(_ context.Context, _ *gorm.DB, groupID, userID uint) (models.ContactGroup, error) {
	group, ok := r.groups[groupID]
	if !ok || group.UserID != userID {
		return models.ContactGroup{}, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (r *fakeContactRepo) ListGroupsByUser(_ context.Context, _ *gorm.DB, userID uint) ([]models.ContactGroup, error) {
	out := make([]models.ContactGroup, 0)
	for _, group := range r.groups {
		if group.UserID == userID {
			out = append(out, group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContactRepo) AddToGroup(_ context.Context, _ *gorm.DB, group *models.ContactGroup, contact models.Contact) error {
	stored := r.groups[group.ID]
	stored.Contacts = append(stored.Contacts, contact)
	r.groups[group.ID] = stored
	return nil
}

func (r *fakeContactRepo) SoftDeleteGroupByID(_ context.Context, _ *gorm.DB, groupID, userID uint) error {
	group, ok := r.groups[groupID]
	if ok && group.UserID == userID {
		delete(r.groups, groupID)
	}
	return nil
}

func grantForFolder(folderID, ownerID uint, email string) models.ShareGrant {
	id := folderID
	contact := models.Contact{ID: folderID*100 + 1, UserID: ownerID, FirstName: email, Email: email}
	return models.ShareGrant{
		Slug:      "g-folder-" + email,
		FolderID:  &id,
		ContactID: contact.ID,
		Contact:   contact,
	}
}

func grantForFile(fileID, ownerID uint, email string) models.ShareGrant {
	id := fileID
	contact := models.Contact{ID: fileID*100 + 2, UserID: ownerID, FirstName: email, Email: email}
	return models.ShareGrant{
		Slug:      "g-file-" + email,
		FileID:    &id,
		ContactID: contact.ID,
		Contact:   contact,
	}
}

type fakeSizeCache struct {
	sizes       map[uint]int64
	invalidated []uint
}

func newFakeSizeCache() *fakeSizeCache {
	return &fakeSizeCache{sizes: map[uint]int64{}}
}

func (c *fakeSizeCache) GetFolderSize(_ context.Context, folderID uint) (int64, bool, error) {
	size, ok := c.sizes[folderID]
	return size, ok, nil
}

func (c *fakeSizeCache) SetFolderSize(_ context.Context, folderID uint, size int64) error {
	c.sizes[folderID] = size
	return nil
}

func (c *fakeSizeCache) InvalidateFolders(_ context.Context, folderIDs []uint) error {
	for _, id := range folderIDs {
		delete(c.sizes, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}
