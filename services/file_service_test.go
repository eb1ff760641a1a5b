package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mybox/config"
)

type fileFixture struct {
	svc     FileService
	folders *fakeFolderRepo
	files   *fakeFileRepo
	shares  *fakeShareRepo
	sizes   *fakeSizeCache
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()
	setTestConfig(t)
	f := &fileFixture{
		folders: newFakeFolderRepo(),
		files:   newFakeFileRepo(),
		shares:  newFakeShareRepo(),
		sizes:   newFakeSizeCache(),
	}
	f.svc = NewFileService(&fakeTxManager{}, f.folders, f.files, f.shares, f.sizes)
	return f
}

func TestUploadStoresContentAndMetadata(t *testing.T) {
	f := newFileFixture(t)
	content := []byte("hello world")

	file, err := f.svc.Upload(context.Background(), 1, UploadInput{
		Name:     "notes.txt",
		MimeType: "text/plain",
		Content:  bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if file.FileSize != int64(len(content)) {
		t.Fatalf("size mismatch: %d", file.FileSize)
	}
	if file.Slug == "" || file.FileUUID == "" || file.ShareUUID == "" {
		t.Fatal("expected slug, file uuid and share uuid")
	}
	if !strings.HasPrefix(file.StoragePath, filepath.Join("uploads", "u1")) {
		t.Fatalf("storage path must be owner partitioned: %q", file.StoragePath)
	}
	if strings.Contains(file.StoragePath, "notes") {
		t.Fatal("storage path must not derive from the display name")
	}

	stored, err := os.ReadFile(filepath.Join(config.AppConfig.Storage.BasePath, file.StoragePath))
	if err != nil {
		t.Fatalf("content not on disk: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("stored content differs")
	}
}

func TestUploadRejectsForbiddenExtensions(t *testing.T) {
	f := newFileFixture(t)
	for _, name := range []string{"evil.exe", "page.html", "script.Sh", "noextension"} {
		_, err := f.svc.Upload(context.Background(), 1, UploadInput{Name: name, Content: bytes.NewReader(nil)})
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}
	if len(f.files.files) != 0 {
		t.Fatal("rejected uploads must create nothing")
	}
}

func TestUploadEnforcesSizeCeiling(t *testing.T) {
	f := newFileFixture(t)
	config.AppConfig.Storage.MaxFileSize = 8

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		Name:    "big.txt",
		Content: bytes.NewReader([]byte("way too large for that")),
	})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(config.AppConfig.Storage.BasePath, "uploads"))
	if countFilesUnder(t, config.AppConfig.Storage.BasePath) != 0 {
		t.Fatalf("oversized content must be removed, found entries %v", entries)
	}
}

func TestUploadRollsBackContentOnMetadataFailure(t *testing.T) {
	f := newFileFixture(t)
	f.files.createErr = errors.New("db down")

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		Name:    "notes.txt",
		Content: bytes.NewReader([]byte("hello")),
	})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if countFilesUnder(t, config.AppConfig.Storage.BasePath) != 0 {
		t.Fatal("content must not outlive a failed metadata commit")
	}
}

func TestUploadRetriesSlugOnCollision(t *testing.T) {
	f := newFileFixture(t)
	f.files.dupNext = 1

	file, err := f.svc.Upload(context.Background(), 1, UploadInput{
		Name:    "notes.txt",
		Content: bytes.NewReader([]byte("hello")),
	})
	if err != nil {
		t.Fatalf("expected slug retry to succeed: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("file not created")
	}
}

func TestUploadDuplicateNameInFolder(t *testing.T) {
	f := newFileFixture(t)
	f.files.addFile(1, "notes.txt", nil, 1)

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		Name:    "notes.txt",
		Content: bytes.NewReader([]byte("hello")),
	})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRenameFilePreservesExtension(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "report.pdf", nil, 1)
	oldSlug := file.Slug

	renamed, err := f.svc.RenameFile(context.Background(), 1, file.ID, "rapport final", "v2")
	if err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if renamed.Name != "rapport final.pdf" {
		t.Fatalf("extension must be preserved: %q", renamed.Name)
	}
	if renamed.Slug == oldSlug {
		t.Fatal("slug must regenerate when the base name changes")
	}

	again, err := f.svc.RenameFile(context.Background(), 1, file.ID, "rapport final", "v3")
	if err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if again.Slug != renamed.Slug {
		t.Fatal("slug must not change when only the description changes")
	}
}

func TestMoveFileChecksTargetFolder(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "notes.txt", nil, 1)
	dest := f.folders.addFolder(1, "dest", nil)

	moved, err := f.svc.MoveFile(context.Background(), 1, file.ID, &dest.ID)
	if err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if moved.FolderID == nil || *moved.FolderID != dest.ID {
		t.Fatal("file not moved")
	}

	missing := dest.ID + 100
	_, err = f.svc.MoveFile(context.Background(), 1, file.ID, &missing)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindNotFound {
		t.Fatalf("expected not found for missing target, got %v", err)
	}
}

func TestDeleteFileRevokesGrants(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "notes.txt", nil, 1)
	grant := f.shares.addGrant(grantForFile(file.ID, 1, "amy@example.com"))

	if err := f.svc.DeleteFile(context.Background(), 1, file.ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if !f.files.files[file.ID].DeletedAt.Valid {
		t.Fatal("file should be soft-deleted")
	}
	if f.files.files[file.ID].SharedAt != nil {
		t.Fatal("shared_at should be cleared on delete")
	}
	if !f.shares.grants[grant.ID].DeletedAt.Valid {
		t.Fatal("grants on the file should be revoked")
	}

	if err := f.svc.DeleteFile(context.Background(), 1, file.ID); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
}

func TestDownloadMetersAccess(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "notes.txt", nil, 1)

	got, path, err := f.svc.Download(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got.DownloadCount != 1 {
		t.Fatalf("expected download count 1, got %d", got.DownloadCount)
	}
	if got.LastAccessedAt == nil {
		t.Fatal("last access must be recorded")
	}
	if !strings.HasPrefix(path, config.AppConfig.Storage.BasePath) {
		t.Fatalf("download path must live under the base path: %q", path)
	}
}

func TestDownloadRespectsExpiry(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "notes.txt", nil, 1)
	past := time.Now().Add(-time.Minute)
	if err := f.svc.SetDownloadPolicy(context.Background(), 1, file.ID, nil, &past); err != nil {
		t.Fatalf("SetDownloadPolicy: %v", err)
	}

	_, _, err := f.svc.Download(context.Background(), 1, file.ID)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindExpired {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestDownloadRespectsLimit(t *testing.T) {
	f := newFileFixture(t)
	file := f.files.addFile(1, "notes.txt", nil, 1)
	limit := uint(1)
	if err := f.svc.SetDownloadPolicy(context.Background(), 1, file.ID, &limit, nil); err != nil {
		t.Fatalf("SetDownloadPolicy: %v", err)
	}

	if _, _, err := f.svc.Download(context.Background(), 1, file.ID); err != nil {
		t.Fatalf("first download within limit: %v", err)
	}
	_, _, err := f.svc.Download(context.Background(), 1, file.ID)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func countFilesUnder(t *testing.T, root string) int {
	t.Helper()
	count := 0
	filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}
