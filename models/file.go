package models

import (
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
)

type File struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Description    string         `gorm:"type:varchar(1500)" json:"description"`
	Slug           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	FileUUID       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"file_uuid"`
	StoragePath    string         `gorm:"type:varchar(1000);not null" json:"-"`
	FileSize       int64          `gorm:"not null" json:"file_size"`
	MimeType       string         `gorm:"type:varchar(100)" json:"mime_type"`
	IsImage        bool           `gorm:"default:false" json:"is_image"`
	ThumbnailPath  string         `gorm:"type:varchar(1000)" json:"-"`
	FolderID       *uint          `gorm:"index" json:"folder_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	IsFavorite     bool           `gorm:"default:false" json:"is_favorite"`
	SharedAt       *time.Time     `json:"shared_at"`
	ShareExpiresAt *time.Time     `json:"share_expires_at"`
	ShareUUID      string         `gorm:"type:varchar(36);uniqueIndex" json:"share_uuid"`
	DownloadCount  uint           `gorm:"default:0" json:"download_count"`
	DownloadLimit  *uint          `json:"download_limit"`
	ExpiresAt      *time.Time     `json:"expires_at"`
	LastAccessedAt *time.Time     `json:"last_accessed_at"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	ArchivedAt     *time.Time     `gorm:"index" json:"archived_at"`
}

// Extension returns the lowercased extension without the leading dot.
func (f *File) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// BaseName returns the display name without its extension.
func (f *File) BaseName() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

func (f *File) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && now.After(*f.ExpiresAt)
}

func (f *File) Archived() bool { return f.ArchivedAt != nil }

func (f *File) TargetKind() string      { return TargetFile }
func (f *File) TargetID() uint          { return f.ID }
func (f *File) OwnerID() uint           { return f.UserID }
func (f *File) ContainingFolder() *uint { return f.FolderID }
func (f *File) Deleted() bool           { return f.DeletedAt.Valid }
func (f *File) SharedSince() *time.Time { return f.SharedAt }
func (f *File) ShareExpiry() *time.Time { return f.ShareExpiresAt }
