package models

import (
	"time"

	"gorm.io/gorm"
)

type Folder struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Description    string         `gorm:"type:varchar(255)" json:"description"`
	Slug           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	ParentID       *uint          `gorm:"index" json:"parent_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	IsFavorite     bool           `gorm:"default:false" json:"is_favorite"`
	SharedAt       *time.Time     `json:"shared_at"`
	ShareExpiresAt *time.Time     `json:"share_expires_at"`
	ShareUUID      string         `gorm:"type:varchar(36);uniqueIndex" json:"share_uuid"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Folder) TargetKind() string        { return TargetFolder }
func (f *Folder) TargetID() uint            { return f.ID }
func (f *Folder) OwnerID() uint             { return f.UserID }
func (f *Folder) ContainingFolder() *uint   { return f.ParentID }
func (f *Folder) Deleted() bool             { return f.DeletedAt.Valid }
func (f *Folder) SharedSince() *time.Time   { return f.SharedAt }
func (f *Folder) ShareExpiry() *time.Time   { return f.ShareExpiresAt }
