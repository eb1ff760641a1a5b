package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TargetFile   = "file"
	TargetFolder = "folder"
)

// ShareTarget is the common surface of the two shareable resource
// kinds. A grant binds a contact to exactly one target; inherited
// access flows downward through ContainingFolder links.
type ShareTarget interface {
	TargetKind() string
	TargetID() uint
	OwnerID() uint
	ContainingFolder() *uint
	Deleted() bool
	SharedSince() *time.Time
	ShareExpiry() *time.Time
}

// ShareGrant is one row of the grant ledger: a contact (and the
// account resolved from its email at creation time, if any) granted
// access to a file or a folder. FileID and FolderID are mutually
// exclusive.
type ShareGrant struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"slug"`
	FileID      *uint          `gorm:"index" json:"file_id"`
	FolderID    *uint          `gorm:"index" json:"folder_id"`
	ContactID   uint           `gorm:"not null;index" json:"contact_id"`
	RecipientID *uint          `gorm:"index" json:"recipient_id"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	File      *File   `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Folder    *Folder `gorm:"foreignKey:FolderID" json:"folder,omitempty"`
	Contact   Contact `gorm:"foreignKey:ContactID" json:"contact"`
	Recipient *User   `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

func (g *ShareGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}
