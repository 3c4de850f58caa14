package models

import (
	"time"

	"moneta/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the common columns of mutable, soft-deletable rows.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a UUIDv7 to new records.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.ID = ensureID(b.ID)
	return nil
}

// Entry is the key of append-only rows such as ledger entries and
// snapshots. They are never updated or soft-deleted.
type Entry struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate assigns a UUIDv7 to new entries.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	e.ID = ensureID(e.ID)
	return nil
}

func ensureID(id string) string {
	if id == "" {
		return uuid.New()
	}
	return id
}
