package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidName is returned when a tag name is empty after trimming.
var ErrInvalidName = errors.New("tag name is blank")

// Tag represents a tag in the system. Names are unique and always stored trimmed.
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_tags_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Tag) TableName() string {
	return "tags"
}

// NormalizeName trims a tag name and rejects blank results.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// SetName trims and assigns the name.
func (t *Tag) SetName(name string) error {
	n, err := NormalizeName(name)
	if err != nil {
		return err
	}
	t.Name = n
	return nil
}

// Equal reports whether both tags carry the same trimmed name.
func (t *Tag) Equal(other *Tag) bool {
	if t == nil || other == nil {
		return t == other
	}
	return strings.TrimSpace(t.Name) == strings.TrimSpace(other.Name)
}

// BeforeCreate hooks
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the stored name trimmed, whichever path wrote it.
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	return t.SetName(t.Name)
}
