package models

import (
	"time"

	"github.com/google/uuid"
)

// Tagging is the join row between one taggable resource and one tag.
// TaggableType carries the identifier the resource type was registered with,
// so a single table serves every taggable type.
type Tagging struct {
	ID           uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	TagID        uuid.UUID  `json:"tag_id" gorm:"not null;type:uuid;index:idx_taggings_tag"`
	TaggableType string     `json:"taggable_type" gorm:"not null;size:64;index:idx_taggings_owner,priority:1"`
	TaggableID   uuid.UUID  `json:"taggable_id" gorm:"not null;type:uuid;index:idx_taggings_owner,priority:2"`
	TaggerType   *string    `json:"tagger_type,omitempty" gorm:"size:64;index:idx_taggings_tagger,priority:1"`
	TaggerID     *uuid.UUID `json:"tagger_id,omitempty" gorm:"type:uuid;index:idx_taggings_tagger,priority:2"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null"`

	// Foreign Key Relations
	Tag *Tag `json:"tag,omitempty" gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (Tagging) TableName() string {
	return "taggings"
}

// Persisted reports whether the row has been written to storage.
func (t *Tagging) Persisted() bool {
	return t.ID != 0
}

// Attributed reports whether a tagger is stamped on the row.
func (t *Tagging) Attributed() bool {
	return t.TaggerID != nil
}
