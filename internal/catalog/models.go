package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/taggable"
	"gorm.io/gorm"
)

// Item is a taggable catalog entry.
type Item interface {
	taggable.Resource
	Taggings() *taggable.Taggings
	Label() string
	bind(m *taggable.Model, self taggable.Resource)
}

// tagged carries the tag collection of a catalog model and flushes it from
// the model's gorm hooks.
type tagged struct {
	tags *taggable.Taggings
}

// Taggings returns the bound collection, nil before the item is bound.
func (t *tagged) Taggings() *taggable.Taggings { return t.tags }

func (t *tagged) bind(m *taggable.Model, self taggable.Resource) {
	if t.tags == nil || t.tags.Model() != m {
		t.tags = m.For(self)
	}
}

// AfterCreate writes the taggings collected while the item was new.
func (t *tagged) AfterCreate(tx *gorm.DB) error {
	if t.tags == nil {
		return nil
	}
	return t.tags.SaveTx(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}))
}

// AfterDelete removes the item's taggings with it.
func (t *tagged) AfterDelete(tx *gorm.DB) error {
	if t.tags == nil {
		return nil
	}
	return t.tags.Model().DestroyTx(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), t.tags.Owner())
}

// AfterFind drops whatever the collection cached about the previous state.
func (t *tagged) AfterFind(*gorm.DB) error {
	if t.tags != nil {
		t.tags.Reset()
	}
	return nil
}

// Post is a blog post, taggable by anyone.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	tagged
}

func (p *Post) TaggableID() uuid.UUID { return p.ID }
func (p *Post) Label() string         { return p.Title }

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Book is taggable by users, who may attribute the tags they add.
type Book struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title" gorm:"not null"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	tagged
}

func (b *Book) TaggableID() uuid.UUID { return b.ID }
func (b *Book) Label() string         { return b.Title }

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User is the tagger of books.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Login     string    `json:"login" gorm:"not null;uniqueIndex:idx_users_login"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) TaggerID() uuid.UUID { return u.ID }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Models lists the catalog tables for migration.
func Models() []any {
	return []any{&Post{}, &Book{}, &User{}}
}
