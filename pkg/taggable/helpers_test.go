package taggable

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/config"
	"github.com/kutbudev/taggable/pkg/models"
	"github.com/kutbudev/taggable/pkg/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type post struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func (p *post) TaggableID() uuid.UUID { return p.ID }

type book struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title string
}

func (b *book) TaggableID() uuid.UUID { return b.ID }

type user struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Login string
}

func (u *user) TaggerID() uuid.UUID { return u.ID }

type fixture struct {
	db    *gorm.DB
	tags  *Tags
	posts *Model
	books *Model
	users *Tagger
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDatabase(&config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Log:      config.LogConfig{Level: "error"},
	}, &post{}, &book{}, &user{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })
	return db
}

func newFixture(t *testing.T, opts ...TagsOption) *fixture {
	t.Helper()
	db := newTestDB(t)
	tags := NewTags(db, append([]TagsOption{WithLogger(discardLogger())}, opts...)...)
	users := NewTagger(db, "users")

	posts, err := Register(db, tags, Config{Resource: &post{}})
	require.NoError(t, err)
	books, err := Register(db, tags, Config{Resource: &book{}, By: []*Tagger{users}})
	require.NoError(t, err)

	return &fixture{db: db, tags: tags, posts: posts, books: books, users: users}
}

func (f *fixture) createPost(t require.TestingT, name string) *post {
	p := &post{ID: uuid.New(), Name: name}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) createBook(t require.TestingT, title string) *book {
	b := &book{ID: uuid.New(), Title: title}
	require.NoError(t, f.db.Create(b).Error)
	return b
}

func (f *fixture) createUser(t require.TestingT, login string) *user {
	u := &user{ID: uuid.New(), Login: login}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// storedTagNames reads the owner's tag names straight from the database.
func (f *fixture) storedTagNames(t require.TestingT, typ string, owner uuid.UUID) []string {
	var names []string
	err := f.db.Table("taggings").
		Joins("JOIN tags ON tags.id = taggings.tag_id").
		Where("taggings.taggable_type = ? AND taggings.taggable_id = ?", typ, owner).
		Order("taggings.id").
		Pluck("tags.name", &names).Error
	require.NoError(t, err)
	return names
}

func (f *fixture) countTags(t require.TestingT) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.Tag{}).Count(&n).Error)
	return n
}

// countWrites counts insert and delete statements against the taggings table.
func countWrites(t *testing.T, db *gorm.DB) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	count := func(tx *gorm.DB) {
		if tx.Statement.Table == "taggings" {
			n.Add(1)
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count_create", count))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:count_delete", count))
	return &n
}

// failInserts rejects every insert into the taggings table until the returned
// func is called.
func failInserts(t *testing.T, db *gorm.DB) (restore func()) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == "taggings" {
			_ = tx.AddError(errors.New("insert refused"))
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", fail))
	return func() {
		require.NoError(t, db.Callback().Create().Remove("test:fail_create"))
	}
}

func tagNames(rows []*models.Tagging) []string {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Tag.Name
	}
	return names
}
