// Package catalog is a small host application for the taggable library:
// posts and books that carry tags, and users who attribute tags to books.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"github.com/kutbudev/taggable/pkg/taggable"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnknownType = errors.New("unknown taggable type")
)

// Service owns the catalog registrations and the records they describe.
type Service struct {
	db    *gorm.DB
	log   *slog.Logger
	tags  *taggable.Tags
	posts *taggable.Model
	books *taggable.Model
	users *taggable.Tagger
}

// NewService registers posts and books as taggable, books by users.
func NewService(db *gorm.DB, tags *taggable.Tags, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	users := taggable.NewTagger(db, taggable.TypeName(&User{}))

	posts, err := taggable.Register(db, tags, taggable.Config{Resource: &Post{}})
	if err != nil {
		return nil, err
	}
	books, err := taggable.Register(db, tags, taggable.Config{Resource: &Book{}, By: []*taggable.Tagger{users}})
	if err != nil {
		return nil, err
	}
	return &Service{db: db, log: log, tags: tags, posts: posts, books: books, users: users}, nil
}

func (s *Service) Tags() *taggable.Tags    { return s.tags }
func (s *Service) Users() *taggable.Tagger { return s.users }
func (s *Service) Types() []string         { return []string{s.posts.Type(), s.books.Type()} }

// Model returns the registration of typ.
func (s *Service) Model(typ string) (*taggable.Model, error) {
	_, m, err := s.newItem(typ)
	return m, err
}

func (s *Service) newItem(typ string) (Item, *taggable.Model, error) {
	switch typ {
	case s.posts.Type():
		return &Post{}, s.posts, nil
	case s.books.Type():
		return &Book{}, s.books, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

// Create stores a new item titled title with the tags of tagList.
func (s *Service) Create(ctx context.Context, typ, title, tagList string) (Item, error) {
	item, m, err := s.newItem(typ)
	if err != nil {
		return nil, err
	}
	switch it := item.(type) {
	case *Post:
		it.Title = title
	case *Book:
		it.Title = title
	}
	item.bind(m, item)
	if err := item.Taggings().SetTagsList(ctx, tagList); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", typ, err)
	}
	s.log.Info("item created", "type", typ, "id", item.TaggableID())
	return item, nil
}

// Find loads one item and binds its tag collection.
func (s *Service) Find(ctx context.Context, typ string, id uuid.UUID) (Item, error) {
	item, m, err := s.newItem(typ)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Where("id = ?", id).Take(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %s: %w", typ, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", typ, err)
	}
	item.bind(m, item)
	return item, nil
}

// List returns every item of typ, oldest first.
func (s *Service) List(ctx context.Context, typ string) ([]Item, error) {
	return s.list(ctx, typ, nil)
}

// Tagged returns the items of typ carrying any of the named tags.
func (s *Service) Tagged(ctx context.Context, typ string, names ...string) ([]Item, error) {
	m, err := s.Model(typ)
	if err != nil {
		return nil, err
	}
	ids, err := m.TaggedWith(ctx, taggable.Names(names...)...)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Item{}, nil
	}
	return s.list(ctx, typ, ids)
}

func (s *Service) list(ctx context.Context, typ string, ids []uuid.UUID) ([]Item, error) {
	_, m, err := s.newItem(typ)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("created_at, id")
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}

	var items []Item
	switch typ {
	case s.posts.Type():
		var posts []*Post
		err = q.Find(&posts).Error
		for _, p := range posts {
			items = append(items, p)
		}
	default:
		var books []*Book
		err = q.Find(&books).Error
		for _, b := range books {
			items = append(items, b)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", typ, err)
	}
	for _, item := range items {
		item.bind(m, item)
	}
	return items, nil
}

// Delete removes an item together with its taggings.
func (s *Service) Delete(ctx context.Context, typ string, id uuid.UUID) error {
	item, err := s.Find(ctx, typ, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(item).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", typ, err)
	}
	s.log.Info("item deleted", "type", typ, "id", id)
	return nil
}

// CreateUser stores a new user.
func (s *Service) CreateUser(ctx context.Context, login string) (*User, error) {
	u := &User{Login: login}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", login, err)
	}
	return u, nil
}

// FindUser looks a user up by ID or, failing that, by login.
func (s *Service) FindUser(ctx context.Context, ref string) (*User, error) {
	var u User
	q := s.db.WithContext(ctx)
	if id, err := uuid.Parse(ref); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("login = ?", ref)
	}
	err := q.Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// Attribute tags an item on behalf of a user.
func (s *Service) Attribute(ctx context.Context, u *User, item Item, names ...string) ([]*models.Tag, error) {
	return s.users.Attribute(ctx, u, item.Taggings(), taggable.Names(names...)...)
}
