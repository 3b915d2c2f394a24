package taggable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// resolveAttempts bounds the lookup/create loop in ResolveOrCreate.
const resolveAttempts = 3

// Tags is the tag registry: the canonical set of tags keyed by trimmed name.
type Tags struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *slog.Logger
}

// TagsOption configures NewTags.
type TagsOption func(*Tags)

// WithCache keeps resolved tags in memory for ttl. Zero disables the cache.
func WithCache(ttl time.Duration) TagsOption {
	return func(t *Tags) {
		if ttl <= 0 {
			t.cache = nil
			return
		}
		t.cache = cache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the logger used by the registry and every Model built on it.
func WithLogger(l *slog.Logger) TagsOption {
	return func(t *Tags) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTags creates a registry over db.
func NewTags(db *gorm.DB, opts ...TagsOption) *Tags {
	t := &Tags{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ResolveOrCreate returns the tag named by the trimmed name, creating it on
// first use. Concurrent callers racing on an unseen name converge on the
// single row the unique index lets through.
func (t *Tags) ResolveOrCreate(ctx context.Context, name string) (tag *models.Tag, err error) {
	n, err := models.NormalizeName(name)
	if err != nil {
		return nil, &InvalidNameError{Name: name}
	}
	if cached, ok := t.cached(n); ok {
		return cached, nil
	}

	ctx, span := startSpan(ctx, "taggable.ResolveOrCreate", attribute.String("tag.name", n))
	defer func() { endSpan(span, err) }()

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		found, err := t.find(ctx, n)
		if err == nil {
			t.remember(found)
			return found, nil
		}
		if !errors.Is(err, ErrTagNotFound) {
			return nil, err
		}

		created := &models.Tag{Name: n}
		err = t.db.WithContext(ctx).Create(created).Error
		if err == nil {
			t.log.Debug("tag created", "name", n, "id", created.ID)
			t.remember(created)
			return created, nil
		}
		if !IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create tag %q: %w", n, err)
		}
		t.log.Debug("tag created concurrently, retrying lookup", "name", n, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("failed to resolve tag %q after %d attempts", n, resolveAttempts)
}

// Find looks a tag up by name without creating it.
func (t *Tags) Find(ctx context.Context, name string) (*models.Tag, error) {
	n, err := models.NormalizeName(name)
	if err != nil {
		return nil, &InvalidNameError{Name: name}
	}
	if cached, ok := t.cached(n); ok {
		return cached, nil
	}
	tag, err := t.find(ctx, n)
	if err != nil {
		return nil, err
	}
	t.remember(tag)
	return tag, nil
}

// Get looks a tag up by ID.
func (t *Tags) Get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	err := t.db.WithContext(ctx).Where("id = ?", id).Take(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// List returns every tag ordered by name.
func (t *Tags) List(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := t.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Rename trims newName and stores it on tag. Renaming onto a name another tag
// already owns fails with the storage error.
func (t *Tags) Rename(ctx context.Context, tag *models.Tag, newName string) error {
	n, err := models.NormalizeName(newName)
	if err != nil {
		return &InvalidNameError{Name: newName}
	}
	if tag == nil || tag.ID == uuid.Nil {
		return ErrTagNotFound
	}
	old := tag.Name
	if old == n {
		return nil
	}

	result := t.db.WithContext(ctx).Model(&models.Tag{ID: tag.ID, Name: n}).Update("name", n)
	if result.Error != nil {
		return fmt.Errorf("failed to rename tag %q: %w", old, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	tag.Name = n
	t.forget(old, n)
	t.log.Info("tag renamed", "id", tag.ID, "from", old, "to", n)
	return nil
}

// Resolve maps refs to tags, creating named tags as needed. The result holds
// each tag once, in first-seen order.
func (t *Tags) Resolve(ctx context.Context, refs []Ref) ([]*models.Tag, error) {
	return t.collect(ctx, refs, true)
}

// lookup is Resolve without creation: names nobody uses are skipped.
func (t *Tags) lookup(ctx context.Context, refs []Ref) ([]*models.Tag, error) {
	return t.collect(ctx, refs, false)
}

func (t *Tags) collect(ctx context.Context, refs []Ref, create bool) ([]*models.Tag, error) {
	tags := make([]*models.Tag, 0, len(refs))
	seen := make(map[uuid.UUID]struct{}, len(refs))
	for _, ref := range refs {
		tag, err := t.resolveRef(ctx, ref, create)
		if errors.Is(err, ErrTagNotFound) && !create {
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (t *Tags) resolveRef(ctx context.Context, ref Ref, create bool) (*models.Tag, error) {
	if ref.tag != nil && ref.tag.ID != uuid.Nil {
		return ref.tag, nil
	}
	name := ref.String()
	if create {
		return t.ResolveOrCreate(ctx, name)
	}
	return t.Find(ctx, name)
}

func (t *Tags) find(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := t.db.WithContext(ctx).Where("name = ?", name).Take(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag %q: %w", name, err)
	}
	return &tag, nil
}

func (t *Tags) cached(name string) (*models.Tag, bool) {
	if t.cache == nil {
		return nil, false
	}
	v, ok := t.cache.Get(name)
	if !ok {
		return nil, false
	}
	tag := v.(models.Tag)
	return &tag, true
}

func (t *Tags) remember(tag *models.Tag) {
	if t.cache == nil {
		return
	}
	t.cache.SetDefault(tag.Name, *tag)
}

func (t *Tags) forget(names ...string) {
	if t.cache == nil {
		return
	}
	for _, n := range names {
		t.cache.Delete(n)
	}
}
