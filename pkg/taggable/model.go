package taggable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"gorm.io/gorm"
)

// Resource is implemented by host models that own tag associations.
// uuid.Nil marks a resource that has not been persisted yet.
type Resource interface {
	TaggableID() uuid.UUID
}

// Config describes one taggable type.
type Config struct {
	// Type is stored in taggings.taggable_type. Defaults to TypeName(Resource).
	Type string
	// Resource is a sample value used to derive Type.
	Resource any
	// By lists the taggers allowed to attribute taggings on this type.
	By []*Tagger
}

// Model is a registered taggable type.
type Model struct {
	db   *gorm.DB
	tags *Tags
	typ  string
	log  *slog.Logger
}

// Register makes a resource type taggable and grants every tagger in cfg.By
// the right to attribute tags on it.
func Register(db *gorm.DB, tags *Tags, cfg Config) (*Model, error) {
	typ := cfg.Type
	if typ == "" {
		typ = TypeName(cfg.Resource)
	}
	if typ == "" {
		return nil, errors.New("taggable: Config needs a Type or a named Resource")
	}
	m := &Model{
		db:   db,
		tags: tags,
		typ:  typ,
		log:  tags.log.With("taggable_type", typ),
	}
	for _, tagger := range cfg.By {
		tagger.Register(m)
	}
	return m, nil
}

// Type is the identifier stored in taggings.taggable_type.
func (m *Model) Type() string { return m.typ }

// Tags returns the registry the model resolves names with.
func (m *Model) Tags() *Tags { return m.tags }

// Taggable always reports true; it lets callers holding an interface probe
// for the capability.
func (m *Model) Taggable() bool { return true }

// For returns the association collection of one resource instance.
// Keep the returned value alongside the instance: pending changes live in it.
func (m *Model) For(r Resource) *Taggings {
	return &Taggings{model: m, owner: r}
}

// TaggedWith returns the IDs of resources of this type tagged with any of the
// given tags. Names that no tag carries are ignored.
func (m *Model) TaggedWith(ctx context.Context, refs ...Ref) ([]uuid.UUID, error) {
	tags, err := m.tags.lookup(ctx, refs)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return []uuid.UUID{}, nil
	}
	tagIDs := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}

	var ids []uuid.UUID
	err = m.db.WithContext(ctx).
		Model(&models.Tagging{}).
		Where("taggable_type = ? AND tag_id IN ?", m.typ, tagIDs).
		Distinct("taggable_id").
		Order("taggable_id").
		Pluck("taggable_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tagged %s: %w", m.typ, err)
	}
	return ids, nil
}

// Destroy deletes every tagging owned by r. Host models call it when they are
// deleted; tags themselves are kept.
func (m *Model) Destroy(ctx context.Context, r Resource) error {
	return m.DestroyTx(ctx, m.db, r)
}

// DestroyTx is Destroy on tx.
func (m *Model) DestroyTx(ctx context.Context, tx *gorm.DB, r Resource) error {
	id := r.TaggableID()
	if id == uuid.Nil {
		return nil
	}
	result := tx.WithContext(ctx).
		Where("taggable_type = ? AND taggable_id = ?", m.typ, id).
		Delete(&models.Tagging{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete taggings of %s %s: %w", m.typ, id, result.Error)
	}
	m.log.Debug("taggings destroyed with owner", "owner", id, "rows", result.RowsAffected)
	return nil
}
