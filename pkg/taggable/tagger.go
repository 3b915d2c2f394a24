package taggable

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is implemented by host models that act as taggers.
type Actor interface {
	TaggerID() uuid.UUID
}

// Tagger is an actor type allowed to attribute taggings on the taggable types
// registered with it.
type Tagger struct {
	db  *gorm.DB
	typ string

	mu        sync.RWMutex
	taggables map[string]*Model
}

// NewTagger creates a tagger for actor type typ. typ is stored in
// taggings.tagger_type.
func NewTagger(db *gorm.DB, typ string) *Tagger {
	return &Tagger{db: db, typ: typ, taggables: make(map[string]*Model)}
}

// Type is the identifier stored in taggings.tagger_type.
func (t *Tagger) Type() string { return t.typ }

// Register grants the tagger the right to tag the given models. Registering a
// model twice is a no-op.
func (t *Tagger) Register(ms ...*Model) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range ms {
		t.taggables[m.typ] = m
	}
}

// CanTag reports whether m was registered with the tagger.
func (t *Tagger) CanTag(m *Model) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.taggables[m.typ]
	return ok
}

// Taggables lists the registered taggable types, sorted.
func (t *Tagger) Taggables() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	types := make([]string, 0, len(t.taggables))
	for typ := range t.taggables {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Attribute tags target on behalf of actor and writes at once. Every tag
// without a stored row on the target gets one row stamped with the actor:
// an unsaved row from Tag is stamped and inserted, a detached row is replaced
// by a stamped one. Tags already stored on the target are left as they are.
// The collection changes only after the write commits. Returns the resolved
// tags.
func (t *Tagger) Attribute(ctx context.Context, actor Actor, target *Taggings, refs ...Ref) (tags []*models.Tag, err error) {
	if !t.CanTag(target.model) {
		return nil, &NotTaggableError{Tagger: t.typ, Type: target.model.typ}
	}
	actorID := actor.TaggerID()
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("tagger %s: %w", t.typ, ErrUnsavedResource)
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if target.isNew() {
		return nil, fmt.Errorf("%s: %w", target.model.typ, ErrUnsavedResource)
	}

	ctx, span := startSpan(ctx, "taggable.Attribute",
		attribute.String("tagger.type", t.typ),
		attribute.String("tagger.id", actorID.String()),
		attribute.String("taggable.type", target.model.typ),
	)
	defer func() { endSpan(span, err) }()

	if err := target.load(ctx); err != nil {
		return nil, err
	}
	tags, err = target.model.tags.Resolve(ctx, refs)
	if err != nil {
		return nil, err
	}

	owner := target.owner.TaggableID()
	var (
		create   []*models.Tagging
		pending  = make(map[*models.Tagging]*models.Tagging) // insert -> unsaved row it stands for
		replaced []*models.Tagging
	)
	for _, tag := range tags {
		var current *models.Tagging
		if i := target.indexOf(tag.ID); i >= 0 {
			current = target.rows[i]
			if current.Persisted() {
				continue
			}
		} else if row := target.detachedRow(tag.ID); row != nil {
			replaced = append(replaced, row)
		}
		typ, id := t.typ, actorID
		row := &models.Tagging{
			TagID:        tag.ID,
			Tag:          tag,
			TaggableType: target.model.typ,
			TaggableID:   owner,
			TaggerType:   &typ,
			TaggerID:     &id,
		}
		create = append(create, row)
		if current != nil {
			pending[row] = current
		}
	}

	if len(create) > 0 {
		err = target.model.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if len(replaced) > 0 {
				ids := make([]uint, len(replaced))
				for i, row := range replaced {
					ids[i] = row.ID
				}
				if err := tx.Where("id IN ?", ids).Delete(&models.Tagging{}).Error; err != nil {
					return err
				}
			}
			return tx.Omit(clause.Associations).Create(&create).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to attribute taggings: %w", err)
		}

		target.forgetDetached(replaced)
		for _, row := range create {
			if current, ok := pending[row]; ok {
				*current = *row
				continue
			}
			target.rows = append(target.rows, row)
		}
		target.list = nil
	}
	return tags, nil
}

// Taggings lists the rows attributed to actor, oldest first.
func (t *Tagger) Taggings(ctx context.Context, actor Actor) ([]*models.Tagging, error) {
	var rows []*models.Tagging
	err := t.db.WithContext(ctx).
		Preload("Tag").
		Where("tagger_type = ? AND tagger_id = ?", t.typ, actor.TaggerID()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list taggings of %s: %w", t.typ, err)
	}
	return rows, nil
}

// Destroy deletes the rows attributed to actor. Collections already loaded
// elsewhere keep them until reloaded.
func (t *Tagger) Destroy(ctx context.Context, actor Actor) error {
	id := actor.TaggerID()
	if id == uuid.Nil {
		return nil
	}
	err := t.db.WithContext(ctx).
		Where("tagger_type = ? AND tagger_id = ?", t.typ, id).
		Delete(&models.Tagging{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete taggings of %s %s: %w", t.typ, id, err)
	}
	return nil
}
