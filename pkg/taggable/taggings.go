package taggable

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Taggings is the association collection of one resource instance.
//
// It starts unloaded and reads the owner's rows on first use. Tag and Untag
// change only the in-memory collection; rows removed from it are kept as
// detached until a flush deletes them, and re-tagging the same tag before
// that re-attaches the original row. The AndSave variants and Save flush.
//
// A Taggings value serialises its own callers. Two values for the same
// resource do not coordinate with each other.
type Taggings struct {
	mu       sync.Mutex
	model    *Model
	owner    Resource
	loaded   bool
	rows     []*models.Tagging
	detached []*models.Tagging
	list     *string
}

// Tag adds the tags that are not already present as unsaved rows and returns
// the whole collection.
func (c *Taggings) Tag(ctx context.Context, refs ...Ref) ([]*models.Tagging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tag(ctx, refs); err != nil {
		return nil, err
	}
	return c.snapshot(), nil
}

// TagAndSave is Tag followed by a flush of the unsaved rows. For an owner that
// is not persisted yet the rows wait for Save.
func (c *Taggings) TagAndSave(ctx context.Context, refs ...Ref) ([]*models.Tagging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tag(ctx, refs); err != nil {
		return nil, err
	}
	if !c.isNew() {
		if err := c.flush(ctx, c.model.db, c.unsaved(), nil); err != nil {
			return nil, err
		}
	}
	return c.snapshot(), nil
}

// Untag removes the rows of the given tags from the collection, or every row
// when no ref is given, and returns them. Storage is left alone.
func (c *Taggings) Untag(ctx context.Context, refs ...Ref) ([]*models.Tagging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.untag(ctx, refs)
}

// UntagAndSave is Untag followed by deleting the removed rows from storage.
// For an owner that is not persisted yet nothing is written.
func (c *Taggings) UntagAndSave(ctx context.Context, refs ...Ref) ([]*models.Tagging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.untag(ctx, refs)
	if err != nil {
		return nil, err
	}
	if !c.isNew() {
		if err := c.flush(ctx, c.model.db, nil, persisted(removed)); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// TagsList returns the tag names joined by ", ". The value is cached until the
// collection changes or is reloaded.
func (c *Taggings) TagsList(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.list != nil {
		return *c.list, nil
	}
	if err := c.load(ctx); err != nil {
		return "", err
	}
	names := make([]string, len(c.rows))
	for i, row := range c.rows {
		names[i] = row.Tag.Name
	}
	list := JoinList(names)
	c.list = &list
	return list, nil
}

// SetTagsList reconciles the collection with a comma separated list: names
// that left the list are untagged and deleted, new names are tagged, names in
// both are not touched. Applying the same text twice changes nothing.
func (c *Taggings) SetTagsList(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setTagsList(ctx, text, false)
}

// SetTagsListAndSave is SetTagsList followed by Save, with the deletions and
// the inserts written in one transaction. For an owner that is not persisted
// yet nothing is written.
func (c *Taggings) SetTagsListAndSave(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setTagsList(ctx, text, true)
}

func (c *Taggings) setTagsList(ctx context.Context, text string, save bool) (err error) {
	ctx, span := startSpan(ctx, "taggable.SetTagsList",
		attribute.String("taggable.type", c.model.typ),
		attribute.Bool("taggable.save", save),
	)
	defer func() { endSpan(span, err) }()

	names := ParseList(text)
	if err := c.load(ctx); err != nil {
		return err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	current := make(map[string]struct{}, len(c.rows))
	var stale []Ref
	for _, row := range c.rows {
		current[row.Tag.Name] = struct{}{}
		if _, ok := wanted[row.Tag.Name]; !ok {
			stale = append(stale, TagRef(row.Tag))
		}
	}
	var fresh []Ref
	for _, n := range names {
		if _, ok := current[n]; !ok {
			fresh = append(fresh, Name(n))
		}
	}

	if len(stale) > 0 {
		removed, err := c.untag(ctx, stale)
		if err != nil {
			return err
		}
		if !save && !c.isNew() {
			if err := c.flush(ctx, c.model.db, nil, persisted(removed)); err != nil {
				return err
			}
		}
	}
	if len(fresh) > 0 {
		if err := c.tag(ctx, fresh); err != nil {
			return err
		}
	}
	if save && !c.isNew() {
		if err := c.flush(ctx, c.model.db, c.unsaved(), c.detached); err != nil {
			return err
		}
	}

	list := JoinList(names)
	c.list = &list
	return nil
}

// Save flushes every pending change: unsaved rows are inserted and detached
// rows deleted, in one transaction.
func (c *Taggings) Save(ctx context.Context) error {
	return c.SaveTx(ctx, c.model.db)
}

// SaveTx is Save on tx, typically the transaction of a gorm hook saving the
// owner. The flush nests as a savepoint.
func (c *Taggings) SaveTx(ctx context.Context, tx *gorm.DB) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isNew() {
		return ErrUnsavedResource
	}
	create := c.unsaved()
	if len(create) == 0 && len(c.detached) == 0 {
		return nil
	}
	return c.flush(ctx, tx, create, c.detached)
}

// Reload drops the cached list and the collection, pending changes included,
// and reads the rows again.
func (c *Taggings) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	return c.load(ctx)
}

// Reset is Reload without the read; the next access loads lazily.
func (c *Taggings) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
}

// Rows returns the current collection.
func (c *Taggings) Rows(ctx context.Context) ([]*models.Tagging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.snapshot(), nil
}

// Tags returns the tags of the current collection in insertion order.
func (c *Taggings) Tags(ctx context.Context) ([]*models.Tag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return nil, err
	}
	tags := make([]*models.Tag, len(c.rows))
	for i, row := range c.rows {
		tags[i] = row.Tag
	}
	return tags, nil
}

// Has reports whether the collection holds a tag with the trimmed name.
func (c *Taggings) Has(ctx context.Context, name string) (bool, error) {
	n, err := models.NormalizeName(name)
	if err != nil {
		return false, &InvalidNameError{Name: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return false, err
	}
	for _, row := range c.rows {
		if row.Tag.Name == n {
			return true, nil
		}
	}
	return false, nil
}

// Dirty reports whether the collection differs from storage.
func (c *Taggings) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.detached) > 0 || len(c.unsaved()) > 0
}

// Model returns the registration the collection belongs to.
func (c *Taggings) Model() *Model { return c.model }

// Owner returns the resource the collection belongs to.
func (c *Taggings) Owner() Resource { return c.owner }

func (c *Taggings) isNew() bool {
	return c.owner.TaggableID() == uuid.Nil
}

func (c *Taggings) reset() {
	c.loaded = false
	c.rows = nil
	c.detached = nil
	c.list = nil
}

func (c *Taggings) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	if c.isNew() {
		c.loaded = true
		return nil
	}
	var rows []*models.Tagging
	err := c.model.db.WithContext(ctx).
		Preload("Tag").
		Where("taggable_type = ? AND taggable_id = ?", c.model.typ, c.owner.TaggableID()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load taggings: %w", err)
	}
	c.rows = rows
	c.loaded = true
	return nil
}

func (c *Taggings) tag(ctx context.Context, refs []Ref) error {
	if err := c.load(ctx); err != nil {
		return err
	}
	tags, err := c.model.tags.Resolve(ctx, refs)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if c.indexOf(tag.ID) >= 0 {
			continue
		}
		if row := c.reattach(tag.ID); row != nil {
			c.rows = append(c.rows, row)
		} else {
			c.rows = append(c.rows, &models.Tagging{
				TagID:        tag.ID,
				Tag:          tag,
				TaggableType: c.model.typ,
			})
		}
		c.list = nil
	}
	return nil
}

func (c *Taggings) untag(ctx context.Context, refs []Ref) ([]*models.Tagging, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	match := func(*models.Tagging) bool { return true }
	if len(refs) > 0 {
		tags, err := c.model.tags.lookup(ctx, refs)
		if err != nil {
			return nil, err
		}
		ids := make(map[uuid.UUID]struct{}, len(tags))
		for _, t := range tags {
			ids[t.ID] = struct{}{}
		}
		match = func(row *models.Tagging) bool {
			_, ok := ids[row.TagID]
			return ok
		}
	}

	var kept, removed []*models.Tagging
	for _, row := range c.rows {
		if !match(row) {
			kept = append(kept, row)
			continue
		}
		removed = append(removed, row)
		if row.Persisted() {
			c.detached = append(c.detached, row)
		}
	}
	c.rows = kept
	if len(removed) > 0 {
		c.list = nil
	}
	return removed, nil
}

// flush writes inside one transaction. On failure the rows are left exactly as
// they were so a later Save retries them.
func (c *Taggings) flush(ctx context.Context, db *gorm.DB, create, remove []*models.Tagging) (err error) {
	if len(create) == 0 && len(remove) == 0 {
		return nil
	}
	owner := c.owner.TaggableID()

	ctx, span := startSpan(ctx, "taggable.Flush",
		attribute.String("taggable.type", c.model.typ),
		attribute.String("taggable.id", owner.String()),
		attribute.Int("taggings.created", len(create)),
		attribute.Int("taggings.deleted", len(remove)),
	)
	defer func() { endSpan(span, err) }()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(remove) > 0 {
			ids := make([]uint, len(remove))
			for i, row := range remove {
				ids[i] = row.ID
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Tagging{}).Error; err != nil {
				return fmt.Errorf("failed to delete taggings: %w", err)
			}
		}
		if len(create) > 0 {
			for _, row := range create {
				row.TaggableID = owner
			}
			if err := tx.Omit(clause.Associations).Create(&create).Error; err != nil {
				return fmt.Errorf("failed to insert taggings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		for _, row := range create {
			row.ID = 0
		}
		return err
	}

	c.forgetDetached(remove)
	c.model.log.Debug("taggings flushed", "owner", owner, "created", len(create), "deleted", len(remove))
	return nil
}

func (c *Taggings) indexOf(tagID uuid.UUID) int {
	for i, row := range c.rows {
		if row.TagID == tagID {
			return i
		}
	}
	return -1
}

func (c *Taggings) reattach(tagID uuid.UUID) *models.Tagging {
	for i, row := range c.detached {
		if row.TagID == tagID {
			c.detached = append(c.detached[:i], c.detached[i+1:]...)
			return row
		}
	}
	return nil
}

// detachedRow finds a detached row of tagID and leaves it detached.
func (c *Taggings) detachedRow(tagID uuid.UUID) *models.Tagging {
	for _, row := range c.detached {
		if row.TagID == tagID {
			return row
		}
	}
	return nil
}

func (c *Taggings) forgetDetached(rows []*models.Tagging) {
	if len(rows) == 0 {
		return
	}
	gone := make(map[*models.Tagging]struct{}, len(rows))
	for _, row := range rows {
		gone[row] = struct{}{}
	}
	kept := c.detached[:0]
	for _, row := range c.detached {
		if _, ok := gone[row]; !ok {
			kept = append(kept, row)
		}
	}
	c.detached = kept
}

func (c *Taggings) unsaved() []*models.Tagging {
	var rows []*models.Tagging
	for _, row := range c.rows {
		if !row.Persisted() {
			rows = append(rows, row)
		}
	}
	return rows
}

func (c *Taggings) snapshot() []*models.Tagging {
	out := make([]*models.Tagging, len(c.rows))
	copy(out, c.rows)
	return out
}

func persisted(rows []*models.Tagging) []*models.Tagging {
	var out []*models.Tagging
	for _, row := range rows {
		if row.Persisted() {
			out = append(out, row)
		}
	}
	return out
}
