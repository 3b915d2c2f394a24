// Package taggable adds polymorphic many-to-many tagging to gorm models.
//
// A host model becomes taggable by implementing Resource and being registered
// with Register, which yields a Model. Model.For returns the per-instance
// Taggings collection that reconciles in-memory tag associations with the
// rows of the shared taggings table:
//
//	tags := taggable.NewTags(db)
//	posts, _ := taggable.Register(db, tags, taggable.Config{Resource: &Post{}})
//	c := posts.For(post)
//	c.Tag(ctx, taggable.Names("red", "green")...)  // in memory only
//	c.Save(ctx)                                      // flush
//
// Methods suffixed AndSave flush immediately unless the owner has not been
// persisted yet; in that case every write waits for Save, which the host
// calls after its own first insert.
//
// Tagger grants an actor type the right to attribute taggings on registered
// taggable types.
package taggable
