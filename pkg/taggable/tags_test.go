package taggable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/pkg/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolveOrCreate_TrimsAndCanonicalizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	padded, err := f.tags.ResolveOrCreate(ctx, " blue ")
	require.NoError(t, err)
	plain, err := f.tags.ResolveOrCreate(ctx, "blue")
	require.NoError(t, err)

	require.Equal(t, "blue", padded.Name)
	require.Equal(t, padded.ID, plain.ID)
	require.EqualValues(t, 1, f.countTags(t))
}

func TestResolveOrCreate_RejectsBlank(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := f.tags.ResolveOrCreate(context.Background(), name)
		require.ErrorIs(t, err, ErrInvalidName)

		var invalid *InvalidNameError
		require.True(t, errors.As(err, &invalid))
		require.Equal(t, name, invalid.Name)
	}
	require.EqualValues(t, 0, f.countTags(t))
}

func TestResolveOrCreate_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := f.tags.ResolveOrCreate(ctx, "shared")
			errs[i] = err
			if tag != nil {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
	require.EqualValues(t, 1, f.countTags(t))
}

// TestResolveOrCreate_RetriesAfterLostRace inserts the tag between the lookup
// and the create, the window two callers can race in.
func TestResolveOrCreate_RetriesAfterLostRace(t *testing.T) {
	f := newFixture(t)
	var winner models.Tag
	fired := false
	err := f.db.Callback().Query().After("gorm:query").Register("test:interleave", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "tags" {
			return
		}
		fired = true
		winner = models.Tag{Name: "contested"}
		require.NoError(t, f.db.Create(&winner).Error)
	})
	require.NoError(t, err)

	tag, err := f.tags.ResolveOrCreate(context.Background(), "contested")
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, winner.ID, tag.ID)
	require.EqualValues(t, 1, f.countTags(t))
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tags.Find(ctx, "missing")
	require.ErrorIs(t, err, ErrTagNotFound)

	created, err := f.tags.ResolveOrCreate(ctx, "found")
	require.NoError(t, err)
	got, err := f.tags.Find(ctx, "  found")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	byID, err := f.tags.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "found", byID.Name)

	_, err = f.tags.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag, err := f.tags.ResolveOrCreate(ctx, "colour")
	require.NoError(t, err)

	require.NoError(t, f.tags.Rename(ctx, tag, "  color "))
	require.Equal(t, "color", tag.Name)

	stored, err := f.tags.Get(ctx, tag.ID)
	require.NoError(t, err)
	require.Equal(t, "color", stored.Name)

	err = f.tags.Rename(ctx, tag, "   ")
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, "color", tag.Name)
}

func TestRename_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.tags.ResolveOrCreate(ctx, "a")
	require.NoError(t, err)
	_, err = f.tags.ResolveOrCreate(ctx, "b")
	require.NoError(t, err)

	err = f.tags.Rename(ctx, a, "b")
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.Equal(t, "a", a.Name)
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(ErrTagNotFound))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	require.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_tags_name" (SQLSTATE 23505)`)))
}

func TestRename_UnknownTag(t *testing.T) {
	f := newFixture(t)

	err := f.tags.Rename(context.Background(), &models.Tag{Name: "ghost"}, "spirit")
	require.ErrorIs(t, err, ErrTagNotFound)

	err = f.tags.Rename(context.Background(), &models.Tag{ID: uuid.New(), Name: "ghost"}, "spirit")
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestCache_RenameInvalidates(t *testing.T) {
	f := newFixture(t, WithCache(time.Minute))
	ctx := context.Background()

	tag, err := f.tags.ResolveOrCreate(ctx, "old")
	require.NoError(t, err)
	require.NoError(t, f.tags.Rename(ctx, tag, "new"))

	_, err = f.tags.Find(ctx, "old")
	require.ErrorIs(t, err, ErrTagNotFound)

	again, err := f.tags.ResolveOrCreate(ctx, "old")
	require.NoError(t, err)
	require.NotEqual(t, tag.ID, again.ID)
}

func TestCache_ReturnsCopies(t *testing.T) {
	f := newFixture(t, WithCache(time.Minute))
	ctx := context.Background()

	first, err := f.tags.ResolveOrCreate(ctx, "stable")
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := f.tags.ResolveOrCreate(ctx, "stable")
	require.NoError(t, err)
	require.Equal(t, "stable", second.Name)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, n := range []string{"pear", "apple", "fig"} {
		_, err := f.tags.ResolveOrCreate(ctx, n)
		require.NoError(t, err)
	}
	tags, err := f.tags.List(ctx)
	require.NoError(t, err)

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	require.Equal(t, []string{"apple", "fig", "pear"}, names)
}

func TestResolve_Dedupes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.tags.ResolveOrCreate(ctx, "x")
	require.NoError(t, err)

	refs := append(Names("x", " x", "y"), TagRef(existing), TagRef(&models.Tag{Name: "z"}))
	tags, err := f.tags.Resolve(ctx, refs)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	require.Equal(t, "x", tags[0].Name)
	require.Equal(t, "y", tags[1].Name)
	require.Equal(t, "z", tags[2].Name)
}
