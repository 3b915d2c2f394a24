package commands

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kutbudev/taggable/internal/api"
	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/pkg/config"
	"github.com/kutbudev/taggable/pkg/repository"
	"github.com/kutbudev/taggable/pkg/taggable"
	"github.com/stretchr/testify/require"
)

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func setupCLI(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TAGGABLE_DATABASE_DRIVER", "sqlite")
	t.Setenv("TAGGABLE_DATABASE_PATH", filepath.Join(dir, "taggable.db"))
	t.Setenv("TAGGABLE_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp("test")
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"taggable"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	return out
}

func TestCLI_TagLifecycle(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "migrate")
	require.Contains(t, out, "Database ready (sqlite)")

	out = mustRun(t, "create", "--tags", "go, gorm", "posts", "Hello")
	id := uuidPattern.FindString(out)
	require.NotEmpty(t, id)
	require.Contains(t, out, "Hello")

	out = mustRun(t, "tag", "posts", id, "sqlite")
	for _, name := range []string{"go", "gorm", "sqlite"} {
		require.Contains(t, out, name)
	}

	out = mustRun(t, "untag", "posts", id, "gorm")
	require.NotContains(t, out, "gorm")

	out = mustRun(t, "set", "posts", id, "pg, sqlite")
	require.Contains(t, out, "pg")
	require.NotContains(t, out, "go,")

	out = mustRun(t, "tagged", "posts", "pg")
	require.Contains(t, out, id[:8])
	require.Contains(t, out, "sqlite, pg")

	out = mustRun(t, "tags")
	require.Contains(t, out, "gorm")
	require.Contains(t, out, "sqlite")

	out = mustRun(t, "rename", "pg", "postgres")
	require.Contains(t, out, "Renamed 'pg' to 'postgres'")

	out = mustRun(t, "show", "posts", id)
	require.Contains(t, out, "postgres")
}

func TestCLI_Attribute(t *testing.T) {
	setupCLI(t)

	mustRun(t, "user", "alice")
	book := uuidPattern.FindString(mustRun(t, "create", "books", "Dune"))
	post := uuidPattern.FindString(mustRun(t, "create", "posts", "Post"))

	out := mustRun(t, "attribute", "--user", "alice", "books", book, "scifi")
	require.Contains(t, out, "scifi")

	_, err := run(t, "attribute", "--user", "alice", "posts", post, "scifi")
	require.ErrorContains(t, err, "not taggable")
}

func TestCLI_Errors(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "show", "posts")
	require.ErrorContains(t, err, "usage:")

	_, err = run(t, "show", "posts", "nope")
	require.ErrorContains(t, err, "invalid id")

	_, err = run(t, "create", "widgets", "w")
	require.ErrorContains(t, err, "unknown taggable type")

	_, err = run(t, "rename", "missing", "x")
	require.ErrorContains(t, err, "tag not found")
}

func TestCLI_Remote(t *testing.T) {
	setupCLI(t)
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDatabase(&config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Log:      config.LogConfig{Level: "error"},
	}, catalog.Models()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := catalog.NewService(db, taggable.NewTags(db), log)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc), log))
	t.Cleanup(srv.Close)

	item, err := svc.Create(t.Context(), "books", "Hobbit", "fantasy")
	require.NoError(t, err)
	id := item.TaggableID().String()

	out := mustRun(t, "remote", "--server", srv.URL, "show", "books", id)
	require.Contains(t, out, "Hobbit")
	require.Contains(t, out, "fantasy")

	out = mustRun(t, "remote", "--server", srv.URL, "set", "books", id, "classic, fantasy")
	require.Contains(t, out, "classic")

	out = mustRun(t, "remote", "--server", srv.URL, "tagged", "books", "classic")
	require.Contains(t, out, id[:8])

	out = mustRun(t, "remote", "--server", srv.URL, "tags")
	require.Contains(t, out, "classic")
	require.Contains(t, out, "fantasy")
}
