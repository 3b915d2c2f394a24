package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/kutbudev/taggable/internal/api"
	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/pkg/config"
	"github.com/kutbudev/taggable/pkg/repository"
	"github.com/kutbudev/taggable/pkg/taggable"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func newTestTools(t *testing.T) *tools {
	t.Helper()
	db, err := repository.NewDatabase(&config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Log:      config.LogConfig{Level: "error"},
	}, catalog.Models()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := catalog.NewService(db, taggable.NewTags(db, taggable.WithLogger(log)), log)
	require.NoError(t, err)
	return &tools{svc: svc}
}

func decodeView(t *testing.T, res *mcp.CallToolResult) api.ItemView {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var view api.ItemView
	require.NoError(t, json.Unmarshal([]byte(text.Text), &view))
	return view
}

func TestTools_ItemLifecycle(t *testing.T) {
	tl := newTestTools(t)
	ctx := context.Background()

	item, err := tl.svc.Create(ctx, "posts", "Hello", "go")
	require.NoError(t, err)
	id := item.TaggableID().String()

	res, _, err := tl.tagItem(ctx, nil, TagItemInput{Type: "posts", ID: id, Tags: []string{"gorm", "go"}})
	require.NoError(t, err)
	require.Equal(t, []string{"go", "gorm"}, decodeView(t, res).Tags)

	res, _, err = tl.setTagsList(ctx, nil, SetTagsListInput{Type: "posts", ID: id, TagsList: "gorm, mcp"})
	require.NoError(t, err)
	require.Equal(t, "gorm, mcp", decodeView(t, res).TagsList)

	res, _, err = tl.untagItem(ctx, nil, TagItemInput{Type: "posts", ID: id, Tags: []string{"gorm"}})
	require.NoError(t, err)
	require.Equal(t, []string{"mcp"}, decodeView(t, res).Tags)

	res, _, err = tl.showItem(ctx, nil, ItemInput{Type: "posts", ID: id})
	require.NoError(t, err)
	require.Equal(t, "Hello", decodeView(t, res).Title)
}

func TestTools_Errors(t *testing.T) {
	tl := newTestTools(t)
	ctx := context.Background()

	_, _, err := tl.showItem(ctx, nil, ItemInput{Type: "posts", ID: "nope"})
	require.ErrorContains(t, err, "invalid id")

	_, _, err = tl.tagItem(ctx, nil, TagItemInput{Type: "posts", ID: "x"})
	require.ErrorContains(t, err, "tags is required")

	_, _, err = tl.renameTag(ctx, nil, RenameTagInput{From: "missing", To: "x"})
	require.ErrorIs(t, err, taggable.ErrTagNotFound)
}

func TestServer_OverInMemoryTransport(t *testing.T) {
	tl := newTestTools(t)
	ctx := context.Background()
	_, err := tl.svc.Create(ctx, "books", "Dune", "scifi, desert")
	require.NoError(t, err)

	server := NewServer(tl.svc, "test")
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	list, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Tools, 7)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "tagged_with",
		Arguments: map[string]any{"type": "books", "tags": []string{"desert"}},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text
	require.Contains(t, text, "Dune")

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "list_tags", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.Contains(t, res.Content[0].(*mcp.TextContent).Text, "scifi")
}
