package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/internal/api"
	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/pkg/taggable"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type tools struct {
	svc *catalog.Service
}

func registerTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List every tag, ordered by name.",
	}, t.listTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_tag",
		Description: "Rename a tag everywhere it is used.",
	}, t.renameTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_item",
		Description: "Show an item (type 'posts' or 'books') with its tags.",
	}, t.showItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tag_item",
		Description: "Add tags to an item. Tags already present are kept once.",
	}, t.tagItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "untag_item",
		Description: "Remove tags from an item. With no tags every tag is removed.",
	}, t.untagItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_tags_list",
		Description: "Replace the tags of an item with a comma separated list.",
	}, t.setTagsList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tagged_with",
		Description: "List the items of a type carrying any of the tags.",
	}, t.taggedWith)
}

type EmptyInput struct{}

type RenameTagInput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ItemInput struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type TagItemInput struct {
	Type string   `json:"type"`
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

type SetTagsListInput struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	TagsList string `json:"tags_list"`
}

type TaggedWithInput struct {
	Type string   `json:"type"`
	Tags []string `json:"tags"`
}

func (t *tools) listTags(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	tags, err := t.svc.Tags().List(ctx)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	res, err := textResult(map[string]any{"tags": names, "count": len(names)})
	return res, nil, err
}

func (t *tools) renameTag(ctx context.Context, req *mcp.CallToolRequest, input RenameTagInput) (*mcp.CallToolResult, any, error) {
	tag, err := t.svc.Tags().Find(ctx, input.From)
	if err != nil {
		return nil, nil, fmt.Errorf("tag %q: %w", input.From, err)
	}
	if err := t.svc.Tags().Rename(ctx, tag, input.To); err != nil {
		return nil, nil, err
	}
	res, err := textResult(tag)
	return res, nil, err
}

func (t *tools) showItem(ctx context.Context, req *mcp.CallToolRequest, input ItemInput) (*mcp.CallToolResult, any, error) {
	item, err := t.find(ctx, input.Type, input.ID)
	if err != nil {
		return nil, nil, err
	}
	return t.itemResult(ctx, item)
}

func (t *tools) tagItem(ctx context.Context, req *mcp.CallToolRequest, input TagItemInput) (*mcp.CallToolResult, any, error) {
	if len(input.Tags) == 0 {
		return nil, nil, errors.New("tags is required")
	}
	item, err := t.find(ctx, input.Type, input.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := item.Taggings().TagAndSave(ctx, taggable.Names(input.Tags...)...); err != nil {
		return nil, nil, err
	}
	return t.itemResult(ctx, item)
}

func (t *tools) untagItem(ctx context.Context, req *mcp.CallToolRequest, input TagItemInput) (*mcp.CallToolResult, any, error) {
	item, err := t.find(ctx, input.Type, input.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := item.Taggings().UntagAndSave(ctx, taggable.Names(input.Tags...)...); err != nil {
		return nil, nil, err
	}
	return t.itemResult(ctx, item)
}

func (t *tools) setTagsList(ctx context.Context, req *mcp.CallToolRequest, input SetTagsListInput) (*mcp.CallToolResult, any, error) {
	item, err := t.find(ctx, input.Type, input.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := item.Taggings().SetTagsListAndSave(ctx, input.TagsList); err != nil {
		return nil, nil, err
	}
	return t.itemResult(ctx, item)
}

func (t *tools) taggedWith(ctx context.Context, req *mcp.CallToolRequest, input TaggedWithInput) (*mcp.CallToolResult, any, error) {
	items, err := t.svc.Tagged(ctx, strings.TrimSpace(input.Type), input.Tags...)
	if err != nil {
		return nil, nil, err
	}
	views, err := api.Views(ctx, items)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(map[string]any{"items": views, "count": len(views)})
	return res, nil, err
}

func (t *tools) find(ctx context.Context, typ, rawID string) (catalog.Item, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", rawID)
	}
	return t.svc.Find(ctx, strings.TrimSpace(typ), id)
}

func (t *tools) itemResult(ctx context.Context, item catalog.Item) (*mcp.CallToolResult, any, error) {
	view, err := api.View(ctx, item)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(view)
	return res, nil, err
}
