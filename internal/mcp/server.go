// Package mcp exposes the catalog's tagging operations as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const instructions = `taggable keeps tags on catalog items (posts and books).

- list_tags shows every tag.
- show_item returns an item with its tags; call it before changing tags.
- tag_item and untag_item add or remove tags and save at once.
- set_tags_list replaces the whole list from a comma separated string.
- tagged_with finds the items carrying any of the given tags.`

// NewServer builds an MCP server over svc.
func NewServer(svc *catalog.Service, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "taggable",
			Version: version,
		},
		&mcp.ServerOptions{Instructions: instructions},
	)
	registerTools(server, &tools{svc: svc})
	return server
}

// ServeStdio runs the server over stdio until ctx is done or the peer leaves.
func ServeStdio(ctx context.Context, svc *catalog.Service, version string) error {
	return NewServer(svc, version).Run(ctx, &mcp.StdioTransport{})
}

// textResult converts any data to a CallToolResult with JSON TextContent.
func textResult(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}
