package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties and icon.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, iconURL string) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// ListChildBlocks returns all direct children of a block or page.
	ListChildBlocks(ctx context.Context, blockID string) ([]ChildBlock, error)
}

// ChildBlock is the part of a Notion block needed to discover databases.
type ChildBlock struct {
	ID          string
	Type        string
	Title       string // set for child_database blocks
	HasChildren bool
}
