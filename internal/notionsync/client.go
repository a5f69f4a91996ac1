package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// NotionClient is the concrete implementation of NotionService using the official Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
// An empty iconURL creates the page without an icon.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, iconURL string) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}
	if iconURL != "" {
		req.Icon = externalIcon(iconURL)
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// QueryDatabase queries a Notion database with the given filter.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}

	return resp, nil
}

// ListChildBlocks returns every child of a block, following pagination.
func (n *NotionClient) ListChildBlocks(ctx context.Context, blockID string) ([]ChildBlock, error) {
	var (
		children []ChildBlock
		cursor   notionapi.Cursor
	)

	for {
		pagination := &notionapi.Pagination{PageSize: pageSize}
		if cursor != "" {
			pagination.StartCursor = cursor
		}

		resp, err := n.client.Block.GetChildren(ctx, notionapi.BlockID(blockID), pagination)
		if err != nil {
			return nil, fmt.Errorf("ListChildBlocks: %w", err)
		}

		for _, block := range resp.Results {
			child := ChildBlock{
				ID:          string(block.GetID()),
				Type:        string(block.GetType()),
				HasChildren: block.GetHasChildren(),
			}
			if db, ok := block.(*notionapi.ChildDatabaseBlock); ok {
				child.Title = db.ChildDatabase.Title
			}
			children = append(children, child)
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return children, nil
}

func externalIcon(url string) *notionapi.Icon {
	return &notionapi.Icon{
		Type: notionapi.FileTypeExternal,
		External: &notionapi.FileObject{
			URL: url,
		},
	}
}
