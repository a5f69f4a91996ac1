package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// fakeNotion is an in-memory NotionService. Stored pages carry pointer
// properties with PlainText filled in, the way the API returns them.
type fakeNotion struct {
	pages    map[string][]notionapi.Page
	blocks   map[string][]ChildBlock
	nextID   int
	creates  map[string]int
	queries  map[string]int
	icons    map[string]string
	pageSize int
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{
		pages:   make(map[string][]notionapi.Page),
		blocks:  make(map[string][]ChildBlock),
		creates: make(map[string]int),
		queries: make(map[string]int),
		icons:   make(map[string]string),
	}
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, iconURL string) (*notionapi.Page, error) {
	f.nextID++
	id := fmt.Sprintf("page-%d", f.nextID)

	stored := notionapi.Properties{}
	for name, prop := range properties {
		switch p := prop.(type) {
		case notionapi.TitleProperty:
			stored[name] = &notionapi.TitleProperty{Title: plain(p.Title)}
		case notionapi.RichTextProperty:
			stored[name] = &notionapi.RichTextProperty{RichText: plain(p.RichText)}
		default:
			stored[name] = prop
		}
	}

	page := notionapi.Page{ID: notionapi.ObjectID(id), Properties: stored}
	f.pages[databaseID] = append(f.pages[databaseID], page)
	f.creates[databaseID]++
	f.icons[id] = iconURL
	return &page, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.queries[databaseID]++

	var matched []notionapi.Page
	for _, page := range f.pages[databaseID] {
		if matches(page, req.Filter) {
			matched = append(matched, page)
		}
	}

	size := req.PageSize
	if f.pageSize > 0 && (size == 0 || f.pageSize < size) {
		size = f.pageSize
	}

	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := len(matched)
	if size > 0 && start+size < end {
		end = start + size
	}

	resp := &notionapi.DatabaseQueryResponse{Results: matched[start:end]}
	if end < len(matched) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(fmt.Sprintf("%d", end))
	}
	return resp, nil
}

func (f *fakeNotion) ListChildBlocks(ctx context.Context, blockID string) ([]ChildBlock, error) {
	return f.blocks[blockID], nil
}

func (f *fakeNotion) count(databaseID string) int {
	return len(f.pages[databaseID])
}

func matches(page notionapi.Page, filter notionapi.Filter) bool {
	if filter == nil {
		return true
	}
	pf, ok := filter.(*notionapi.PropertyFilter)
	if !ok || pf.RichText == nil {
		return false
	}
	return textOf(page.Properties[pf.Property]) == pf.RichText.Equals
}

func textOf(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		if len(p.Title) > 0 {
			return p.Title[0].PlainText
		}
	case *notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	}
	return ""
}

func plain(in []notionapi.RichText) []notionapi.RichText {
	out := make([]notionapi.RichText, len(in))
	for i, rt := range in {
		out[i] = rt
		if rt.Text != nil {
			out[i].PlainText = rt.Text.Content
		}
	}
	return out
}
