package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/jomei/notionapi"
	"github.com/patrickmn/go-cache"
)

// ReferenceResolver finds or creates titled pages in reference databases.
// Results are memoized for the lifetime of the resolver, which is one run.
type ReferenceResolver struct {
	svc   NotionService
	cache *cache.Cache
}

// NewReferenceResolver creates a resolver with an empty, non-expiring cache.
func NewReferenceResolver(svc NotionService) *ReferenceResolver {
	return &ReferenceResolver{
		svc:   svc,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Resolve returns the id of the page titled name in databaseID, creating it with
// iconURL and the extra properties when none exists. An empty name resolves to "".
func (r *ReferenceResolver) Resolve(ctx context.Context, databaseID, name, iconURL string, extra notionapi.Properties) (string, error) {
	if name == "" {
		return "", nil
	}

	key := cacheKey(databaseID, name)
	if id, ok := r.cache.Get(key); ok {
		return id.(string), nil
	}

	log := logger.FromContext(ctx)

	resp, err := r.svc.QueryDatabase(ctx, databaseID, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropTitle,
			RichText: &notionapi.TextFilterCondition{Equals: name},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", fmt.Errorf("Resolve %q: %w", name, err)
	}

	var id string
	if len(resp.Results) > 0 {
		id = string(resp.Results[0].ID)
	} else {
		props := notionapi.Properties{}
		for k, v := range extra {
			props[k] = v
		}
		props[PropTitle] = titleProperty(name)

		page, err := r.svc.CreatePage(ctx, databaseID, props, iconURL)
		if err != nil {
			return "", fmt.Errorf("Resolve %q: %w", name, err)
		}
		id = string(page.ID)

		log.Info().
			Str("database_id", databaseID).
			Str("title", name).
			Str("page_id", id).
			Msg("Created reference page")
	}

	r.cache.Set(key, id, cache.NoExpiration)
	return id, nil
}

func cacheKey(databaseID, name string) string {
	return databaseID + "\x00" + name
}
