package notionsync

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dvloznov/bill-sync/internal/config"
	"github.com/dvloznov/bill-sync/internal/logger"
)

var (
	// ErrInvalidPageURL is returned when no Notion page id can be found in a URL.
	ErrInvalidPageURL = errors.New("no Notion page id in URL")
	// ErrDatabaseNotFound is returned when a configured database title is missing under the root page.
	ErrDatabaseNotFound = errors.New("database not found")
)

var pageIDRe = regexp.MustCompile(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}|[a-f0-9]{32}`)

// ExtractPageID returns the page id embedded in a Notion page URL or the id itself.
func ExtractPageID(notionURL string) (string, error) {
	id := pageIDRe.FindString(notionURL)
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPageURL, notionURL)
	}
	return id, nil
}

// DiscoverDatabases walks the blocks under the root page and resolves the
// configured database titles to database ids.
func DiscoverDatabases(ctx context.Context, svc NotionService, pageURL string, names config.DatabaseNames) (Databases, error) {
	log := logger.FromContext(ctx)

	rootID, err := ExtractPageID(pageURL)
	if err != nil {
		return Databases{}, fmt.Errorf("DiscoverDatabases: %w", err)
	}

	titles := make(map[string]string)
	if err := collectDatabases(ctx, svc, rootID, titles); err != nil {
		return Databases{}, fmt.Errorf("DiscoverDatabases: %w", err)
	}

	log.Debug().Int("databases", len(titles)).Str("page_id", rootID).Msg("Found child databases")

	lookup := func(title string) (string, error) {
		id, ok := titles[title]
		if !ok {
			return "", fmt.Errorf("DiscoverDatabases: %w: %q", ErrDatabaseNotFound, title)
		}
		return id, nil
	}

	var dbs Databases
	for _, f := range []struct {
		title string
		dst   *string
	}{
		{names.Bill, &dbs.Bill},
		{names.Method, &dbs.Method},
		{names.Payee, &dbs.Payee},
		{names.Income, &dbs.Income},
		{names.Category, &dbs.Category},
		{names.Day, &dbs.Day},
		{names.Week, &dbs.Week},
		{names.Month, &dbs.Month},
		{names.Year, &dbs.Year},
	} {
		id, err := lookup(f.title)
		if err != nil {
			return Databases{}, err
		}
		*f.dst = id
	}

	return dbs, nil
}

func collectDatabases(ctx context.Context, svc NotionService, blockID string, titles map[string]string) error {
	children, err := svc.ListChildBlocks(ctx, blockID)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.Type == "child_database" {
			titles[child.Title] = child.ID
		}
		if child.HasChildren {
			if err := collectDatabases(ctx, svc, child.ID, titles); err != nil {
				return err
			}
		}
	}
	return nil
}
