package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/jomei/notionapi"
)

// Databases holds the ids of the bill database and its reference databases.
type Databases struct {
	Bill     string
	Method   string
	Payee    string
	Income   string
	Category string
	Day      string
	Week     string
	Month    string
	Year     string
}

// Syncer writes transactions to the bill database. It owns the reference cache,
// so one Syncer must be used per run.
type Syncer struct {
	svc      NotionService
	resolver *ReferenceResolver
	dbs      Databases
}

// NewSyncer creates a Syncer with a fresh reference cache.
func NewSyncer(svc NotionService, dbs Databases) *Syncer {
	return &Syncer{
		svc:      svc,
		resolver: NewReferenceResolver(svc),
		dbs:      dbs,
	}
}

// FindExisting returns the id of the bill page with the given transaction id, or "".
func (s *Syncer) FindExisting(ctx context.Context, transactionID string) (string, error) {
	resp, err := s.svc.QueryDatabase(ctx, s.dbs.Bill, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropTransactionID,
			RichText: &notionapi.TextFilterCondition{Equals: transactionID},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", fmt.Errorf("FindExisting %s: %w", transactionID, err)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

// Sync creates a bill page for tx unless one already exists.
// Existing pages are never updated.
func (s *Syncer) Sync(ctx context.Context, tx *domain.Transaction) (domain.SyncOutcome, error) {
	log := logger.FromContext(ctx)

	pageID, err := s.FindExisting(ctx, tx.TransactionID)
	if err != nil {
		return "", err
	}
	if pageID != "" {
		log.Info().
			Str("transaction_id", tx.TransactionID).
			Str("page_id", pageID).
			Msg("Transaction already synced, skipping")
		return domain.SyncSkipped, nil
	}

	refs, err := s.resolveReferences(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("Sync %s: %w", tx.TransactionID, err)
	}

	props := TransactionToNotionProperties(tx, refs)
	page, err := s.svc.CreatePage(ctx, s.dbs.Bill, props, IconBill)
	if err != nil {
		return "", fmt.Errorf("Sync %s: %w", tx.TransactionID, err)
	}

	log.Info().
		Str("transaction_id", tx.TransactionID).
		Str("page_id", string(page.ID)).
		Str("amount", tx.Amount.String()).
		Msg("Created Notion page")

	return domain.SyncCreated, nil
}

func (s *Syncer) resolveReferences(ctx context.Context, tx *domain.Transaction) (References, error) {
	var (
		refs References
		err  error
	)

	if refs.Payee, err = s.resolver.Resolve(ctx, s.dbs.Payee, tx.Counterparty, IconPayee, nil); err != nil {
		return References{}, fmt.Errorf("payee: %w", err)
	}
	if refs.Method, err = s.resolver.Resolve(ctx, s.dbs.Method, tx.PaymentMethod, IconMethod, nil); err != nil {
		return References{}, fmt.Errorf("payment method: %w", err)
	}
	if refs.Category, err = s.resolver.Resolve(ctx, s.dbs.Category, tx.Category, IconCategory, nil); err != nil {
		return References{}, fmt.Errorf("category: %w", err)
	}
	if refs.Direction, err = s.resolver.Resolve(ctx, s.dbs.Income, string(tx.Direction), IconCategory, nil); err != nil {
		return References{}, fmt.Errorf("direction: %w", err)
	}
	if refs.Calendar, err = s.ResolveCalendarBuckets(ctx, tx.OccurredAt); err != nil {
		return References{}, err
	}

	return refs, nil
}

// ListSyncedTransactions returns transaction id -> page id for every bill page.
// Pages without a transaction id are ignored.
func (s *Syncer) ListSyncedTransactions(ctx context.Context) (map[string]string, error) {
	pages, err := queryAllNotionPages(ctx, s.svc, s.dbs.Bill)
	if err != nil {
		return nil, fmt.Errorf("ListSyncedTransactions: %w", err)
	}

	synced := make(map[string]string, len(pages))
	for _, page := range pages {
		if txID := extractTransactionID(page); txID != "" {
			synced[txID] = string(page.ID)
		}
	}
	return synced, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: pageSize,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractTransactionID extracts the transaction ID from a bill page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropTransactionID]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}
