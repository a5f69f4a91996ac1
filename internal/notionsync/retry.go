package notionsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/jomei/notionapi"
)

// RetryPolicy is a fixed-attempt, fixed-delay retry configuration.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy returns the default retry configuration: 3 attempts, 5s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
	}
}

// RetryingService wraps a NotionService and retries every call under one policy.
type RetryingService struct {
	next   NotionService
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingService wraps next with policy.
func NewRetryingService(next NotionService, policy RetryPolicy) *RetryingService {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingService{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
	}
}

// CreatePage implements NotionService.
func (r *RetryingService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, iconURL string) (*notionapi.Page, error) {
	var page *notionapi.Page
	err := r.do(ctx, "CreatePage", func() error {
		var err error
		page, err = r.next.CreatePage(ctx, databaseID, properties, iconURL)
		return err
	})
	return page, err
}

// QueryDatabase implements NotionService.
func (r *RetryingService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	var resp *notionapi.DatabaseQueryResponse
	err := r.do(ctx, "QueryDatabase", func() error {
		var err error
		resp, err = r.next.QueryDatabase(ctx, databaseID, req)
		return err
	})
	return resp, err
}

// ListChildBlocks implements NotionService.
func (r *RetryingService) ListChildBlocks(ctx context.Context, blockID string) ([]ChildBlock, error) {
	var children []ChildBlock
	err := r.do(ctx, "ListChildBlocks", func() error {
		var err error
		children, err = r.next.ListChildBlocks(ctx, blockID)
		return err
	})
	return children, err
}

func (r *RetryingService) do(ctx context.Context, op string, fn func() error) error {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("retry_after", r.policy.Delay).
			Msg("Notion call failed, retrying")

		if sleepErr := r.sleep(ctx, r.policy.Delay); sleepErr != nil {
			return sleepErr
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", op, r.policy.MaxAttempts, err)
}

// isRetryable treats everything as transient except cancellation and client
// errors Notion will answer the same way again.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
