package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// maxErrorMessageLen bounds error_message to keep DML statements small.
const maxErrorMessageLen = 2000

// SyncRunLedger records every sync run in <dataset>.sync_runs.
// It implements pipeline.RunRecorder.
type SyncRunLedger struct {
	client  *bigquery.Client
	dataset string
	now     func() time.Time
}

// NewSyncRunLedger creates a ledger with its own BigQuery client. An empty
// credentialsFile uses Application Default Credentials.
func NewSyncRunLedger(ctx context.Context, projectID, datasetID, credentialsFile string) (*SyncRunLedger, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewSyncRunLedger: creating client: %w", err)
	}
	return &SyncRunLedger{
		client:  client,
		dataset: datasetID,
		now:     time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (l *SyncRunLedger) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// EnsureTable creates the sync_runs table from SyncRunRow when it does not exist.
func (l *SyncRunLedger) EnsureTable(ctx context.Context) error {
	log := logger.FromContext(ctx)

	table := l.client.Dataset(l.dataset).Table(syncRunsTable)
	if _, err := table.Metadata(ctx); err == nil {
		return nil
	} else if !isNotFound(err) {
		return fmt.Errorf("EnsureTable: reading table metadata: %w", err)
	}

	schema, err := SyncRunSchema()
	if err != nil {
		return fmt.Errorf("EnsureTable: %w", err)
	}

	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("EnsureTable: creating %s.%s: %w", l.dataset, syncRunsTable, err)
	}

	log.Info().
		Str("dataset", l.dataset).
		Str("table", syncRunsTable).
		Msg("Created sync runs table")
	return nil
}

// SyncRunSchema returns the table schema inferred from SyncRunRow.
func SyncRunSchema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(SyncRunRow{})
	if err != nil {
		return nil, fmt.Errorf("inferring sync run schema: %w", err)
	}
	for _, field := range schema {
		switch field.Name {
		case "sync_run_id", "started_ts", "status":
			field.Required = true
		default:
			field.Required = false
		}
	}
	return schema, nil
}

// Start inserts a RUNNING row and returns the generated sync_run_id.
func (l *SyncRunLedger) Start(ctx context.Context) (string, error) {
	syncRunID := uuid.NewString()

	q := l.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			sync_run_id,
			started_ts,
			status
		)
		VALUES (
			@sync_run_id,
			@started_ts,
			@status
		)
	`, l.dataset, syncRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "sync_run_id", Value: syncRunID},
		{Name: "started_ts", Value: l.now()},
		{Name: "status", Value: StatusRunning},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("Start: %w", err)
	}

	return syncRunID, nil
}

// Finish sets the final status, counters and error message of a run.
func (l *SyncRunLedger) Finish(ctx context.Context, syncRunID string, stats domain.RunStats, runErr error) error {
	q := l.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    archive_url = @archive_url,
		    rows_parsed = @rows_parsed,
		    rows_dropped = @rows_dropped,
		    records_created = @records_created,
		    records_skipped = @records_skipped,
		    error_message = @error_message
		WHERE sync_run_id = @sync_run_id
	`, l.dataset, syncRunsTable))

	log := logger.FromContext(ctx)

	q.Parameters = FinishParameters(syncRunID, l.now(), stats, runErr)

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("Finish: %w", err)
	}

	log.Debug().
		Str("sync_run_id", syncRunID).
		Str("status", RunStatus(stats, runErr)).
		Msg("Recorded sync run")
	return nil
}

// FinishParameters builds the query parameters of the Finish UPDATE.
func FinishParameters(syncRunID string, finished time.Time, stats domain.RunStats, runErr error) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "status", Value: RunStatus(stats, runErr)},
		{Name: "finished_ts", Value: finished},
		{Name: "archive_url", Value: stats.ArchiveURL},
		{Name: "rows_parsed", Value: stats.Rows},
		{Name: "rows_dropped", Value: stats.Dropped},
		{Name: "records_created", Value: stats.Created},
		{Name: "records_skipped", Value: stats.Skipped},
		{Name: "error_message", Value: errorMessage(runErr)},
		{Name: "sync_run_id", Value: syncRunID},
	}
}

// RunStatus maps the outcome of a run onto its ledger status.
func RunStatus(stats domain.RunStats, runErr error) string {
	switch {
	case runErr != nil:
		return StatusFailed
	case stats.ArchiveURL == "":
		return StatusNoArchive
	default:
		return StatusSuccess
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	// cut on a rune boundary so the parameter stays valid UTF-8
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
