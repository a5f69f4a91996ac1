package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

const syncRunsTable = "sync_runs"

// Sync run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusNoArchive = "NO_ARCHIVE"
)

// SyncRunRow is one row of finance.sync_runs.
type SyncRunRow struct {
	SyncRunID string `bigquery:"sync_run_id"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	ArchiveURL bigquery.NullString `bigquery:"archive_url"` // NULLABLE
	Status     string              `bigquery:"status"`      // REQUIRED

	RowsParsed     bigquery.NullInt64 `bigquery:"rows_parsed"`     // NULLABLE
	RowsDropped    bigquery.NullInt64 `bigquery:"rows_dropped"`    // NULLABLE
	RecordsCreated bigquery.NullInt64 `bigquery:"records_created"` // NULLABLE
	RecordsSkipped bigquery.NullInt64 `bigquery:"records_skipped"` // NULLABLE

	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
}
