package pipeline

import (
	"context"

	"github.com/dvloznov/bill-sync/internal/domain"
)

// Fetcher downloads an archive and returns the local path it was written to.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor unpacks an archive and returns the paths of the extracted files.
type Extractor interface {
	Extract(ctx context.Context, archivePath string) ([]string, error)
}

// ArchiveBackup keeps a copy of a downloaded archive and returns where it was stored.
type ArchiveBackup interface {
	BackupArchive(ctx context.Context, localPath string) (string, error)
}

// Syncer writes one normalized transaction to the external store.
type Syncer interface {
	Sync(ctx context.Context, tx *domain.Transaction) (domain.SyncOutcome, error)
}

// RunRecorder keeps an audit trail of pipeline runs.
type RunRecorder interface {
	// Start registers a new run and returns its identifier.
	Start(ctx context.Context) (string, error)

	// Finish stores the final statistics of a run; runErr is nil on success.
	Finish(ctx context.Context, runID string, stats domain.RunStats, runErr error) error
}

// NoopRecorder is the RunRecorder used when no ledger is configured.
type NoopRecorder struct{}

// Start implements RunRecorder.
func (NoopRecorder) Start(ctx context.Context) (string, error) { return "", nil }

// Finish implements RunRecorder.
func (NoopRecorder) Finish(ctx context.Context, runID string, stats domain.RunStats, runErr error) error {
	return nil
}
