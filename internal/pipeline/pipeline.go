package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/logger"
)

// Deps are the collaborators of a bill sync run.
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Syncer    Syncer

	// Optional.
	Backup   ArchiveBackup
	Recorder RunRecorder
	Location *time.Location
}

// NewBillSyncPipeline creates the standard 7-step pipeline for syncing an export.
func NewBillSyncPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&LocateArchiveStep{},
		&FetchArchiveStep{Fetcher: deps.Fetcher},
		&BackupArchiveStep{Backup: deps.Backup},
		&ExtractArchiveStep{Extractor: deps.Extractor},
		&ParseFilesStep{},
		&NormalizeStep{Location: deps.Location},
		&SyncStep{Syncer: deps.Syncer},
	)
}

// Run syncs the export linked from body and records the run in the ledger.
// A body without an archive link is not an error; the returned stats are empty.
func Run(ctx context.Context, body string, deps Deps) (domain.RunStats, error) {
	log := logger.FromContext(ctx)

	recorder := deps.Recorder
	if recorder == nil {
		recorder = NoopRecorder{}
	}

	runID, err := recorder.Start(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record sync run start")
		runID = ""
	}

	state := &PipelineState{Body: body}
	runErr := NewBillSyncPipeline(deps).Execute(ctx, state)
	stats := state.Stats()

	if runID != "" {
		if err := recorder.Finish(ctx, runID, stats, runErr); err != nil {
			log.Warn().Err(err).Str("sync_run_id", runID).Msg("Failed to record sync run result")
		}
	}

	if runErr != nil {
		return stats, runErr
	}

	log.Info().
		Str("archive_url", stats.ArchiveURL).
		Int("files", stats.Files).
		Int("rows", stats.Rows).
		Int("dropped", stats.Dropped).
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Msg("Bill sync completed")

	return stats, nil
}
