package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/logger"
)

// PipelineStep represents a single step in the bill sync pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Body         string
	ArchiveURL   string
	ArchivePath  string
	BackupURI    string
	Files        []string
	ParsedFiles  int
	Rows         []RawRow
	Dropped      int
	Transactions []*domain.Transaction
	Created      int
	Skipped      int

	// Halted stops the pipeline after the current step without an error.
	Halted bool
}

// Stats summarizes the state for logging and the run ledger.
func (s *PipelineState) Stats() domain.RunStats {
	return domain.RunStats{
		ArchiveURL: s.ArchiveURL,
		Files:      s.ParsedFiles,
		Rows:       len(s.Rows),
		Dropped:    s.Dropped,
		Created:    s.Created,
		Skipped:    s.Skipped,
	}
}

// Step 1: LocateArchiveStep finds the export download link in the ticket body.
type LocateArchiveStep struct{}

func (s *LocateArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	url, ok := LocateArchiveURL(state.Body)
	if !ok {
		log.Info().Msg("No zip file URL found in ticket body")
		state.Halted = true
		return nil
	}

	log.Info().Str("url", url).Msg("Found archive URL")
	state.ArchiveURL = url
	return nil
}

// Step 2: FetchArchiveStep downloads the archive.
type FetchArchiveStep struct {
	Fetcher Fetcher
}

func (s *FetchArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	path, err := s.Fetcher.Fetch(ctx, state.ArchiveURL)
	if err != nil {
		return err
	}
	state.ArchivePath = path
	return nil
}

// Step 3: BackupArchiveStep stores a copy of the raw archive. Failures are logged only.
type BackupArchiveStep struct {
	Backup ArchiveBackup
}

func (s *BackupArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Backup == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	uri, err := s.Backup.BackupArchive(ctx, state.ArchivePath)
	if err != nil {
		log.Warn().Err(err).Str("path", state.ArchivePath).Msg("Failed to back up archive")
		return nil
	}

	log.Info().Str("uri", uri).Msg("Archive backed up")
	state.BackupURI = uri
	return nil
}

// Step 4: ExtractArchiveStep unpacks the password-protected archive.
type ExtractArchiveStep struct {
	Extractor Extractor
}

func (s *ExtractArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	files, err := s.Extractor.Extract(ctx, state.ArchivePath)
	if err != nil {
		return err
	}
	state.Files = files
	return nil
}

// Step 5: ParseFilesStep parses every CSV file of the archive into raw rows.
type ParseFilesStep struct{}

func (s *ParseFilesStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, file := range state.Files {
		if !IsCSV(file) {
			continue
		}
		rows, err := ParseTransactions(ctx, file)
		if err != nil {
			return err
		}
		state.ParsedFiles++
		state.Rows = append(state.Rows, rows...)
	}
	return nil
}

// Step 6: NormalizeStep turns raw rows into transactions, dropping non income/expense rows.
type NormalizeStep struct {
	Location *time.Location
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for i, raw := range state.Rows {
		tx, err := Normalize(raw, s.Location)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if tx == nil {
			state.Dropped++
			continue
		}
		state.Transactions = append(state.Transactions, tx)
	}

	log.Info().
		Int("rows", len(state.Rows)).
		Int("transactions", len(state.Transactions)).
		Int("dropped", state.Dropped).
		Msg("Normalized export rows")
	return nil
}

// Step 7: SyncStep writes every transaction, one at a time.
type SyncStep struct {
	Syncer Syncer
}

func (s *SyncStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, tx := range state.Transactions {
		outcome, err := s.Syncer.Sync(ctx, tx)
		if err != nil {
			return fmt.Errorf("sync transaction %s: %w", tx.TransactionID, err)
		}
		switch outcome {
		case domain.SyncCreated:
			state.Created++
		case domain.SyncSkipped:
			state.Skipped++
		}
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
		if state.Halted {
			return nil
		}
	}
	return nil
}
