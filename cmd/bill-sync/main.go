package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dvloznov/bill-sync/internal/config"
	"github.com/dvloznov/bill-sync/internal/gcsuploader"
	"github.com/dvloznov/bill-sync/internal/infra/bigquery"
	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/dvloznov/bill-sync/internal/notionsync"
	"github.com/dvloznov/bill-sync/internal/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bill-sync <ticket_body>",
		Short: "Sync a zipped WeChat Pay or Alipay export into Notion",
		Long: "Finds the .zip link in the ticket body, downloads and unpacks the export, " +
			"and creates one Notion bill page per new income or expense record.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				l := logger.New()
				l.Error().Err(err).Msg("Invalid configuration")
				return err
			}

			log := logger.NewWithLevel(cfg.LogLevel)
			ctx := logger.WithContext(cmd.Context(), log)

			if err := run(ctx, cfg, args[0]); err != nil {
				log.Error().Err(err).Msg("Bill sync failed")
				return err
			}
			return nil
		},
	}
}

// run wires the collaborators from cfg and executes one sync of body.
func run(ctx context.Context, cfg *config.Config, body string) error {
	log := logger.FromContext(ctx)

	workDir, err := os.MkdirTemp(cfg.WorkDir, "bill-sync-*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	notion := notionsync.NewRetryingService(
		notionsync.NewNotionClient(cfg.NotionToken),
		notionsync.RetryPolicy{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
	)

	dbs, err := notionsync.DiscoverDatabases(ctx, notion, cfg.NotionPage, cfg.Databases)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Fetcher:   pipeline.NewHTTPFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.ArchiveToken, workDir),
		Extractor: pipeline.NewZipExtractor(cfg.ZipPassword, workDir),
		Syncer:    notionsync.NewSyncer(notion, dbs),
		Location:  cfg.Location(),
	}

	if cfg.ArchiveBucket != "" {
		storage, err := gcsuploader.NewGCSStorageService(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Archive backup disabled")
		} else {
			defer storage.Close()
			deps.Backup = gcsuploader.NewArchiveBackup(storage, cfg.ArchiveBucket)
		}
	}

	if cfg.BigQueryProject != "" {
		ledger, err := bigquery.NewSyncRunLedger(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Sync run ledger disabled")
		} else {
			defer ledger.Close()
			if err := ledger.EnsureTable(ctx); err != nil {
				log.Warn().Err(err).Msg("Sync run ledger disabled")
			} else {
				deps.Recorder = ledger
			}
		}
	}

	_, err = pipeline.Run(ctx, body, deps)
	return err
}
