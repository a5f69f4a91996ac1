package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock implementation of pipeline.Fetcher.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, url string) (string, error)
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return m.FetchFunc(ctx, url)
}

// MockExtractor is a mock implementation of pipeline.Extractor.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, archivePath string) ([]string, error)
}

func (m *MockExtractor) Extract(ctx context.Context, archivePath string) ([]string, error) {
	return m.ExtractFunc(ctx, archivePath)
}

// MockBackup is a mock implementation of pipeline.ArchiveBackup.
type MockBackup struct {
	BackupArchiveFunc func(ctx context.Context, localPath string) (string, error)
}

func (m *MockBackup) BackupArchive(ctx context.Context, localPath string) (string, error) {
	return m.BackupArchiveFunc(ctx, localPath)
}

// MockSyncer records transactions and skips ids it has already seen.
type MockSyncer struct {
	seen map[string]bool
	err  error
}

func (m *MockSyncer) Sync(ctx context.Context, tx *domain.Transaction) (domain.SyncOutcome, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[tx.TransactionID] {
		return domain.SyncSkipped, nil
	}
	m.seen[tx.TransactionID] = true
	return domain.SyncCreated, nil
}

// MockRecorder is a mock implementation of pipeline.RunRecorder.
type MockRecorder struct {
	StartFunc  func(ctx context.Context) (string, error)
	FinishFunc func(ctx context.Context, runID string, stats domain.RunStats, runErr error) error
}

func (m *MockRecorder) Start(ctx context.Context) (string, error) {
	return m.StartFunc(ctx)
}

func (m *MockRecorder) Finish(ctx context.Context, runID string, stats domain.RunStats, runErr error) error {
	return m.FinishFunc(ctx, runID, stats, runErr)
}

const exportCSV = "导出信息\n" +
	"交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,交易单号,备注\n" +
	"2024-01-15 12:30:00,商户消费,便利店,矿泉水,支出,¥12.50,零钱,A1,/\n" +
	"2024-01-15 13:00:00,零钱通,零钱通,转入,其他,¥50.00,零钱,A2,/\n" +
	"2024-01-16 09:00:00,转账,张三,转账,收入,¥100.00,零钱,A3,/\n" +
	"2024-01-16 09:00:00,转账,张三,转账,收入,¥100.00,零钱,A3,/\n"

const ticketBody = "本月账单 https://example.com/files/export.zip 请处理"

func testDeps(t *testing.T, syncer pipeline.Syncer) pipeline.Deps {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bill.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(exportCSV), 0o644))
	txtPath := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("ignore me"), 0o644))

	return pipeline.Deps{
		Fetcher: &MockFetcher{FetchFunc: func(ctx context.Context, url string) (string, error) {
			return filepath.Join(dir, "export.zip"), nil
		}},
		Extractor: &MockExtractor{ExtractFunc: func(ctx context.Context, archivePath string) ([]string, error) {
			return []string{csvPath, txtPath}, nil
		}},
		Syncer:   syncer,
		Location: time.UTC,
	}
}

func TestRun_CountsCreatedSkippedAndDropped(t *testing.T) {
	deps := testDeps(t, &MockSyncer{})

	stats, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStats{
		ArchiveURL: "https://example.com/files/export.zip",
		Files:      1,
		Rows:       4,
		Dropped:    1,
		Created:    2,
		Skipped:    1,
	}, stats)
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	syncer := &MockSyncer{}
	deps := testDeps(t, syncer)

	_, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err)
	stats, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err)

	assert.Zero(t, stats.Created)
	assert.Equal(t, 3, stats.Skipped)
}

func TestRun_NoArchiveHaltsWithoutError(t *testing.T) {
	fetched := false
	deps := pipeline.Deps{
		Fetcher: &MockFetcher{FetchFunc: func(ctx context.Context, url string) (string, error) {
			fetched = true
			return "", nil
		}},
	}

	stats, err := pipeline.Run(context.Background(), "no attachment here", deps)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, domain.RunStats{}, stats)
}

func TestRun_BackupFailureIsNotFatal(t *testing.T) {
	deps := testDeps(t, &MockSyncer{})
	deps.Backup = &MockBackup{BackupArchiveFunc: func(ctx context.Context, localPath string) (string, error) {
		return "", errors.New("bucket not found")
	}}

	stats, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
}

func TestRun_FetchErrorAborts(t *testing.T) {
	deps := testDeps(t, &MockSyncer{})
	deps.Fetcher = &MockFetcher{FetchFunc: func(ctx context.Context, url string) (string, error) {
		return "", errors.New("403 Forbidden")
	}}

	_, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403 Forbidden")
}

func TestRun_SyncErrorAborts(t *testing.T) {
	deps := testDeps(t, &MockSyncer{err: errors.New("notion unavailable")})

	stats, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A1")
	assert.Zero(t, stats.Created)
}

func TestRun_RecordsLedger(t *testing.T) {
	var (
		finishedID    string
		finishedStats domain.RunStats
		finishedErr   error
	)
	recorder := &MockRecorder{
		StartFunc: func(ctx context.Context) (string, error) {
			return "run-1", nil
		},
		FinishFunc: func(ctx context.Context, runID string, stats domain.RunStats, runErr error) error {
			finishedID, finishedStats, finishedErr = runID, stats, runErr
			return errors.New("ledger unavailable")
		},
	}

	deps := testDeps(t, &MockSyncer{})
	deps.Recorder = recorder

	stats, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err, "ledger errors never fail the run")

	assert.Equal(t, "run-1", finishedID)
	assert.Equal(t, stats, finishedStats)
	assert.NoError(t, finishedErr)
}

func TestRun_RecorderStartFailureSkipsFinish(t *testing.T) {
	finished := false
	deps := testDeps(t, &MockSyncer{})
	deps.Recorder = &MockRecorder{
		StartFunc: func(ctx context.Context) (string, error) {
			return "", errors.New("no dataset")
		},
		FinishFunc: func(ctx context.Context, runID string, stats domain.RunStats, runErr error) error {
			finished = true
			return nil
		},
	}

	_, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.NoError(t, err)
	assert.False(t, finished)
}

func TestRun_RecordsFailure(t *testing.T) {
	var finishedErr error
	deps := testDeps(t, &MockSyncer{err: errors.New("boom")})
	deps.Recorder = &MockRecorder{
		StartFunc: func(ctx context.Context) (string, error) { return "run-2", nil },
		FinishFunc: func(ctx context.Context, runID string, stats domain.RunStats, runErr error) error {
			finishedErr = runErr
			return nil
		},
	}

	_, err := pipeline.Run(context.Background(), ticketBody, deps)
	require.Error(t, err)
	assert.ErrorIs(t, finishedErr, err)
}
