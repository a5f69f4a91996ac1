package domain

// SyncOutcome reports what happened to a single transaction during sync.
type SyncOutcome string

const (
	// SyncCreated means a new page was written for the transaction.
	SyncCreated SyncOutcome = "created"
	// SyncSkipped means a page with the same transaction id already existed.
	SyncSkipped SyncOutcome = "skipped"
)

// RunStats summarizes one pipeline run.
type RunStats struct {
	ArchiveURL string
	Files      int // CSV files parsed
	Rows       int // raw rows read after the header
	Dropped    int // rows without a recognized direction
	Created    int
	Skipped    int
}
