package gcsuploader

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/google/uuid"
)

// archivePrefix is the object prefix of backed up exports.
const archivePrefix = "exports"

// ArchiveBackup copies downloaded export archives to a bucket before extraction.
// It implements pipeline.ArchiveBackup.
type ArchiveBackup struct {
	storage StorageService
	bucket  string
	now     func() time.Time
	newID   func() string
}

// NewArchiveBackup creates a backup writing into bucket.
func NewArchiveBackup(storage StorageService, bucket string) *ArchiveBackup {
	return &ArchiveBackup{
		storage: storage,
		bucket:  bucket,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// BackupArchive uploads the archive at localPath and returns its gs:// URI.
func (b *ArchiveBackup) BackupArchive(ctx context.Context, localPath string) (string, error) {
	log := logger.FromContext(ctx)

	objectName := ArchiveObjectName(b.now(), b.newID(), localPath)
	if err := b.storage.UploadFile(ctx, b.bucket, objectName, localPath); err != nil {
		return "", fmt.Errorf("BackupArchive: %w", err)
	}

	uri := GCSURI(b.bucket, objectName)
	log.Debug().Str("uri", uri).Str("path", localPath).Msg("Uploaded archive")
	return uri, nil
}

// ArchiveObjectName returns exports/YYYY/MM/DD/<id>-<file name> for an archive
// downloaded at the given time.
func ArchiveObjectName(at time.Time, id, localPath string) string {
	return path.Join(
		archivePrefix,
		at.Format("2006"),
		at.Format("01"),
		at.Format("02"),
		id+"-"+filepath.Base(localPath),
	)
}

// GCSURI formats a bucket and object name as a gs:// URI.
func GCSURI(bucket, objectName string) string {
	return "gs://" + bucket + "/" + strings.TrimPrefix(objectName, "/")
}

func contentType(filePath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filePath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
