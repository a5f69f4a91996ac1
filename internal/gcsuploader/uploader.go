package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a storage client. An empty credentialsFile uses
// Application Default Credentials.
func NewGCSStorageService(ctx context.Context, credentialsFile string) (*GCSStorageService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// Close closes the storage client.
func (s *GCSStorageService) Close() error {
	return s.client.Close()
}

// UploadFile uploads a local file to a GCS bucket under the given object name.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType(filePath)
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}
