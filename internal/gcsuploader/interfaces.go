package gcsuploader

import (
	"context"
)

// StorageService provides an interface for cloud storage uploads.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error
}
