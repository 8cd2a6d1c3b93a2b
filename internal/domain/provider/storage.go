package provider

import "context"

// UploadOptions mirrors the object-storage upload knobs the app relies on.
// Upsert overwrites any existing object at the key.
type UploadOptions struct {
	ContentType string
	Upsert      bool
}

// ObjectStorage is the backend file-storage client. Keys are
// bucket-relative paths such as "{userID}/avatar".
type ObjectStorage interface {
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) error
	GetPublicURL(path string) string
	Remove(ctx context.Context, paths []string) error
}
