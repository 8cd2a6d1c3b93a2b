// Package gcstorage adapts Google Cloud Storage to the object-storage
// interface the avatar pipeline uploads through.
package gcstorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
)

type Storage struct {
	client *storage.Client
	bucket string
}

func New(client *storage.Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// Upload writes data at path. Writes always overwrite the object at the
// key, so upserts need no precondition; a non-upsert upload fails when the
// object already exists.
func (s *Storage) Upload(ctx context.Context, path string, data []byte, opts provider.UploadOptions) error {
	obj := s.client.Bucket(s.bucket).Object(path)
	if !opts.Upsert {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	wc := obj.NewWriter(ctx)
	wc.ContentType = opts.ContentType
	wc.ChunkSize = 0 // avatars are small; skip chunking
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func (s *Storage) GetPublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

// Remove deletes the objects at the given paths. Deleting a missing object
// is surfaced as an error so callers can keep delete-then-patch atomicity.
func (s *Storage) Remove(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.client.Bucket(s.bucket).Object(p).Delete(ctx); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

var _ provider.ObjectStorage = (*Storage)(nil)
