// Package files is the file workflow over a single bucket: list, upload,
// presigned download and delete. Authorization happens before these calls.
package files

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
	"github.com/koustreak/sharebox/internal/logger"
)

// DownloadTTL is how long a presigned download link stays valid.
const DownloadTTL = 3600 * time.Second

// Service scopes every object-store call to one bucket.
type Service struct {
	store  filestore.Store
	bucket string
	log    *logger.Logger
}

// NewService scopes store to bucket. log is used for calls whose context
// carries no request logger.
func NewService(store filestore.Store, bucket string, log *logger.Logger) *Service {
	return &Service{store: store, bucket: bucket, log: log}
}

// List returns the keys currently in the bucket, in the store's order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	objs, err := s.store.ListObjects(ctx, s.bucket)
	if err != nil {
		return nil, err
	}
	return filestore.Keys(objs), nil
}

// Upload stores r under filename, replacing any object with that key.
// Only the base name of filename is used.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := KeyFromFilename(filename)
	if key == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "filename is required")
	}

	if err := s.store.PutObject(ctx, s.bucket, key, r, size, contentType); err != nil {
		return "", err
	}

	logger.FromContextOr(ctx, s.log).InfoWith("file uploaded", map[string]any{"key": key, "size": size})
	return key, nil
}

// DownloadURL issues a presigned GET for key valid for DownloadTTL.
// The key is not checked for existence.
func (s *Service) DownloadURL(ctx context.Context, key string) (string, error) {
	return s.store.PresignGetURL(ctx, s.bucket, key, DownloadTTL)
}

// Delete removes key. A missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.DeleteObject(ctx, s.bucket, key); err != nil {
		return err
	}

	logger.FromContextOr(ctx, s.log).With().Str("key", key).Logger().Info("file deleted")
	return nil
}

// Ping checks the object store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// KeyFromFilename strips any directory part a browser may send.
func KeyFromFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
