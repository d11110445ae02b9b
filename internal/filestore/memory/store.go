// Package memory is an in-process filestore.Store for tests and local
// runs without an object store. Contents are lost on exit.
package memory

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Store keeps objects per bucket in memory. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	buckets map[string]map[string]object
	now     func() time.Time
}

// New returns a Store that already holds the given buckets.
// baseURL prefixes generated download links.
func New(baseURL string, buckets ...string) *Store {
	s := &Store{
		baseURL: baseURL,
		buckets: make(map[string]map[string]object, len(buckets)),
		now:     time.Now,
	}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]object)
	}
	return s
}

func (s *Store) bucket(name string) (map[string]object, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "bucket "+name+" does not exist")
	}
	return b, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// ListObjects returns the objects in bucket ordered by key.
func (s *Store) ListObjects(ctx context.Context, bucket string) ([]filestore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}

	out := make([]filestore.ObjectInfo, 0, len(b))
	for k, o := range b {
		out = append(out, filestore.ObjectInfo{
			Key:          k,
			Size:         int64(len(o.data)),
			ContentType:  o.contentType,
			LastModified: o.modified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if key == "" {
		return errs.New(errs.ErrKindInvalidInput, "object key is required")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to read upload", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("expected %d bytes, got %d", size, len(data)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	b[key] = object{data: data, contentType: contentType, modified: s.now()}
	return nil
}

// PresignGetURL builds an unsigned link carrying the expiry. It does not
// check that the object exists, matching real presigning.
func (s *Store) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.bucket(bucket); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(ttl/time.Second)))
	return fmt.Sprintf("%s/%s/%s?%s", s.baseURL, url.PathEscape(bucket), url.PathEscape(key), q.Encode()), nil
}

func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	delete(b, key)
	return nil
}

// Object returns a copy of the stored bytes, for assertions in tests.
func (s *Store) Object(bucket, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), o.data...), true
}
