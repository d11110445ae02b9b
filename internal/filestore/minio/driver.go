// Package minio provides a MinIO implementation of filestore.Store.
//
// Usage:
//
//	cfg := &filestore.Config{
//		Provider: filestore.ProviderMinIO,
//		Endpoint: "localhost:9000",
//		Bucket:   "shared",
//	}
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objects, err := store.ListObjects(ctx, "shared")
package minio

import (
	"context"
	"io"
	"time"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	creds  *credentials.Credentials
	bucket string
}

// New connects to MinIO using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	d, err := newDriver(cfg)
	if err != nil {
		return nil, err
	}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// newDriver builds the client without touching the network.
func newDriver(cfg *filestore.Config) (*Driver, error) {
	creds := resolveCredentials(cfg)

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	return &Driver{client: client, creds: creds, bucket: cfg.Bucket}, nil
}

// resolveCredentials prefers the configured static pair and otherwise
// chains the environment and the shared AWS credentials file.
func resolveCredentials(cfg *filestore.Config) *credentials.Credentials {
	if cfg.HasStaticCredentials() {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
	})
}

// requireCredentials fails when the credential chain resolves to nothing
// usable, which minio-go would otherwise turn into anonymous requests.
func (d *Driver) requireCredentials() error {
	v, err := d.creds.Get()
	if err != nil || v.SignerType.IsAnonymous() || v.AccessKeyID == "" {
		return errs.Wrap(errs.ErrKindCredentialsUnavailable, "object store credentials not available", err)
	}
	return nil
}

// --- filestore.Store implementation ---

// Ping verifies the MinIO server is reachable and the configured bucket exists.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.requireCredentials(); err != nil {
		return err
	}

	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, "bucket "+d.bucket+" does not exist")
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// ListObjects returns every object in bucket.
func (d *Driver) ListObjects(ctx context.Context, bucket string) ([]filestore.ObjectInfo, error) {
	if err := d.requireCredentials(); err != nil {
		return nil, err
	}

	results := make([]filestore.ObjectInfo, 0)
	for obj := range d.client.ListObjects(ctx, bucket, miniogo.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list objects")
		}

		results = append(results, filestore.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}

	return results, nil
}

// PutObject uploads r under key, overwriting any existing object.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if err := d.requireCredentials(); err != nil {
		return err
	}

	_, err := d.client.PutObject(ctx, bucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// PresignGetURL returns a time-limited public download URL for the object.
func (d *Driver) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := d.requireCredentials(); err != nil {
		return "", err
	}

	u, err := d.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", mapError(err, "failed to generate presigned URL")
	}
	return u.String(), nil
}

// DeleteObject removes key from bucket. S3 semantics make this idempotent.
func (d *Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := d.requireCredentials(); err != nil {
		return err
	}

	if err := d.client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return mapError(err, "failed to delete object")
	}
	return nil
}
