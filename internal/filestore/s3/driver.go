// Package s3 provides an AWS S3 (and S3-compatible) implementation of
// filestore.Store built on aws-sdk-go-v2.
package s3

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
)

const defaultRegion = "us-east-1"

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*awss3.Options)) *awss3.Client {
		return awss3.NewFromConfig(cfg, optFns...)
	}
)

// Driver is an S3 implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	creds   aws.CredentialsProvider
	bucket  string
}

// New builds an S3 client from cfg and verifies the bucket is reachable.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	d, err := newDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// newDriver resolves configuration without touching the network.
// A configured key pair wins; otherwise the SDK default chain applies.
func newDriver(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.HasStaticCredentials() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to load aws config", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible servers do not all accept trailing checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Driver{
		client:  client,
		presign: awss3.NewPresignClient(client),
		creds:   awsCfg.Credentials,
		bucket:  cfg.Bucket,
	}, nil
}

func (d *Driver) requireCredentials(ctx context.Context) error {
	if d.creds == nil {
		return errs.New(errs.ErrKindCredentialsUnavailable, "object store credentials not available")
	}
	v, err := d.creds.Retrieve(ctx)
	if err != nil || !v.HasKeys() {
		return errs.Wrap(errs.ErrKindCredentialsUnavailable, "object store credentials not available", err)
	}
	return nil
}

// Ping checks that the configured bucket exists and is accessible.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.requireCredentials(ctx); err != nil {
		return err
	}

	if _, err := d.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(d.bucket)}); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op; the SDK client owns no resources that need releasing.
func (d *Driver) Close() error {
	return nil
}

// ListObjects returns every object in bucket, following continuation tokens.
func (d *Driver) ListObjects(ctx context.Context, bucket string) ([]filestore.ObjectInfo, error) {
	if err := d.requireCredentials(ctx); err != nil {
		return nil, err
	}

	results := make([]filestore.ObjectInfo, 0)
	p := awss3.NewListObjectsV2Paginator(d.client, &awss3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, "failed to list objects")
		}
		for _, obj := range page.Contents {
			results = append(results, filestore.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return results, nil
}

// PutObject uploads r under key. A negative size leaves the length unset.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if err := d.requireCredentials(ctx); err != nil {
		return err
	}

	in := &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := d.client.PutObject(ctx, in); err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// PresignGetURL signs a GET for key valid for ttl. No request is sent.
func (d *Driver) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := d.requireCredentials(ctx); err != nil {
		return "", err
	}

	req, err := d.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", mapError(err, "failed to generate presigned URL")
	}
	return req.URL, nil
}

// DeleteObject removes key. Deleting a missing key succeeds.
func (d *Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := d.requireCredentials(ctx); err != nil {
		return err
	}

	if _, err := d.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return mapError(err, "failed to delete object")
	}
	return nil
}
