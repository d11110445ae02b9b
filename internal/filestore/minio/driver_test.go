package minio

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
	"github.com/koustreak/sharebox/internal/filestore/filestoretest"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeDriver(t *testing.T, objects map[string]int64) (*Driver, *filestoretest.S3Server) {
	t.Helper()
	fake := filestoretest.NewS3Server(t, "shared", objects)

	d, err := New(context.Background(), &filestore.Config{
		Provider:  filestore.ProviderMinIO,
		Endpoint:  fake.Host(),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		Bucket:    "shared",
	})
	require.NoError(t, err)
	return d, fake
}

func TestNew_MissingBucket(t *testing.T) {
	fake := filestoretest.NewS3Server(t, "other", nil)

	_, err := New(context.Background(), &filestore.Config{
		Endpoint:  fake.Host(),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		Bucket:    "shared",
	})
	assert.True(t, errs.IsNotFound(err))
}

func TestListObjects(t *testing.T) {
	d, _ := newFakeDriver(t, map[string]int64{"b.txt": 2, "a.txt": 1})

	objs, err := d.ListObjects(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, filestore.Keys(objs))
	assert.Equal(t, int64(1), objs[0].Size)
}

func TestListObjects_EmptyBucket(t *testing.T) {
	d, _ := newFakeDriver(t, map[string]int64{})

	objs, err := d.ListObjects(context.Background(), "shared")
	require.NoError(t, err)
	assert.NotNil(t, objs)
	assert.Empty(t, objs)
}

func TestPutAndDelete(t *testing.T) {
	d, fake := newFakeDriver(t, map[string]int64{})
	ctx := context.Background()

	require.NoError(t, d.PutObject(ctx, "shared", "report.pdf", strings.NewReader("hello"), 5, "application/pdf"))
	assert.True(t, fake.Has("report.pdf"))

	require.NoError(t, d.DeleteObject(ctx, "shared", "report.pdf"))
	assert.False(t, fake.Has("report.pdf"))

	// second delete of the same key is still a success
	require.NoError(t, d.DeleteObject(ctx, "shared", "report.pdf"))
}

func TestPresignGetURL(t *testing.T) {
	d, err := newDriver(&filestore.Config{
		Endpoint:  "127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		Bucket:    "shared",
	})
	require.NoError(t, err)

	raw, err := d.PresignGetURL(context.Background(), "shared", "missing.pdf", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/shared/missing.pdf", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestCredentialsUnavailable(t *testing.T) {
	filestoretest.ClearAmbientCredentials(t)

	d, err := newDriver(&filestore.Config{Endpoint: "127.0.0.1:9000", Region: "us-east-1", Bucket: "shared"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.ListObjects(ctx, "shared")
	assert.True(t, errs.IsCredentialsUnavailable(err))

	err = d.PutObject(ctx, "shared", "k", strings.NewReader("x"), 1, "")
	assert.True(t, errs.IsCredentialsUnavailable(err))

	_, err = d.PresignGetURL(ctx, "shared", "k", time.Hour)
	assert.True(t, errs.IsCredentialsUnavailable(err))

	err = d.DeleteObject(ctx, "shared", "k")
	assert.True(t, errs.IsCredentialsUnavailable(err))

	assert.True(t, errs.IsCredentialsUnavailable(d.Ping(ctx)))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, errs.ErrKindNotFound},
		{"bad signature", miniogo.ErrorResponse{Code: "SignatureDoesNotMatch", StatusCode: 403}, errs.ErrKindPermissionDenied},
		{"bad name", miniogo.ErrorResponse{Code: "InvalidObjectName", StatusCode: 400}, errs.ErrKindInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: 503}, errs.ErrKindTimeout},
		{"status only", miniogo.ErrorResponse{StatusCode: 401}, errs.ErrKindPermissionDenied},
		{"network", errors.New("connection reset"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapError(tt.err, "op").Kind)
		})
	}
}
