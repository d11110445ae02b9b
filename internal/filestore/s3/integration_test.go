//go:build integration

package s3

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
	"github.com/koustreak/sharebox/internal/filestore/filestoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_FileLifecycle(t *testing.T) {
	env := filestoretest.StartMinIO(t, "shared")
	ctx := context.Background()

	d, err := New(ctx, &filestore.Config{
		Provider:  filestore.ProviderS3,
		Endpoint:  env.URL(),
		AccessKey: env.AccessKey,
		SecretKey: env.SecretKey,
		Region:    "us-east-1",
		Bucket:    env.Bucket,
		PathStyle: true,
	})
	require.NoError(t, err)
	defer d.Close()

	objs, err := d.ListObjects(ctx, env.Bucket)
	require.NoError(t, err)
	assert.Empty(t, objs)

	body := "quarterly numbers"
	require.NoError(t, d.PutObject(ctx, env.Bucket, "report.txt", strings.NewReader(body), int64(len(body)), "text/plain"))
	require.NoError(t, d.PutObject(ctx, env.Bucket, "a file.txt", strings.NewReader("x"), 1, ""))

	objs, err = d.ListObjects(ctx, env.Bucket)
	require.NoError(t, err)
	assert.Equal(t, []string{"a file.txt", "report.txt"}, filestore.Keys(objs))

	link, err := d.PresignGetURL(ctx, env.Bucket, "report.txt", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "X-Amz-Expires=3600")

	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, string(got))

	require.NoError(t, d.DeleteObject(ctx, env.Bucket, "report.txt"))
	require.NoError(t, d.DeleteObject(ctx, env.Bucket, "report.txt"))

	objs, err = d.ListObjects(ctx, env.Bucket)
	require.NoError(t, err)
	assert.Equal(t, []string{"a file.txt"}, filestore.Keys(objs))
}

func TestIntegration_WrongSecretIsPermissionDenied(t *testing.T) {
	env := filestoretest.StartMinIO(t, "shared")

	_, err := New(context.Background(), &filestore.Config{
		Provider:  filestore.ProviderS3,
		Endpoint:  env.URL(),
		AccessKey: env.AccessKey,
		SecretKey: "not-the-secret",
		Region:    "us-east-1",
		Bucket:    env.Bucket,
		PathStyle: true,
	})
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err), "got %v", err)
}
