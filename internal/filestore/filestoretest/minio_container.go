//go:build integration

package filestoretest

import (
	"context"
	"net"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage = "docker.io/minio/minio:RELEASE.2024-12-18T13-15-44Z"
	minioPort  = "9000/tcp"
)

// MinIOEnv is a running MinIO container with one bucket created.
type MinIOEnv struct {
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	Bucket    string
}

// URL is the endpoint with its scheme, as the s3 provider expects it.
func (e MinIOEnv) URL() string {
	return "http://" + e.Endpoint
}

// StartMinIO runs a MinIO container for the duration of t and creates
// bucket in it. The test is skipped under -short or when no container
// runtime is reachable.
func StartMinIO(t *testing.T, bucket string) MinIOEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := MinIOEnv{AccessKey: "sharebox", SecretKey: "sharebox-secret", Bucket: bucket}

	container, err := testcontainers.Run(ctx, minioImage,
		testcontainers.WithEnv(map[string]string{
			"MINIO_ROOT_USER":     env.AccessKey,
			"MINIO_ROOT_PASSWORD": env.SecretKey,
		}),
		testcontainers.WithCmd("server", "/data"),
		testcontainers.WithExposedPorts(minioPort),
		testcontainers.WithWaitStrategy(wait.ForHTTP("/minio/health/live").WithPort(minioPort)),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, minioPort)
	require.NoError(t, err)
	env.Endpoint = net.JoinHostPort(host, port.Port())

	client, err := miniogo.New(env.Endpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4(env.AccessKey, env.SecretKey, ""),
	})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{Region: "us-east-1"}))

	return env
}
