package filestore

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO  Provider = "minio"
	ProviderS3     Provider = "s3"
	ProviderMemory Provider = "memory"
)

// Config holds all settings needed to connect to an object storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server for MinIO, or a full
	// base URL for S3-compatible servers. Leave empty for AWS S3.
	Endpoint string

	// AccessKey is the access key ID. When AccessKey and SecretKey are both
	// empty the provider falls back to its ambient credential chain
	// (environment, shared config, instance metadata).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for MinIO connections.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	Region string

	// Bucket is the single bucket all file operations are scoped to.
	Bucket string

	// PathStyle forces path-style addressing on the S3 provider,
	// which S3-compatible servers such as MinIO or Garage require.
	PathStyle bool
}

// HasStaticCredentials reports whether both halves of a static key pair are set.
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}
