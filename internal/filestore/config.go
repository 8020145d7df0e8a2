package filestore

import "github.com/koustreak/dbdesk/internal/errs"

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to reach a storage backend.
type Config struct {
	Provider Provider

	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// DefaultBucket receives exports when the caller names no bucket.
	DefaultBucket string
}

// Validate checks the fields every provider needs.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "filestore endpoint is required")
	}
	if c.DefaultBucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "filestore bucket is required")
	}
	return nil
}
