package filestore

import "time"

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"` // -1 if unknown
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// PutOptions controls how an object is written.
type PutOptions struct {
	// ContentType is stored with the object and returned on download.
	ContentType string

	// Metadata is attached as user metadata (x-amz-meta-*).
	Metadata map[string]string
}
