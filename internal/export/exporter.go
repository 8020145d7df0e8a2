// Package export encodes query results as JSON, CSV or XLSX files and
// publishes them to object storage behind a presigned download URL.
package export

import (
	"bytes"
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/filestore"
	"github.com/koustreak/dbdesk/internal/logger"
)

// keyPrefix is prepended to generated object keys.
const keyPrefix = "exports/"

// Options configures an Exporter.
type Options struct {
	Bucket string
	URLTTL time.Duration
	Logger *logger.Logger

	// Now overrides the clock used for expiry times.
	Now func() time.Time
}

// Exporter uploads encoded result sets to a filestore.Store.
type Exporter struct {
	store  filestore.Store
	bucket string
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// Result describes one published export.
type Result struct {
	Object    *filestore.ObjectInfo `json:"object"`
	Format    Format                `json:"format"`
	Rows      int                   `json:"rows"`
	URL       string                `json:"url"`
	ExpiresAt time.Time             `json:"expiresAt"`
}

// New creates an Exporter writing to opts.Bucket.
func New(store filestore.Store, opts Options) (*Exporter, error) {
	if store == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "export store is required")
	}
	if opts.Bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "export bucket is required")
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{
		store:  store,
		bucket: opts.Bucket,
		ttl:    opts.URLTTL,
		log:    opts.Logger.With().Str("component", "export").Logger(),
		now:    opts.Now,
	}, nil
}

// Export encodes rows, uploads them under key, confirms the stored object
// and presigns a download URL.
// An empty key gets a generated name; a key without the format's
// extension gets it appended.
func (e *Exporter) Export(ctx context.Context, key string, format Format, columns []string, rows []database.Row) (*Result, error) {
	key, err := objectKey(key, format)
	if err != nil {
		return nil, err
	}
	body, err := Encode(format, columns, rows)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), filestore.PutOptions{
		ContentType: format.ContentType(),
		Metadata:    map[string]string{"rows": strconv.Itoa(len(rows))},
	}); err != nil {
		e.log.WarnWith("export upload failed", err, map[string]interface{}{"key": key})
		return nil, errs.Label("export upload failed", err, errs.ErrKindConnectionFailed)
	}

	// The stored object is the source of truth for size, etag and mtime.
	info, err := e.store.StatObject(ctx, e.bucket, key)
	if err != nil {
		e.log.WarnWith("export verification failed", err, map[string]interface{}{"key": key})
		return nil, errs.Label("export verification failed", err, errs.ErrKindConnectionFailed)
	}
	if info.Size != int64(len(body)) {
		return nil, errs.New(errs.ErrKindUnknown,
			"export verification failed: stored "+strconv.FormatInt(info.Size, 10)+
				" bytes, uploaded "+strconv.Itoa(len(body)))
	}

	url, err := e.store.PresignGetURL(ctx, e.bucket, key, e.ttl)
	if err != nil {
		return nil, errs.Label("export presign failed", err, errs.ErrKindConnectionFailed)
	}

	e.log.InfoWith("export published", map[string]interface{}{
		"bucket": e.bucket,
		"key":    key,
		"format": string(format),
		"rows":   len(rows),
		"bytes":  len(body),
	})
	return &Result{
		Object:    info,
		Format:    format,
		Rows:      len(rows),
		URL:       url,
		ExpiresAt: e.now().Add(e.ttl),
	}, nil
}

func objectKey(key string, format Format) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return keyPrefix + uuid.NewString() + format.Extension(), nil
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.HasSuffix(key, "/") {
		return "", errs.New(errs.ErrKindInvalidInput, "invalid export key "+strconv.Quote(key))
	}
	if !strings.EqualFold(path.Ext(key), format.Extension()) {
		key += format.Extension()
	}
	return key, nil
}
