package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/filestore"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	statErr error
	short   bool
	lastTTL time.Duration
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Ping(ctx context.Context) error                        { return nil }
func (m *memStore) Close() error                                          { return nil }
func (m *memStore) EnsureBucket(ctx context.Context, bucket string) error { return nil }

func (m *memStore) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[bucket+"/"+key] = body
	m.types[bucket+"/"+key] = opts.ContentType
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body)), ContentType: opts.ContentType}, nil
}

func (m *memStore) StatObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	if m.statErr != nil {
		return nil, m.statErr
	}
	body, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	size := int64(len(body))
	if m.short {
		size--
	}
	return &filestore.ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         size,
		ContentType:  m.types[bucket+"/"+key],
		ETag:         "etag-1",
		LastModified: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (m *memStore) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	m.lastTTL = ttl
	return "https://files.example/" + bucket + "/" + key + "?sig=x", nil
}

func sampleRows() ([]string, []database.Row) {
	cols := []string{"id", "name", "note", "blob"}
	return cols, []database.Row{
		database.NewRow(cols, []database.Value{database.Integer(1), database.String("ann"), database.Null(), database.Bytes([]byte{0xff})}),
		database.NewRow(cols, []database.Value{database.Integer(2), database.String("bo, jr"), database.String("x"), database.Null()}),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, " CSV ": FormatCSV, "Xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("parquet")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestEncode_JSON(t *testing.T) {
	cols, rows := sampleRows()
	out, err := Encode(FormatJSON, cols, rows)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"id":1,"name":"ann","note":null,"blob":"/w=="},{"id":2,"name":"bo, jr","note":"x","blob":null}]`,
		string(out))

	empty, err := Encode(FormatJSON, cols, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestEncode_CSV(t *testing.T) {
	cols, rows := sampleRows()
	out, err := Encode(FormatCSV, cols, rows)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "note", "blob"},
		{"1", "ann", "", "/w=="},
		{"2", "bo, jr", "x", ""},
	}, records)
}

func TestEncode_XLSX(t *testing.T) {
	cols, rows := sampleRows()
	out, err := Encode(FormatXLSX, cols, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"id", "name", "note", "blob"}, got[0])
	assert.Equal(t, []string{"1", "ann", "", "/w=="}, got[1])
	assert.Equal(t, "bo, jr", got[2][1])
}

func TestExport(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e, err := New(store, Options{Bucket: "exports", URLTTL: 30 * time.Minute, Now: func() time.Time { return now }})
	require.NoError(t, err)

	cols, rows := sampleRows()
	res, err := e.Export(context.Background(), "reports/users", FormatCSV, cols, rows)
	require.NoError(t, err)

	assert.Equal(t, "reports/users.csv", res.Object.Key)
	assert.Equal(t, "exports", res.Object.Bucket)
	assert.Equal(t, "etag-1", res.Object.ETag)
	assert.Equal(t, "text/csv", res.Object.ContentType)
	assert.Equal(t, int64(len(store.objects["exports/reports/users.csv"])), res.Object.Size)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, FormatCSV, res.Format)
	assert.Equal(t, "https://files.example/exports/reports/users.csv?sig=x", res.URL)
	assert.Equal(t, now.Add(30*time.Minute), res.ExpiresAt)
	assert.Equal(t, 30*time.Minute, store.lastTTL)
	assert.Equal(t, "text/csv", store.types["exports/reports/users.csv"])
	assert.True(t, strings.HasPrefix(string(store.objects["exports/reports/users.csv"]), "id,name,note,blob\n"))
}

func TestExport_Keys(t *testing.T) {
	store := newMemStore()
	e, err := New(store, Options{Bucket: "b"})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := e.Export(ctx, "", FormatXLSX, nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Object.Key, "exports/"))
	assert.True(t, strings.HasSuffix(res.Object.Key, ".xlsx"))

	res, err = e.Export(ctx, "dump.JSON", FormatJSON, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "dump.JSON", res.Object.Key)

	for _, bad := range []string{"/abs", "../escape", "dir/"} {
		_, err := e.Export(ctx, bad, FormatJSON, nil, nil)
		assert.True(t, errs.IsInvalidInput(err), bad)
	}
}

func TestExport_UploadFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errs.New(errs.ErrKindPermissionDenied, "access denied")
	e, err := New(store, Options{Bucket: "b"})
	require.NoError(t, err)

	_, err = e.Export(context.Background(), "x", FormatJSON, nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
}

func TestExport_VerifiesStoredObject(t *testing.T) {
	store := newMemStore()
	e, err := New(store, Options{Bucket: "b"})
	require.NoError(t, err)
	cols, rows := sampleRows()

	store.statErr = errs.New(errs.ErrKindNotFound, "no such key")
	_, err = e.Export(context.Background(), "lost", FormatJSON, cols, rows)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), "export verification failed")

	store.statErr = nil
	store.short = true
	_, err = e.Export(context.Background(), "truncated", FormatJSON, cols, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export verification failed")
	assert.Zero(t, store.lastTTL, "no URL is presigned for an unverified upload")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{Bucket: "b"})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = New(newMemStore(), Options{})
	assert.True(t, errs.IsInvalidInput(err))
}
