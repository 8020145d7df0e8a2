package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbdesk/internal/database"

	_ "modernc.org/sqlite"
)

// fakeSession records every statement and answers from programmable hooks.
type fakeSession struct {
	mu       sync.Mutex
	queries  []string
	execs    []string
	closed   int
	closeErr error
	pingErr  error
	pings    int

	queryFn func(query string, args []any) (*database.ResultSet, error)
	execFn  func(query string) (database.ExecResult, error)
}

func (f *fakeSession) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeSession) Query(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	fn := f.queryFn
	f.mu.Unlock()

	if fn != nil {
		return fn(query, args)
	}
	return &database.ResultSet{Columns: []string{}, Rows: []database.Row{}}, nil
}

func (f *fakeSession) Exec(ctx context.Context, query string, args ...any) (database.ExecResult, error) {
	f.mu.Lock()
	f.execs = append(f.execs, query)
	fn := f.execFn
	f.mu.Unlock()

	if fn != nil {
		return fn(query)
	}
	return database.ExecResult{}, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeSession) Execs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.execs...)
}

func (f *fakeSession) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// fakeOpener hands out sessions in order, or fails with err.
type fakeOpener struct {
	mu       sync.Mutex
	sessions []*fakeSession
	opened   []database.ConnectionConfig
	err      error
}

func (o *fakeOpener) Open(ctx context.Context, cfg database.ConnectionConfig) (database.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opened = append(o.opened, cfg)
	if o.err != nil {
		return nil, o.err
	}
	if len(o.sessions) == 0 {
		return nil, errors.New("no session prepared")
	}
	s := o.sessions[0]
	o.sessions = o.sessions[1:]
	return s, nil
}

func testConfig() database.ConnectionConfig {
	return database.ConnectionConfig{
		Host:     "db.local",
		Port:     3306,
		Username: "app",
		Password: "secret",
		Database: "shop",
	}
}

// connectedFake returns a Service connected to a single fake session.
func connectedFake(t *testing.T, opts Options) (*Service, *fakeSession) {
	t.Helper()
	sess := &fakeSession{}
	svc := New(&fakeOpener{sessions: []*fakeSession{sess}}, opts)
	require.NoError(t, svc.Connect(context.Background(), testConfig()))
	return svc, sess
}

// sqliteOpener opens a fresh in-memory database per session. The schema
// is addressable as `main`.
var sqliteOpener = database.OpenerFunc(func(ctx context.Context, cfg database.ConnectionConfig) (database.Session, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	return database.NewSQLSession(ctx, db, database.DefaultOptions(), nil)
})

// connectedSQLite returns a Service connected to an in-memory database
// after running setup statements.
func connectedSQLite(t *testing.T, setup ...string) *Service {
	t.Helper()
	svc := New(sqliteOpener, Options{})
	require.NoError(t, svc.Connect(context.Background(), testConfig()))
	t.Cleanup(svc.Disconnect)

	for _, stmt := range setup {
		r := svc.Execute(context.Background(), stmt)
		require.True(t, r.Success, r.Message)
	}
	return svc
}

func resultSet(columns []string, rows ...[]database.Value) *database.ResultSet {
	rs := &database.ResultSet{Columns: columns, Rows: make([]database.Row, 0, len(rows))}
	for _, values := range rows {
		rs.Rows = append(rs.Rows, database.NewRow(columns, values))
	}
	return rs
}

func contains(query, fragment string) bool {
	return strings.Contains(query, fragment)
}
