package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/koustreak/dbdesk/internal/errs"
)

// ErrorMapper translates a driver error into an *errs.Error labelled msg.
type ErrorMapper func(err error, msg string) error

// MapGenericError is the ErrorMapper used when a driver has no native
// error codes to inspect.
func MapGenericError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindStatementFailed, msg, err)
}

// SQLSession is a Session backed by database/sql. It pins a single
// *sql.Conn so that transaction statements and the statements issued
// between them reach the same server connection.
//
// Once the driver reports the connection as bad, database/sql discards the
// pinned Conn and every later call fails with ConnectionFailed. The session
// is not re-dialled; the owning Service drops it instead.
type SQLSession struct {
	db     *sql.DB
	conn   *sql.Conn
	mapErr ErrorMapper
	opts   Options
}

// NewSQLSession takes ownership of db, reserves one connection from it and
// pings it. On any failure db is closed before returning.
func NewSQLSession(ctx context.Context, db *sql.DB, opts Options, mapErr ErrorMapper) (*SQLSession, error) {
	if mapErr == nil {
		mapErr = MapGenericError
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	connectCtx, cancel := withTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	conn, err := db.Conn(connectCtx)
	if err != nil {
		_ = db.Close()
		return nil, mapErr(err, "failed to open connection")
	}

	s := &SQLSession{db: db, conn: conn, mapErr: mapErr, opts: opts}
	if err := conn.PingContext(connectCtx); err != nil {
		_ = s.Close()
		return nil, mapErr(err, "ping failed")
	}
	return s, nil
}

func (s *SQLSession) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	if err := s.conn.PingContext(ctx); err != nil {
		return s.mapErr(err, "ping failed")
	}
	return nil
}

func (s *SQLSession) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	ctx, cancel := withTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapErr(err, "query failed")
	}
	rs, err := ScanRows(rows)
	if err != nil {
		return nil, s.mapErr(err, "failed to read rows")
	}
	return rs, nil
}

func (s *SQLSession) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	ctx, cancel := withTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, s.mapErr(err, "statement failed")
	}

	var out ExecResult
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// Close returns the pinned connection and closes the pool. Both are
// attempted; the first error is reported.
func (s *SQLSession) Close() error {
	var first error
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			first = err
		}
	}
	if err := s.db.Close(); err != nil && first == nil {
		first = err
	}
	if first != nil {
		return s.mapErr(first, "close failed")
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
