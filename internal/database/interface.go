package database

import "context"

// Session is one live connection to a database server.
// Layers above this package talk only to this interface; they never import
// the mysql package directly. A Session is not safe for concurrent use;
// the owner serializes access.
type Session interface {
	// Ping verifies the server is reachable over this session.
	Ping(ctx context.Context) error

	// Query runs a row-returning statement and materializes the result.
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)

	// Exec runs a statement that does not return rows.
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)

	// Close releases the underlying connection.
	Close() error
}

// Opener dials a new Session for a connection config.
// Implementations must release every partially opened handle on failure.
type Opener interface {
	Open(ctx context.Context, cfg ConnectionConfig) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, cfg ConnectionConfig) (Session, error)

func (f OpenerFunc) Open(ctx context.Context, cfg ConnectionConfig) (Session, error) {
	return f(ctx, cfg)
}

// ResultSet is a fully read result of a row-returning statement.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// ExecResult reports the effect of a non-row-returning statement.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}
