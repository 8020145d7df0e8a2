// Package service is the data-access core that sits between an interactive
// management front end and a MySQL server.
//
// A Service owns at most one live database session. Every operation that
// touches the session takes the Service's lock, so a Service may be shared
// by concurrent callers (the HTTP surface does this); operations are
// executed one at a time against the single connection.
//
// Two error channels are used on purpose:
//
//   - Execute, GetPageData and ExecuteBatch never return an error. Failures
//     come back in-band as a QueryResult with Success == false.
//   - Everything else (connection lifecycle, introspection, transaction
//     brackets) returns an *errs.Error.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
)

// Options configures a Service.
type Options struct {
	// Logger receives lifecycle and statement logs. Nil discards them.
	Logger *logger.Logger

	// StrictTransactions makes Begin fail while a transaction is open and
	// Commit / Rollback fail when none is. When false, bracket statements
	// are always forwarded to the server.
	StrictTransactions bool
}

// Service is the single-connection data-access core.
type Service struct {
	opener   database.Opener
	log      *logger.Logger
	strictTx bool

	mu          sync.Mutex
	session     database.Session
	config      *database.ConnectionConfig
	connected   bool
	sessionID   string
	connectedAt time.Time
	inTx        bool
	sessionLog  *logger.Logger
}

// New creates a disconnected Service that dials sessions through opener.
func New(opener database.Opener, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		opener:     opener,
		log:        log,
		strictTx:   opts.StrictTransactions,
		sessionLog: log,
	}
}

// Status is a point-in-time snapshot of the connection state.
type Status struct {
	Connected     bool       `json:"connected"`
	Target        string     `json:"target,omitempty"`
	SessionID     string     `json:"sessionId,omitempty"`
	ConnectedAt   *time.Time `json:"connectedAt,omitempty"`
	InTransaction bool       `json:"inTransaction"`
}

// Status reports the current connection state. The target is redacted.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.usableLocked() {
		return Status{}
	}
	at := s.connectedAt
	return Status{
		Connected:     true,
		Target:        s.config.Redacted(),
		SessionID:     s.sessionID,
		ConnectedAt:   &at,
		InTransaction: s.inTx,
	}
}

// requireConnected returns the live session or a NotConnected error.
// The caller must hold s.mu.
func (s *Service) requireConnected() (database.Session, error) {
	if !s.usableLocked() {
		return nil, errs.New(errs.ErrKindNotConnected, "no active connection")
	}
	return s.session, nil
}

func (s *Service) usableLocked() bool {
	return s.connected && s.session != nil
}

// dropIfLost discards the session when err shows the server connection is
// gone. A timeout alone is not proof, so the session is pinged first.
// The caller must hold s.mu.
func (s *Service) dropIfLost(ctx context.Context, err error) {
	if s.session == nil {
		return
	}
	switch {
	case errs.IsConnectionFailed(err):
	case errs.IsTimeout(err):
		pingErr := s.session.Ping(context.WithoutCancel(ctx))
		if pingErr == nil {
			return
		}
		err = pingErr
	default:
		return
	}
	s.sessionLog.WarnWith("connection lost, dropping session", err, nil)
	s.closeLocked()
}
