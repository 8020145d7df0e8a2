package service

import (
	"context"

	"github.com/koustreak/dbdesk/internal/errs"
)

type bracket struct {
	op      string
	stmt    string
	opensTx bool
}

var (
	beginTx    = bracket{op: "begin transaction", stmt: "START TRANSACTION", opensTx: true}
	commitTx   = bracket{op: "commit transaction", stmt: "COMMIT"}
	rollbackTx = bracket{op: "rollback transaction", stmt: "ROLLBACK"}
)

// Begin issues START TRANSACTION on the current session.
// There is no nesting and no automatic rollback: the caller must Commit
// or Rollback explicitly.
func (s *Service) Begin(ctx context.Context) error {
	return s.runBracket(ctx, beginTx)
}

// Commit issues COMMIT on the current session.
func (s *Service) Commit(ctx context.Context) error {
	return s.runBracket(ctx, commitTx)
}

// Rollback issues ROLLBACK on the current session.
func (s *Service) Rollback(ctx context.Context) error {
	return s.runBracket(ctx, rollbackTx)
}

// InTransaction reports whether Begin succeeded without a later Commit or
// Rollback. Transaction statements sent through Execute are not tracked.
func (s *Service) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx
}

func (s *Service) runBracket(ctx context.Context, b bracket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.requireConnected()
	if err != nil {
		return errs.Label(b.op+" failed", err, errs.ErrKindNotConnected)
	}

	if s.strictTx {
		switch {
		case b.opensTx && s.inTx:
			return errs.New(errs.ErrKindInvalidState, b.op+" failed: a transaction is already open")
		case !b.opensTx && !s.inTx:
			return errs.New(errs.ErrKindInvalidState, b.op+" failed: no open transaction")
		}
	}

	if _, err := session.Exec(ctx, b.stmt); err != nil {
		s.sessionLog.WarnWith(b.op+" failed", err, nil)
		s.dropIfLost(ctx, err)
		return errs.Label(b.op+" failed", err, errs.ErrKindStatementFailed)
	}

	s.inTx = b.opensTx
	s.sessionLog.Debug(b.op)
	return nil
}
