package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// livenessSQL is the liveness check used by TestConnection.
const livenessSQL = "SELECT 1"

// Connect opens a session for cfg. Any existing session is closed first;
// on failure the Service is left disconnected.
func (s *Service) Connect(ctx context.Context, cfg database.ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil || s.connected {
		s.log.Info("closing current session before reconnecting")
		s.closeLocked()
	}

	s.log.InfoWith("connecting", map[string]interface{}{
		"target": cfg.Redacted(),
	})

	session, err := s.opener.Open(ctx, cfg)
	if err != nil || session == nil {
		s.resetLocked()
		if err == nil {
			err = errs.New(errs.ErrKindUnknown, "opener returned no session")
		}
		s.log.ErrorWith("connect failed", err, map[string]interface{}{
			"target": cfg.Redacted(),
		})
		return errs.Wrap(errs.ErrKindConnectionFailed, "connect failed", err)
	}

	cfgCopy := cfg
	s.session = session
	s.config = &cfgCopy
	s.connected = true
	s.inTx = false
	s.sessionID = uuid.NewString()
	s.connectedAt = time.Now()
	s.sessionLog = s.log.With().Str("session", s.sessionID).Logger()

	s.sessionLog.InfoWith("connected", map[string]interface{}{
		"target": cfg.Redacted(),
	})
	return nil
}

// Disconnect closes the current session, if any. A failing close is
// logged and otherwise ignored; the Service always ends up disconnected.
// Calling Disconnect while disconnected is a no-op.
func (s *Service) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil && !s.connected {
		return
	}
	s.closeLocked()
	s.log.Info("disconnected")
}

// IsConnected reports whether a usable session exists.
func (s *Service) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usableLocked()
}

// CurrentConnection returns a copy of the active config, or nil.
func (s *Service) CurrentConnection() *database.ConnectionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.usableLocked() {
		return nil
	}
	cfg := *s.config
	return &cfg
}

// TestConnection opens a separate short-lived session for cfg, runs a
// liveness check and closes it again. It never fails; any problem yields
// false. The Service's own session is not touched.
func (s *Service) TestConnection(ctx context.Context, cfg database.ConnectionConfig) bool {
	log := s.log.With().Str("target", cfg.Redacted()).Logger()

	if err := cfg.Validate(); err != nil {
		log.WarnWith("test connection rejected", err, nil)
		return false
	}

	session, err := s.opener.Open(ctx, cfg)
	if err != nil || session == nil {
		log.WarnWith("test connection failed", err, nil)
		return false
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WarnWith("closing test session failed", err, nil)
		}
	}()

	if _, err := session.Query(ctx, livenessSQL); err != nil {
		log.WarnWith("test connection check failed", err, nil)
		return false
	}
	log.Debug("test connection succeeded")
	return true
}

// closeLocked closes the session and resets state. The caller must hold s.mu.
func (s *Service) closeLocked() {
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.sessionLog.WarnWith("closing session failed", err, nil)
		}
	}
	s.resetLocked()
}

func (s *Service) resetLocked() {
	s.session = nil
	s.config = nil
	s.connected = false
	s.inTx = false
	s.sessionID = ""
	s.connectedAt = time.Time{}
	s.sessionLog = s.log
}
