// Package mysql opens dbdesk sessions against MySQL servers using
// go-sql-driver/mysql and translates its native errors into *errs.Error.
package mysql

import (
	"context"
	"database/sql"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Opener implements database.Opener for MySQL.
// It is safe for concurrent use; each Open dials an independent session.
type Opener struct {
	opts database.Options
}

// NewOpener returns an Opener applying opts to every session it opens.
func NewOpener(opts database.Options) *Opener {
	return &Opener{opts: opts}
}

// Open dials cfg and returns a session pinned to a single server connection.
func (o *Opener) Open(ctx context.Context, cfg database.ConnectionConfig) (database.Session, error) {
	connector, err := gomysql.NewConnector(buildConfig(cfg, o.opts))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid connection config", err)
	}

	db := sql.OpenDB(connector)
	s, err := database.NewSQLSession(ctx, db, o.opts, mapError)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildConfig translates a ConnectionConfig into the driver's config.
func buildConfig(cfg database.ConnectionConfig, opts database.Options) *gomysql.Config {
	c := gomysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = cfg.Addr()
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Timeout = opts.ConnectTimeout
	return c
}
