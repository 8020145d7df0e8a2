package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbdesk/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errUnknownDatabase   = 1049
	errBadTable          = 1051
	errNoSuchTable       = 1146
	errTooManyConns      = 1040
	errUserTooManyConns  = 1203
	errTableAccessDenied = 1142
	errSpecificAccess    = 1227
	errServerShutdown    = 1053
	errConnRefused       = 2003
	errServerGone        = 2006
	errServerLost        = 2013
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindStatementFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
// Anything the server answers with that is not about reaching or
// authenticating to it counts as a rejected statement. An unknown schema
// on the connect path still surfaces as ConnectionFailed because Connect
// wraps every open error with that kind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errAccessDenied, errTooManyConns, errUserTooManyConns,
		errServerShutdown, errConnRefused, errServerGone, errServerLost:
		return errs.ErrKindConnectionFailed
	case errDBAccessDenied, errTableAccessDenied, errSpecificAccess:
		return errs.ErrKindPermissionDenied
	case errUnknownDatabase, errBadTable, errNoSuchTable:
		return errs.ErrKindNotFound
	default:
		return errs.ErrKindStatementFailed
	}
}
