package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkivio/arkiv/internal/errs"
	gomysql "github.com/go-sql-driver/mysql"
)

// MySQL error numbers used below.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDuplicateEntry = 1062
)

// mapError converts a MySQL driver error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// No rows
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if mysqlErr.Number == errDuplicateEntry {
			return errs.Wrap(errs.ErrKindConflict, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		}
		return errs.Wrap(errs.ErrKindPersistence, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
	}

	// Fallthrough: connection-level errors (network, auth)
	return errs.Wrap(errs.ErrKindPersistence, msg, err)
}
