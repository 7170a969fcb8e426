// Package sqlxrepos implements the repositories with sqlx, building queries with squirrel.
package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/ujenzi/core"
)

// executor holds the default DB executor of a repository.
type executor struct {
	exec core.DBExecutor
}

// getExec returns the executor passed by the service (e.g. a transaction), or the default one.
func (e executor) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return e.exec
}

// builder returns a statement builder using the placeholders of the executor's driver.
func builder(exec core.DBExecutor) sq.StatementBuilderType {
	if sqlx.BindType(exec.DriverName()) == sqlx.DOLLAR {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func quote(ident string) string {
	return strmangle.IdentQuote('"', '"', ident)
}

// trapNoRowsErr maps the "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns notFound when the statement touched no row.
func checkAffected(res sql.Result, notFound error, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
