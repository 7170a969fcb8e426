package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/ujenzi/core/crud"
)

const (
	postgresColumnsQuery = `
SELECT table_name, column_name, data_type, is_nullable = 'YES' AS nullable
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name <> $1
ORDER BY table_name, ordinal_position`

	sqliteColumnsQuery = `
SELECT m.name AS table_name, p.name AS column_name, p.type AS data_type, p."notnull" = 0 AS nullable
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND m.name <> ?
ORDER BY m.name, p.cid`
)

type columnRow struct {
	Table    string `db:"table_name"`
	Name     string `db:"column_name"`
	Type     string `db:"data_type"`
	Nullable bool   `db:"nullable"`
}

// Introspect reads the tables & columns of the live database, in declaration order.
// The migrations bookkeeping table is left out.
func Introspect(ctx context.Context, db *sqlx.DB, engine string) (*crud.Schema, error) {
	query := postgresColumnsQuery
	if engine == EngineSQLite {
		query = sqliteColumnsQuery
	}

	var rows []columnRow
	if err := db.SelectContext(ctx, &rows, query, goose.TableName()); err != nil {
		return nil, errors.Wrap(err, "introspecting schema")
	}

	tables := make(map[string][]crud.Column)
	for _, row := range rows {
		tables[row.Table] = append(tables[row.Table], crud.Column{
			Name:     row.Name,
			Type:     row.Type,
			Nullable: row.Nullable,
		})
	}
	return crud.NewSchema(tables), nil
}
