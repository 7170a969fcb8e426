package sqlxrepos

import (
	"context"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/crud"
)

const idColumn = "id"

// tableStore reads & writes rows of any table as crud.Record.
// Table and column names must come from the introspected schema; they are quoted, never bound.
type tableStore struct {
	executor
}

var _ crud.Store = (*tableStore)(nil) // interface compliance check

func NewTableStore(exec core.DBExecutor) crud.Store {
	return &tableStore{executor{exec: exec}}
}

// normalize converts driver values to JSON friendly ones.
func normalize(rec map[string]interface{}) crud.Record {
	for k, v := range rec {
		if b, ok := v.([]byte); ok {
			rec[k] = string(b)
		}
	}
	return rec
}

func (s *tableStore) scanAll(rows *sqlx.Rows) ([]crud.Record, error) {
	defer func() { _ = rows.Close() }()

	recs := make([]crud.Record, 0)
	for rows.Next() {
		rec := make(map[string]interface{})
		if err := rows.MapScan(rec); err != nil {
			return nil, err
		}
		recs = append(recs, normalize(rec))
	}
	return recs, rows.Err()
}

func (s *tableStore) All(ctx context.Context, table string) ([]crud.Record, error) {
	exec := s.getExec(nil)
	query, args, err := builder(exec).Select("*").From(quote(table)).OrderBy(quote(idColumn)).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	recs, err := s.scanAll(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", table)
	}
	return recs, nil
}

func (s *tableStore) Find(ctx context.Context, table string, id int64) (crud.Record, error) {
	exec := s.getExec(nil)
	query, args, err := builder(exec).
		Select("*").
		From(quote(table)).
		Where(sq.Eq{quote(idColumn): id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	rec := make(map[string]interface{})
	if err = exec.QueryRowxContext(ctx, query, args...).MapScan(rec); err != nil {
		return nil, trapNoRowsErr(err, crud.ErrNotFound, fmt.Sprintf("finding %s #%d", table, id))
	}
	return normalize(rec), nil
}

func (s *tableStore) Insert(ctx context.Context, table string, rec crud.Record) (int64, error) {
	exec := s.getExec(nil)

	var query string
	var args []interface{}
	if len(rec) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", quote(table), quote(idColumn))
	} else {
		cols := lo.Keys(map[string]any(rec))
		sort.Strings(cols)
		vals := lo.Map(cols, func(col string, _ int) interface{} { return rec[col] })

		var err error
		query, args, err = builder(exec).
			Insert(quote(table)).
			Columns(lo.Map(cols, func(col string, _ int) string { return quote(col) })...).
			Values(vals...).
			Suffix("RETURNING " + quote(idColumn)).
			ToSql()
		if err != nil {
			return 0, errors.Wrap(err, "building query")
		}
	}

	var id int64
	if err := exec.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "inserting into %s", table)
	}
	return id, nil
}

// Update only saves the record fields; it is a partial update.
func (s *tableStore) Update(ctx context.Context, table string, id int64, rec crud.Record) error {
	if len(rec) == 0 {
		return nil
	}
	exec := s.getExec(nil)

	clauses := make(map[string]interface{}, len(rec))
	for col, val := range rec {
		clauses[quote(col)] = val
	}
	query, args, err := builder(exec).
		Update(quote(table)).
		SetMap(clauses).
		Where(sq.Eq{quote(idColumn): id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "updating %s #%d", table, id)
	}
	return checkAffected(res, crud.ErrNotFound, "updating "+table)
}

func (s *tableStore) Delete(ctx context.Context, table string, id int64) error {
	exec := s.getExec(nil)
	query, args, err := builder(exec).Delete(quote(table)).Where(sq.Eq{quote(idColumn): id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "deleting %s #%d", table, id)
	}
	return checkAffected(res, crud.ErrNotFound, "deleting "+table)
}
