// Package inmemdb is a volatile crud.Store, handy for tests and demos.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/trezcool/ujenzi/core/crud"
)

type (
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*table
	}

	table struct {
		pkCount int64
		rows    map[int64]crud.Record
	}
)

// Open returns an empty DB with the given tables.
func Open(tables ...string) *DB {
	db := &DB{tables: make(map[string]*table, len(tables))}
	for _, name := range tables {
		db.tables[name] = &table{rows: make(map[int64]crud.Record)}
	}
	return db
}

type tableStore struct {
	db *DB
}

var _ crud.Store = (*tableStore)(nil)

func NewTableStore(db *DB) crud.Store {
	return &tableStore{db: db}
}

func (s *tableStore) table(name string) (*table, error) {
	t, ok := s.db.tables[name]
	if !ok {
		return nil, crud.ErrUnknownTable
	}
	return t, nil
}

func copyRecord(rec crud.Record) crud.Record {
	return lo.Assign(crud.Record{}, rec)
}

func (s *tableStore) All(_ context.Context, name string) ([]crud.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	ids := lo.Keys(t.rows)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return lo.Map(ids, func(id int64, _ int) crud.Record { return copyRecord(t.rows[id]) }), nil
}

func (s *tableStore) Find(_ context.Context, name string, id int64) (crud.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, crud.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *tableStore) Insert(_ context.Context, name string, rec crud.Record) (int64, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	t, err := s.table(name)
	if err != nil {
		return 0, err
	}
	t.pkCount++
	row := copyRecord(rec)
	row["id"] = t.pkCount
	t.rows[t.pkCount] = row
	return t.pkCount, nil
}

func (s *tableStore) Update(_ context.Context, name string, id int64, rec crud.Record) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	t, err := s.table(name)
	if err != nil {
		return err
	}
	row, ok := t.rows[id]
	if !ok {
		return crud.ErrNotFound
	}
	// only save set fields
	for k, v := range rec {
		row[k] = v
	}
	return nil
}

func (s *tableStore) Delete(_ context.Context, name string, id int64) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	t, err := s.table(name)
	if err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return crud.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}
