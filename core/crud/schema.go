package crud

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrUnknownTable = errors.New("table not found")

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema maps table names to their ordered columns.
// It is built once at boot and never mutated afterwards, so it is safe for concurrent use.
type Schema struct {
	tables map[string][]Column
}

func NewSchema(tables map[string][]Column) *Schema {
	s := &Schema{tables: make(map[string][]Column, len(tables))}
	for name, cols := range tables {
		s.tables[name] = append([]Column(nil), cols...)
	}
	return s
}

// Tables returns the table names, sorted.
func (s *Schema) Tables() []string {
	names := lo.Keys(s.tables)
	sort.Strings(names)
	return names
}

func (s *Schema) Columns(table string) ([]Column, error) {
	cols, ok := s.tables[table]
	if !ok {
		return nil, ErrUnknownTable
	}
	return append([]Column(nil), cols...), nil
}

func (s *Schema) ColumnNames(table string) ([]string, error) {
	cols, ok := s.tables[table]
	if !ok {
		return nil, ErrUnknownTable
	}
	return lo.Map(cols, func(col Column, _ int) string { return col.Name }), nil
}

func (s *Schema) Has(table, column string) bool {
	return lo.ContainsBy(s.tables[table], func(col Column) bool { return col.Name == column })
}
