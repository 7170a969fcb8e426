package crud

import (
	"sync"

	"github.com/samber/mo"
	"github.com/volatiletech/strmangle"
)

// Definition is a table with its own validation rules and fillable columns.
// Tables without a Definition go through the generic schema-filtered path.
type Definition interface {
	Name() string
	Table() string
	Fillable() []string
	CreateRules() Rules
	UpdateRules() Rules
	// Cast converts validated input to the column types.
	Cast(rec Record) Record
}

// EntityName returns the entity name of a table: singular & title-cased ("weekly_reports" -> "WeeklyReport").
func EntityName(table string) string {
	return strmangle.TitleCase(strmangle.Singular(table))
}

type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition // {entity name: Definition}
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		r.Register(def)
	}
	return r
}

func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name()] = def
}

// Resolve looks up the Definition named after the table.
// Definitions exposing neither create nor update rules do not resolve.
func (r *Registry) Resolve(table string) mo.Option[Definition] {
	r.mu.RLock()
	def, ok := r.defs[EntityName(table)]
	r.mu.RUnlock()

	if !ok || (def.CreateRules() == nil && def.UpdateRules() == nil) {
		return mo.None[Definition]()
	}
	return mo.Some(def)
}

// DefaultRegistry holds the built-in definitions.
func DefaultRegistry() *Registry {
	return NewRegistry(Product{})
}
