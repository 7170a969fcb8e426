package crud

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("record not found")

const (
	idColumn        = "id"
	passwordColumn  = "password"
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Store persists records of any table. Implementations must return ErrNotFound for missing ids.
type Store interface {
	All(ctx context.Context, table string) ([]Record, error)
	Find(ctx context.Context, table string, id int64) (Record, error)
	Insert(ctx context.Context, table string, rec Record) (int64, error)
	Update(ctx context.Context, table string, id int64, rec Record) error
	Delete(ctx context.Context, table string, id int64) error
}

// Result is what a write returns: the record id and, when known, its data.
type Result struct {
	ID   int64  `json:"id"`
	Data Record `json:"data,omitempty"`
}

type Service struct {
	schema     *Schema
	registry   *Registry
	store      Store
	policy     Policy
	validate   *validator.Validate
	translator ut.Translator
	now        func() time.Time
}

func NewService(
	schema *Schema,
	registry *Registry,
	store Store,
	policy Policy,
	validate *validator.Validate,
	translator ut.Translator,
) *Service {
	return &Service{
		schema:     schema,
		registry:   registry,
		store:      store,
		policy:     policy,
		validate:   validate,
		translator: translator,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) List(ctx context.Context, actor Actor, table string) ([]Record, error) {
	if _, err := svc.schema.Columns(table); err != nil {
		return nil, err
	}
	if err := svc.policy.Authorize(actor, OpList, table, 0, nil); err != nil {
		return nil, err
	}
	recs, err := svc.store.All(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", table)
	}
	return lo.Map(recs, func(rec Record, _ int) Record { return hide(rec) }), nil
}

func (svc *Service) Get(ctx context.Context, actor Actor, table string, id int64) (Record, error) {
	if _, err := svc.schema.Columns(table); err != nil {
		return nil, err
	}
	if err := svc.policy.Authorize(actor, OpGet, table, id, nil); err != nil {
		return nil, err
	}
	rec, err := svc.store.Find(ctx, table, id)
	if err != nil {
		return nil, errors.Wrapf(err, "finding %s #%d", table, id)
	}
	return hide(rec), nil
}

func (svc *Service) Create(ctx context.Context, actor Actor, table string, payload Record) (Result, error) {
	writable, err := svc.writableColumns(table)
	if err != nil {
		return Result{}, err
	}
	if err = svc.policy.Authorize(actor, OpCreate, table, 0, payload); err != nil {
		return Result{}, err
	}

	if def, ok := svc.registry.Resolve(table).Get(); ok && def.CreateRules() != nil {
		if err = def.CreateRules().Validate(svc.validate, svc.translator, payload); err != nil {
			return Result{}, err
		}
		rec := def.Cast(Filter(payload, lo.Intersect(def.Fillable(), writable)))
		if err = svc.prepare(table, rec, true); err != nil {
			return Result{}, err
		}
		id, err := svc.store.Insert(ctx, table, rec)
		if err != nil {
			return Result{}, errors.Wrapf(err, "inserting into %s", table)
		}
		saved, err := svc.store.Find(ctx, table, id)
		if err != nil {
			return Result{}, errors.Wrapf(err, "finding %s #%d", table, id)
		}
		return Result{ID: id, Data: hide(saved)}, nil
	}

	rec := Filter(payload, writable)
	if err = svc.prepare(table, rec, true); err != nil {
		return Result{}, err
	}
	id, err := svc.store.Insert(ctx, table, rec)
	if err != nil {
		return Result{}, errors.Wrapf(err, "inserting into %s", table)
	}
	return Result{ID: id, Data: hide(rec)}, nil
}

// Update merges the payload into the record. Only the definition path returns the updated data.
func (svc *Service) Update(ctx context.Context, actor Actor, table string, id int64, payload Record) (Result, error) {
	writable, err := svc.writableColumns(table)
	if err != nil {
		return Result{}, err
	}
	if err = svc.policy.Authorize(actor, OpUpdate, table, id, payload); err != nil {
		return Result{}, err
	}
	if _, err = svc.store.Find(ctx, table, id); err != nil {
		return Result{}, errors.Wrapf(err, "finding %s #%d", table, id)
	}

	if def, ok := svc.registry.Resolve(table).Get(); ok && def.UpdateRules() != nil {
		if err = def.UpdateRules().Validate(svc.validate, svc.translator, payload); err != nil {
			return Result{}, err
		}
		rec := def.Cast(Filter(payload, lo.Intersect(def.Fillable(), writable)))
		if err = svc.write(ctx, table, id, rec); err != nil {
			return Result{}, err
		}
		saved, err := svc.store.Find(ctx, table, id)
		if err != nil {
			return Result{}, errors.Wrapf(err, "finding %s #%d", table, id)
		}
		return Result{ID: id, Data: hide(saved)}, nil
	}

	if err = svc.write(ctx, table, id, Filter(payload, writable)); err != nil {
		return Result{}, err
	}
	return Result{ID: id}, nil
}

func (svc *Service) write(ctx context.Context, table string, id int64, rec Record) error {
	if err := svc.prepare(table, rec, false); err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	if err := svc.store.Update(ctx, table, id, rec); err != nil {
		return errors.Wrapf(err, "updating %s #%d", table, id)
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, actor Actor, table string, id int64) error {
	if _, err := svc.schema.Columns(table); err != nil {
		return err
	}
	if err := svc.policy.Authorize(actor, OpDelete, table, id, nil); err != nil {
		return err
	}
	if _, err := svc.store.Find(ctx, table, id); err != nil {
		return errors.Wrapf(err, "finding %s #%d", table, id)
	}
	if err := svc.store.Delete(ctx, table, id); err != nil {
		return errors.Wrapf(err, "deleting %s #%d", table, id)
	}
	return nil
}

func (svc *Service) Columns(ctx context.Context, actor Actor, table string) ([]string, error) {
	cols, err := svc.schema.ColumnNames(table)
	if err != nil {
		return nil, err
	}
	if err = svc.policy.Authorize(actor, OpColumns, table, 0, nil); err != nil {
		return nil, err
	}
	return cols, nil
}

// writableColumns are the table columns but the primary key.
func (svc *Service) writableColumns(table string) ([]string, error) {
	cols, err := svc.schema.ColumnNames(table)
	if err != nil {
		return nil, err
	}
	return lo.Without(cols, idColumn), nil
}

// prepare hashes the password and stamps the timestamps, in place.
// created_at & updated_at are only stamped on create when the table has both.
func (svc *Service) prepare(table string, rec Record, creating bool) error {
	if pwd, ok := rec[passwordColumn]; ok {
		if pwd == nil {
			delete(rec, passwordColumn)
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(cast.ToString(pwd)), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hashing password")
			}
			rec[passwordColumn] = string(hash)
		}
	}

	now := svc.now()
	if creating {
		if svc.schema.Has(table, createdAtColumn) && svc.schema.Has(table, updatedAtColumn) {
			rec[createdAtColumn] = now
			rec[updatedAtColumn] = now
		}
	} else if svc.schema.Has(table, updatedAtColumn) {
		rec[updatedAtColumn] = now
	}
	return nil
}
