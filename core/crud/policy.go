package crud

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/trezcool/ujenzi/core/user"
)

var ErrForbidden = errors.New("permission denied")

type Op string

const (
	OpList    Op = "list"
	OpGet     Op = "get"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpColumns Op = "columns"
)

// Actor is the authenticated caller of a CRUD operation.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

// Policy decides whether an actor may run an operation on a table record.
// id is 0 for table-level operations.
type Policy interface {
	Authorize(actor Actor, op Op, table string, id int64, payload Record) error
}

// PrivilegedUserColumns can only be written by admins.
// Passwords go through the password policy of core/user instead (registration, admin CLI).
var PrivilegedUserColumns = []string{
	"user_type", "is_active", "is_authorized", "authorization_notes", "password", "remember_token",
}

// DefaultPolicy lets admins do anything. Other roles can read every table and
// write every table but users, where they may only update their own record,
// and never its privileged columns. Decisions never depend on the record existing.
type DefaultPolicy struct{}

var _ Policy = DefaultPolicy{}

func (DefaultPolicy) Authorize(actor Actor, op Op, table string, id int64, payload Record) error {
	if actor.IsAdmin() || table != user.TableName {
		return nil
	}
	switch op {
	case OpList, OpGet, OpColumns:
		return nil
	case OpUpdate:
		if id != actor.ID {
			return ErrForbidden
		}
		if lo.Some(lo.Keys(map[string]any(payload)), PrivilegedUserColumns) {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}
