package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ujenzi/core"
)

// TableName is the users table, also exposed through the generic CRUD API.
const TableName = "users"

// Roles
const (
	RoleAdmin       = "admin"
	RoleClient      = "client"
	RoleForeman     = "foreman"
	RoleConstructor = "constructor"
	RoleStaff       = "staff"
	RoleManager     = "manager"
	RoleCEO         = "ceo"
	RoleFinance     = "finance"
)

var (
	AllRoles = []string{
		RoleAdmin, RoleClient, RoleForeman, RoleConstructor,
		RoleStaff, RoleManager, RoleCEO, RoleFinance,
	}
	// RegistrableRoles are the roles a visitor can pick when signing up.
	RegistrableRoles = lo.Without(AllRoles, RoleAdmin)
	// AssignableRoles are the roles a manager can assign to a project.
	AssignableRoles = []string{RoleClient, RoleForeman, RoleStaff}

	dashboards = map[string]string{
		RoleAdmin:       "/admin-dashboard",
		RoleClient:      "/client-dashboard",
		RoleForeman:     "/foreman-dashboard",
		RoleConstructor: "/foreman-dashboard",
		RoleCEO:         "/ceo-dashboard",
		RoleManager:     "/manager-dashboard",
		RoleStaff:       "/worker-dashboard",
		RoleFinance:     "/finance-dashboard",
	}
)

// DashboardFor returns the dashboard path of the role; "/" for unknown roles.
func DashboardFor(role string) string {
	if path, ok := dashboards[role]; ok {
		return path
	}
	return "/"
}

type User struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	UserType           string      `json:"user_type"`
	IsActive           bool        `json:"is_active"`
	IsAuthorized       bool        `json:"is_authorized"`
	AuthorizationNotes null.String `json:"authorization_notes"`
	PasswordHash       []byte      `json:"-"`
	CreatedAt          time.Time   `json:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.UserType == RoleAdmin
}

func (u *User) HasAnyRole(roles ...string) bool {
	return lo.Contains(roles, u.UserType)
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email,max=255"`
	UserType        string `json:"user_type" validate:"required,registrable_role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.UserType = core.CleanString(nu.UserType, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// LoginRequest holds the credentials posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type QueryFilter struct {
	IDs      []int64
	Roles    []string
	IsActive *bool
}
