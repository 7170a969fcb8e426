package echoapi

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/crud"
	"github.com/trezcool/ujenzi/core/user"
)

const (
	ctxTokenKey = "token"
	ctxUserKey  = "user"
	audience    = "ujenzi-dashboards"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	UserType string `json:"user_type,omitempty"`
}

// UserID returns the id of the user the token was issued to.
func (c Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.FormatInt(usr.ID, 10),
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Name:     usr.Name,
		Email:    usr.Email,
		UserType: usr.UserType,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func jwtConfig(conf *core.Config) echojwt.Config {
	return echojwt.Config{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    ctxTokenKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(Claims) },
	}
}

// newJWTMiddleware rejects requests without a valid bearer token.
func newJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return echojwt.WithConfig(jwtConfig(conf))
}

// newOptionalJWTMiddleware parses the bearer token when there is one and lets every request through.
func newOptionalJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	cfg := jwtConfig(conf)
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(echo.Context, error) error { return nil }
	return echojwt.WithConfig(cfg)
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(ctxTokenKey).(*jwt.Token); ok && token.Valid {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the user of the request's token, loading it once per request.
func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(ctxUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return user.User{}, errInvalidToken
	}

	usr, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errInvalidToken
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(ctxUserKey, usr)
	return usr, nil
}

// contextActor returns the CRUD actor of the request. userMiddleware must have run.
func contextActor(ctx echo.Context) crud.Actor {
	usr, _ := ctx.Get(ctxUserKey).(user.User)
	return crud.Actor{ID: usr.ID, Role: usr.UserType}
}
