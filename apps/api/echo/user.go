package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
)

type userApi struct {
	conf     *core.Config
	svc      user.Service
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	jwt, optionalJWT, authed echo.MiddlewareFunc,
	conf *core.Config,
	svc user.Service,
	validate *validator.Validate,
) {
	api := userApi{
		conf:     conf,
		svc:      svc,
		validate: validate,
	}

	// un-authed endpoints
	// TODO: rate limit `/login` & `/register`
	g.POST("/login", api.login)
	g.POST("/register", api.register)
	g.POST("/logout", api.logout)
	g.GET("/check-auth", api.checkAuth, optionalJWT)

	// authed endpoints
	g.GET("/current-user", api.currentUser, jwt, authed)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Success:  true,
		Message:  "Login successful!",
		UserType: usr.UserType,
		Redirect: user.DashboardFor(usr.UserType),
		Token:    token,
	})
}

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	if _, err := api.svc.Register(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Registration successful! Your account is pending authorization.",
	})
}

// logout is stateless: the client drops its token.
func (api *userApi) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Logged out successfully!"})
}

func (api *userApi) checkAuth(ctx echo.Context) error {
	res := CheckAuthResponse{}
	if usr, err := getContextUser(ctx, api.svc); err == nil && usr.IsActive {
		res.Authenticated = true
		res.User = &usr
	} else if err != nil && errors.Cause(err) != errUnauthorized && errors.Cause(err) != errInvalidToken {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *userApi) currentUser(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CurrentUserResponse{Success: true, User: usr})
}

type (
	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	LoginResponse struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		UserType string `json:"user_type"`
		Redirect string `json:"redirect"`
		Token    string `json:"token"`
	}

	CheckAuthResponse struct {
		Authenticated bool       `json:"authenticated"`
		User          *user.User `json:"user"`
	}

	CurrentUserResponse struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
	}
)
