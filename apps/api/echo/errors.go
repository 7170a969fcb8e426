package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/crud"
	"github.com/trezcool/ujenzi/core/project"
	"github.com/trezcool/ujenzi/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, echojwt.ErrJWTInvalid.Message)
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, crud.ErrNotFound.Error())

	validationFailedMsg = "Validation failed"
	serverErrorMsg      = http.StatusText(http.StatusInternalServerError)
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Every error is rendered as {"success": false, "message": ...}, plus "errors" (field: messages) on 422.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fieldErrs map[string][]string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
			if message == echojwt.ErrJWTMissing.Message || message == echojwt.ErrJWTInvalid.Message {
				code = http.StatusUnauthorized
			}
		case validator.ValidationErrors:
			code = http.StatusUnprocessableEntity
			message = validationFailedMsg
			fieldErrs = core.TranslateValidationErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusUnprocessableEntity
			if len(origErr.Fields) > 0 {
				message = validationFailedMsg
				fieldErrs = origErr.FieldMessages()
			} else {
				message = origErr.Error()
			}
		default:
			switch origErr {
			case crud.ErrNotFound, crud.ErrUnknownTable, project.ErrNotFound, user.ErrNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			case crud.ErrForbidden:
				code = http.StatusForbidden
				message = origErr.Error()
			case user.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = origErr.Error()
			case user.ErrAccountDeactivated:
				code = http.StatusForbidden
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = serverErrorMsg

				args := []interface{}{errors.Wrap(err, serverErrorMsg)}
				if usr, ok := ctx.Get(ctxUserKey).(user.User); ok {
					args = append(args, usr)
				}
				logger.Error(fmt.Sprintf("%s %s: %v", ctx.Request().Method, ctx.Request().URL.Path, err), args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		body := echo.Map{"success": false, "message": message}
		if fieldErrs != nil {
			body["errors"] = fieldErrs
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
