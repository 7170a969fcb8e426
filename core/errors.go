package core

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// FieldMessages groups the field errors by field, keeping their order.
func (err ValidationError) FieldMessages() map[string][]string {
	msgs := make(map[string][]string, len(err.Fields))
	for _, fErr := range err.Fields {
		msgs[fErr.Field] = append(msgs[fErr.Field], fErr.Error)
	}
	return msgs
}

// TranslateValidationErrors converts validator errors into per-field messages.
func TranslateValidationErrors(vErrs validator.ValidationErrors, translator ut.Translator) map[string][]string {
	msgs := make(map[string][]string, len(vErrs))
	for _, vErr := range vErrs {
		msgs[vErr.Field()] = append(msgs[vErr.Field()], vErr.Translate(translator))
	}
	return msgs
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
