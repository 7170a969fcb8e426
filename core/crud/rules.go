package crud

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/trezcool/ujenzi/core"
)

var errValidationFailed = errors.New("Validation failed")

const (
	// sometimes: the field is only validated when present in the payload
	sometimesRule = "sometimes"
	// nullable: an explicit null passes
	nullableRule = "nullable"
	requiredRule = "required"

	numericTag  = "numeric"
	stringTag   = "string"
	stringText  = "{0} must be a string"
	integerTag  = "integer"
	integerText = "{0} must be an integer"
	boolTag     = "bool"
	boolText    = "{0} must be true or false"
)

// Rules maps a field to its validator tags, e.g. "required,string,max=255".
type Rules map[string]string

// InitValidators registers the CRUD validation tags. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(stringTag, stringValidation)
	core.RegisterCustomTranslation(validate, translator, stringTag, stringText)

	_ = validate.RegisterValidation(integerTag, integerValidation)
	core.RegisterCustomTranslation(validate, translator, integerTag, integerText)

	_ = validate.RegisterValidation(boolTag, boolValidation)
	core.RegisterCustomTranslation(validate, translator, boolTag, boolText)
}

// Validate checks the payload against the rules and returns a *core.ValidationError listing every failing field.
func (rules Rules) Validate(validate *validator.Validate, translator ut.Translator, payload Record) error {
	fields := lo.Keys(map[string]string(rules))
	sort.Strings(fields)

	var fldErrs []core.FieldError
	for _, field := range fields {
		tags := strings.Split(rules[field], ",")
		sometimes := lo.Contains(tags, sometimesRule)
		nullable := lo.Contains(tags, nullableRule)
		tags = lo.Without(tags, sometimesRule, nullableRule, "")

		value, present := payload[field]
		switch {
		case !present && sometimes:
			continue
		case !present && !lo.Contains(tags, requiredRule):
			continue
		case present && value == nil && nullable:
			continue
		}
		if len(tags) == 0 {
			continue
		}

		err := validate.Var(numericValue(value, tags), strings.Join(tags, ","))
		if err == nil {
			continue
		}
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return errors.Wrapf(err, "validating %s", field)
		}
		for _, vErr := range vErrs {
			msg := strings.TrimSpace(vErr.Translate(translator))
			fldErrs = append(fldErrs, core.FieldError{Field: field, Error: strings.TrimSpace(field + " " + msg)})
		}
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errValidationFailed, fldErrs...)
	}
	return nil
}

// numericValue parses numeric strings of integer & numeric fields, so that size rules
// (min, max, gt...) compare the number rather than the string length.
func numericValue(value any, tags []string) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch {
	case lo.Contains(tags, integerTag):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case lo.Contains(tags, numericTag):
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return value
}

// Custom Validators

func stringValidation(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String
}

// integerValidation accepts integers, whole floats (JSON numbers) and integer strings.
func integerValidation(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	case reflect.String:
		_, err := strconv.ParseInt(field.String(), 10, 64)
		return err == nil
	}
	return false
}

// boolValidation accepts true, false, 1, 0, "1", "0", "true" and "false".
func boolValidation(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Bool:
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() == 0 || field.Int() == 1
	case reflect.Float32, reflect.Float64:
		return field.Float() == 0 || field.Float() == 1
	case reflect.String:
		return lo.Contains([]string{"0", "1", "true", "false"}, field.String())
	}
	return false
}
