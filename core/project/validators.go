package project

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ujenzi/core"
)

var (
	afterStartTag  = "after_start"
	afterStartText = "{0} must be a date after start_date"
)

// InitValidators registers the project validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(projectStructValidation, NewProject{})
	core.RegisterCustomTranslation(validate, translator, afterStartTag, afterStartText)
}

// projectStructValidation checks that the project ends after it starts.
// Malformed dates are reported by the field validators.
func projectStructValidation(sl validator.StructLevel) {
	np, ok := sl.Current().Interface().(NewProject)
	if !ok {
		return
	}
	start, err := time.Parse(core.DateLayout, np.StartDate)
	if err != nil {
		return
	}
	end, err := time.Parse(core.DateLayout, np.EndDate)
	if err != nil {
		return
	}
	if !end.After(start) {
		sl.ReportError(np.EndDate, "end_date", "EndDate", afterStartTag, "")
	}
}
