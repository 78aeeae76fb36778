package grading

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

var (
	timeHMTag    = "timehm"
	dateSlashTag = "dateslash"
)

// RegisterValidators registers the grading-specific validation tags on the
// shared validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(timeHMTag, timeHMValidation)
	core.RegisterCustomTranslation(validate, translator, timeHMTag, invalidTimeText)

	_ = validate.RegisterValidation(dateSlashTag, dateSlashValidation)
	core.RegisterCustomTranslation(validate, translator, dateSlashTag, invalidDateText)
}

// Custom Validators

// timeHMValidation only allows strict HH:MM 24-hour clock times.
func timeHMValidation(fl validator.FieldLevel) bool {
	return timeRegex.MatchString(fl.Field().String())
}

// dateSlashValidation only allows month/day/year dates with slash separators.
func dateSlashValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}
