package dashboard

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-dashboard/core"
)

const timeWindowTag = "timewindow"

// InitValidators registers the "timewindow" tag, which accepts any name ParseTimeWindow accepts.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(timeWindowTag, func(fl validator.FieldLevel) bool {
		_, err := ParseTimeWindow(fl.Field().String())
		return err == nil
	})
	core.RegisterCustomTranslation(validate, translator, timeWindowTag, "must be one of: week, month, semester, year")
}
