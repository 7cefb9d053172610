package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewVideoValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("notblank", validators.NotBlank),
		},
		{
			Rule: registerFn("duration", durationValidator),
		},
		{
			Rule: registerFn("template", templateValidator),
		},
	}
}

func NewCompletionValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("platform", platformValidator),
		},
	}
}
