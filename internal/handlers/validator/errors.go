package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrInvalidForm struct {
	error
	Fields []string
}

func newErrInvalidForm(err error) *ErrInvalidForm {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ErrInvalidForm{error: err}
	}

	fields := make([]string, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, describe(fe))
	}
	return &ErrInvalidForm{
		error:  errors.New(strings.Join(msgs, "; ")),
		Fields: fields,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "duration":
		return fmt.Sprintf("%s %q is not a known duration", fe.Field(), fe.Value())
	case "template":
		return fmt.Sprintf("%s %q is not a known template", fe.Field(), fe.Value())
	case "platform":
		return fmt.Sprintf("%s %q is not a valid platform name", fe.Field(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}
