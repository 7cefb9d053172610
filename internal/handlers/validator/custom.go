package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reelforge/reelforge/internal/policy"
)

var platformRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

func durationValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return policy.KnownDuration(val)
}

func templateValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return policy.KnownTemplate(strings.ToLower(val))
}

func platformValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return platformRegex.MatchString(strings.ToLower(val))
}

// jsonFieldName reports fields by their json name so error messages match
// the request body.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
