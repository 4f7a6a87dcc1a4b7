package validator

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("rrule", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := rrule.StrToRRule(s)
		return err == nil
	})
}

// Validate struct fields. Returns nil when v is valid, otherwise JSON field
// name to failing tag.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errors[e.Field()] = e.Tag()
	}
	return errors
}

// First picks the alphabetically first failing field so that errors built
// from a single field stay stable across runs.
func First(errs map[string]string) (field, tag string) {
	if len(errs) == 0 {
		return "", ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields[0], errs[fields[0]]
}
