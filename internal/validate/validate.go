// Package validate runs struct-tag validation and reports the first failure
// as a core.ValidationError keyed by the JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tutorbook/internal/core"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return translate("", std.Struct(s))
}

// Var validates a single value under field.
func Var(field string, value any, tag string) error {
	return translate(field, std.Var(value, tag))
}

func translate(field string, err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := errs[0]
	if field == "" {
		field = fe.Field()
	}
	return core.NewValidationError(field, reason(fe))
}

func reason(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return errors.New("is required")
	case "email":
		return errors.New("not a valid email address")
	case "max":
		return fmt.Errorf("longer than %s characters", fe.Param())
	default:
		return fmt.Errorf("failed %q check", fe.Tag())
	}
}
