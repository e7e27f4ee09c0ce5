package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"travelmate-web/internal/category"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return value == "" || category.Parse(value).IsValid()
	})

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	})

	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse("15:04", value)
		return err == nil
	})

	_ = v.RegisterValidation("halfhour", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		t, err := time.Parse("15:04", value)
		return err == nil && t.Minute()%30 == 0
	})

	_ = v.RegisterValidation("triptype", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && (value == "domestic" || value == "overseas")
	})

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// Message renders validation errors as one short line, e.g.
// "name is required, startTime must be on a 30 minute step".
func (v *Validator) Message(err error) string {
	ve := v.ValidationErrors(err)
	if len(ve) == 0 {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, describe(fe))
	}
	return strings.Join(parts, ", ")
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "halfhour":
		return field + " must be on a 30 minute step"
	default:
		return fmt.Sprintf("%s is not a valid %s", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
