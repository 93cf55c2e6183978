package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "fitplanhub/backend/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validator with json field names.
type Validator struct {
	validate *validator.Validate
}

// FieldError is one entry of a validation failure list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new validator instance
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns the failing fields, or nil.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// Check validates s and converts failures into a 422 AppError.
func (v *Validator) Check(s interface{}) error {
	if fields := v.Struct(s); len(fields) > 0 {
		return apperrors.Unprocessable("Validation failed", fields)
	}
	return nil
}

// fieldPath strips the root struct name from the namespace, e.g.
// "PlanInput.workouts[0].title" becomes "workouts[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "mongodb":
		return fmt.Sprintf("%s must be a valid ID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "max":
		if fe.Kind() == reflect.String {
			word := "least"
			if fe.Tag() == "max" {
				word = "most"
			}
			return fmt.Sprintf("%s must be at %s %s characters long", field, word, fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s", field, boundWord(fe.Tag()), fe.Param())
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("%s must be %s %s", field, boundWord(fe.Tag()), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}

func boundWord(tag string) string {
	switch tag {
	case "min", "gte":
		return "greater than or equal to"
	case "max", "lte":
		return "less than or equal to"
	case "gt":
		return "greater than"
	default:
		return "less than"
	}
}
