// Package service implements the application's business logic on top of the
// store, keeping HTTP concerns in the api package.
package service

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/tastebookapp/tastebook-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to user-friendly domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.Validationf("%s is required", field)
			case "email":
				return domainerrors.Validationf("%s must be a valid email address", field)
			case "min":
				return domainerrors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return domainerrors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			case "url":
				return domainerrors.Validationf("%s must be a valid URL", field)
			case "gte":
				return domainerrors.Validationf("%s must not be negative", field)
			default:
				return domainerrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
