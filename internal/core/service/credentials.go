package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// signupInput carries the locally validated signup form fields.
type signupInput struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// signinInput carries the locally validated signin form fields. Only presence
// is checked here; the backend is the authority on the rest.
type signinInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// checkInput runs go-playground validation and converts failures into a
// single user-facing message. Rules are checked locally so no network call is
// made for malformed input.
func checkInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldError converts a single ValidationError into the message shown inline
// on the auth form.
func fieldError(fe validator.FieldError) string {
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "eqfield":
		return "passwords do not match"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func fieldLabel(field string) string {
	switch field {
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "ConfirmPassword":
		return "password confirmation"
	default:
		return strings.ToLower(field)
	}
}
