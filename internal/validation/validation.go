package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agenda-distribuida/event-agenda/internal/repository"
)

// emailPattern accepts the simple local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// New returns a validator that reports JSON field names and knows
// the simple_email tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return validEmail(fl.Field().String())
	})
	return v
}

// validEmail reports whether email has the local@domain.tld shape.
func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Error converts a validator error into one that matches
// repository.ErrValidation and names each failing field.
func Error(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", repository.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", repository.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "simple_email":
		return fe.Field() + " is not a valid email address"
	case "eqfield":
		return fe.Field() + " does not match password"
	case "datetime":
		return fe.Field() + " must be formatted as " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
