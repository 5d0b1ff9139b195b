package auth

import (
	"fmt"
	"regexp"

	"pairchat/errors"

	"github.com/go-playground/validator/v10"
)

// Letters, digits and @/./+/-/_ only.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

type RegisterRequest struct {
	Username string `validate:"required,max=150,username"`
	Password string `validate:"required,max=128"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCredentialFormat, err)
	}
	return nil
}
