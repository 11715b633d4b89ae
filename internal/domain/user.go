package domain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// User represents an account. The JSON form is the internal (localized) schema.
type User struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"nome,omitempty"`
	CreatedAt string  `json:"dataCriacao"`
	UpdatedAt *string `json:"dataAtualizacao,omitempty"`
}

// Registration holds the fields needed to create an account.
type Registration struct {
	Email    string  `validate:"required,email"`
	Name     *string `validate:"omitempty,max=100"`
	Password string  `validate:"required,min=6,max=72"`
}

// Credentials are exchanged for a bearer token.
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// UserUpdate changes the display name. It is the only mutable account field.
type UserUpdate struct {
	Name *string `validate:"required,max=100"`
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  User
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the registration fields. Errors wrap ErrValidation.
func (r Registration) Validate() error {
	if err := structValidator().Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, classify(err))
	}
	return nil
}

// Validate checks that both fields are present. Errors wrap ErrValidation.
func (c Credentials) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, classify(err))
	}
	return nil
}

// Validate checks the update carries a name. Errors wrap ErrValidation.
func (u UserUpdate) Validate() error {
	if u.Name == nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUpdate)
	}
	if err := structValidator().Struct(u); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// classify maps the first failing field to a domain sentinel where one exists.
func classify(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Email":
		return ErrInvalidEmail
	case "Password":
		return ErrInvalidPassword
	}
	return err
}
