package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/procura/smartfill/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidField = errors.New("invalid requirement field")
	ErrInvalidValue = errors.New("invalid response value")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateField ensures the field is one of the known requirement fields.
func validateField(field model.RequirementField) error {
	if !model.ValidField(field) {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

// validateValue ensures the response value is well formed and storable.
func validateValue(value model.ResponseValue) error {
	if err := value.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if value.IsSkip() {
		return fmt.Errorf("%w: skip values are not stored as patterns", ErrInvalidValue)
	}
	return nil
}
