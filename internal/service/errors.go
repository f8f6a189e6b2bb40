package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccessDenied is returned when the caller lacks the required role.
	ErrAccessDenied = errors.New("access denied")
	// ErrConflict is returned when a write collides with an existing record.
	ErrConflict = errors.New("already exists")
)

// mapNotFound turns gorm.ErrRecordNotFound into ErrNotFound, keeping both in the chain.
func mapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
	}
	return err
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
