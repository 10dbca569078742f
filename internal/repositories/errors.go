package repositories

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by every repository lookup miss.
var ErrNotFound = errors.New("record not found")

// NewNotFoundError wraps ErrNotFound with the entity and id that missed.
func NewNotFoundError(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// IsNotFoundError reports whether err is a repository lookup miss.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
