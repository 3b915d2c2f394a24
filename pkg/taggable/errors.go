package taggable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kutbudev/taggable/pkg/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidName is returned when a tag name is blank after trimming.
	ErrInvalidName = models.ErrInvalidName
	// ErrNotTaggable is matched by every NotTaggableError.
	ErrNotTaggable = errors.New("not taggable")
	// ErrUnsavedResource is returned by operations that need a persisted owner or actor.
	ErrUnsavedResource = errors.New("resource has not been saved")
	// ErrTagNotFound is returned by lookups that do not create.
	ErrTagNotFound = errors.New("tag not found")
)

// InvalidNameError reports the rejected input.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid tag name %q: blank after trimming", e.Name)
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// NotTaggableError is returned when a tagger attributes tags on a type it was
// never registered for.
type NotTaggableError struct {
	Tagger string
	Type   string
}

func (e *NotTaggableError) Error() string {
	return fmt.Sprintf("%s is not taggable by %s", e.Type, e.Tagger)
}

func (e *NotTaggableError) Unwrap() error { return ErrNotTaggable }

// IsUniqueViolation recognises a unique constraint failure from either dialect,
// translated or not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
