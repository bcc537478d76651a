package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrSubmissionCompleted = errors.New("submission already completed")
)

// IsNotFoundError matches both the repository and gorm not-found errors
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
