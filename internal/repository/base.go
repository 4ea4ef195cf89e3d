// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// isDuplicateKey reports whether err is a unique constraint violation. The
// dialect translation covers postgres and sqlite; the message match covers
// connections opened without TranslateError.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and anything else to an internal error.
func notFoundOr(err error, notFound *models.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return models.NewInternalError(err)
}
