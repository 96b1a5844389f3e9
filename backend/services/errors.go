// Package services holds the read and write paths behind the HTTP handlers.
// Every service takes the *gorm.DB it works on; nothing here owns a
// connection.
package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNotEnrolled        = errors.New("user is not enrolled in this course")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// notFound maps gorm.ErrRecordNotFound to ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func utcNow() time.Time { return time.Now().UTC() }
