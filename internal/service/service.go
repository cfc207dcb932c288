// Package service holds the business rules. Services take repository
// interfaces, validate input, localise domain errors through the i18n
// catalogue and log what they change.
package service

import (
	"errors"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/i18n"
)

// localize replaces err with an AppError carrying the catalogue message for
// key when err matches sentinel. Other errors pass through unchanged.
func localize(err error, sentinel error, msgs *i18n.Catalog, key string) error {
	if err == nil || !errors.Is(err, sentinel) {
		return err
	}
	var appErr *apperror.AppError
	field := ""
	if errors.As(err, &appErr) {
		field = appErr.Field
	}
	return &apperror.AppError{Err: sentinel, Message: msgs.T(key), Field: field}
}

// isDomainError reports whether err already carries a client-facing message.
func isDomainError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
