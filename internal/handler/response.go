package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the wire format is
// the same everywhere:
//
//	{"message": "..."}                                    success with text
//	{"error": "not_found", "message": "Event not found"}  any failure
//
// The message is always the localised catalogue text chosen by the service.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 3 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error     string `json:"error"`               // Machine-readable error type (e.g., "not_found")
	Message   string `json:"message"`             // Human-readable, localised
	Field     string `json:"field,omitempty"`     // Offending field on validation errors
	Retryable bool   `json:"retryable,omitempty"` // Set when the same request may succeed later
}

// MessageResponse is the body of operations that only report success.
type MessageResponse struct {
	Message string `json:"message"`
}

// errBadBody marks a request body that could not be decoded.
var errBadBody = errors.New("handler: invalid request body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeError maps a domain error to its HTTP status.
//
//	NotFound                                      → 404
//	Validation, Duplicate, EventInPast, Already…  → 400
//	Unauthorized                                  → 401
//	Forbidden                                     → 403
//	Conflict, TxAborted                           → 409
//	anything else                                 → 500, generic message
func writeError(w http.ResponseWriter, msgs *i18n.Catalog, logger *slog.Logger, err error) {
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: msgs.T(i18n.KeyInvalidBody),
		})
		return
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// NEVER expose internal error details to the client.
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: msgs.T(i18n.KeyServerError),
		})
		return
	}

	resp := ErrorResponse{Message: appErr.Message, Field: appErr.Field}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrValidation):
		status, resp.Error = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrDuplicate):
		status, resp.Error = http.StatusBadRequest, "duplicate"
	case errors.Is(err, apperror.ErrEventInPast):
		status, resp.Error = http.StatusBadRequest, "event_in_past"
	case errors.Is(err, apperror.ErrAlreadyRegistered):
		status, resp.Error = http.StatusBadRequest, "already_registered"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, resp.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, resp.Error = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrTxAborted):
		status, resp.Error = http.StatusConflict, "conflict"
		resp.Message = msgs.T(i18n.KeyRetry)
		resp.Retryable = true
	case errors.Is(err, apperror.ErrConflict):
		status, resp.Error = http.StatusConflict, "conflict"
	default:
		logger.Error("unmapped application error", slog.String("error", err.Error()))
		resp.Error = "internal_error"
		resp.Message = msgs.T(i18n.KeyServerError)
		resp.Field = ""
	}

	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON value from the body into dst. Bodies over
// MaxBodyBytes and malformed JSON both yield errBadBody. An empty body is
// reported as io.EOF so callers with optional bodies can accept it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return errBadBody
	}
	return nil
}

// requireBody is decodeJSON for endpoints where a body is mandatory.
func requireBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return errBadBody
	}
	return nil
}

// sessionCookies writes and clears the user session cookie.
type sessionCookies struct {
	secure bool
}

func (c sessionCookies) sameSite() http.SameSite {
	// Browsers drop SameSite=None cookies that are not Secure.
	if c.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c sessionCookies) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UserCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.UserTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite(),
	})
}

func (c sessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UserCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite(),
	})
}
