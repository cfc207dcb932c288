package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	cause := errors.New("database is locked")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("event", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFoundMessage wraps ErrNotFound",
			err:       NotFoundMessage("Utilisateur non trouvé"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Duplicate wraps ErrDuplicate",
			err:       Duplicate("email", "email already used"),
			target:    ErrDuplicate,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "EventInPast wraps ErrEventInPast",
			err:       EventInPast("past"),
			target:    ErrEventInPast,
			wantMatch: true,
		},
		{
			name:      "AlreadyRegistered wraps ErrAlreadyRegistered",
			err:       AlreadyRegistered("again"),
			target:    ErrAlreadyRegistered,
			wantMatch: true,
		},
		{
			name:      "TxAborted wraps ErrTxAborted",
			err:       TxAborted("retry", cause),
			target:    ErrTxAborted,
			wantMatch: true,
		},
		{
			name:      "TxAborted keeps the store cause",
			err:       TxAborted("retry", cause),
			target:    cause,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("event", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "EventInPast does NOT match ErrAlreadyRegistered",
			err:       EventInPast("past"),
			target:    ErrAlreadyRegistered,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("event", "abc123"),
			wantMessage: "event not found with id abc123",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("event", "abc123"),
			wantMessage: "event conflict with id abc123",
		},
		{
			name:        "TxAborted shows only the client message",
			err:         TxAborted("please retry", errors.New("SQLITE_BUSY")),
			wantMessage: "please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestWrappedAppErrorStillMatches(t *testing.T) {
	// Services wrap repository errors with fmt.Errorf("...: %w", err); the
	// sentinel must survive that extra layer.
	err := errors.Join(errors.New("registering"), AlreadyRegistered("again"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As did not find *AppError")
	}
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Error("errors.Is(ErrAlreadyRegistered) = false, want true")
	}
}

func TestFieldIsKept(t *testing.T) {
	if err := ValidationFailed("email", "invalid email format"); err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if err := Duplicate("username", "taken"); err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}
