package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/i18n"
)

type signup struct {
	FirstName *string `json:"firstName" validate:"required,notblank"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Sex       string  `json:"sex" validate:"sex"`
	Member    *string `json:"member" validate:"omitnil,member"`
}

func ptr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	v := New(i18n.MustNew(i18n.EN))

	tests := []struct {
		name      string
		in        signup
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			in:   signup{FirstName: ptr("Ada"), Email: "ada@example.com", Password: "secret1"},
		},
		{
			name:      "missing first name",
			in:        signup{Email: "ada@example.com", Password: "secret1"},
			wantField: "firstName",
			wantMsg:   "firstName is required",
		},
		{
			name:      "blank first name",
			in:        signup{FirstName: ptr("   "), Email: "ada@example.com", Password: "secret1"},
			wantField: "firstName",
			wantMsg:   "firstName is required",
		},
		{
			name:      "bad email",
			in:        signup{FirstName: ptr("Ada"), Email: "nope", Password: "secret1"},
			wantField: "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "short password",
			in:        signup{FirstName: ptr("Ada"), Email: "ada@example.com", Password: "abc"},
			wantField: "password",
			wantMsg:   "password must be at least 6 characters",
		},
		{
			name:      "unknown sex",
			in:        signup{FirstName: ptr("Ada"), Email: "ada@example.com", Password: "secret1", Sex: "x"},
			wantField: "sex",
			wantMsg:   "sex is invalid",
		},
		{
			name:      "bad member flag",
			in:        signup{FirstName: ptr("Ada"), Email: "ada@example.com", Password: "secret1", Member: ptr("maybe")},
			wantField: "member",
			wantMsg:   "member is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestValidate_FrenchMessages(t *testing.T) {
	v := New(i18n.MustNew(i18n.FR))

	err := v.Validate(signup{Email: "ada@example.com", Password: "secret1"})

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Le champ firstName est requis", appErr.Message)
}
