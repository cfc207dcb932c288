package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/eventhub/internal/i18n"
)

// UserCookieName is the cookie that carries the user session token.
const UserCookieName = "usertoken"

// ErrNoToken means the request carried no token at all.
var ErrNoToken = errors.New("auth: no token")

// contextKey keeps this package's context values private.
type contextKey string

const (
	userIDKey contextKey = "userID"
	adminKey  contextKey = "admin"
)

// RequireUser rejects the request with 401 unless it carries a valid user
// token in the usertoken cookie. On success the user id is attached to the
// request context (see UserIDFromContext).
//
// The gate never touches the store: a token for a since-deleted or banned
// user still passes here and is caught by the service that loads the user.
func RequireUser(tokens *TokenService, msgs *i18n.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := UserFromRequest(r, tokens)
			if err != nil {
				key := i18n.KeyAuthInvalid
				if errors.Is(err, ErrNoToken) {
					key = i18n.KeyAuthMissing
				}
				unauthorized(w, msgs.T(key))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, id.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireUser for admin routes. The token comes from the
// "Authorization: Bearer <token>" header and the full Identity (id and
// username) is attached to the context.
func RequireAdmin(tokens *TokenService, msgs *i18n.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, msgs.T(i18n.KeyAdminMissing))
				return
			}
			id, err := tokens.Validate(raw, ScopeAdmin)
			if err != nil {
				unauthorized(w, msgs.T(i18n.KeyAdminInvalid))
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalUser attaches the user id when a valid user cookie is present and
// otherwise lets the request through untouched.
func OptionalUser(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := UserFromRequest(r, tokens); err == nil {
				ctx := context.WithValue(r.Context(), userIDKey, id.ID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the user id attached by RequireUser or
// OptionalUser. ok is false for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// AdminFromContext returns the admin identity attached by RequireAdmin.
func AdminFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(adminKey).(Identity)
	return id, ok && id.ID != ""
}

// WithUserID returns ctx carrying userID, as RequireUser would. Handler tests
// use it to skip token plumbing.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithAdmin is WithUserID for admin identities.
func WithAdmin(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, adminKey, id)
}

// UserFromRequest validates the usertoken cookie. It returns ErrNoToken when
// the cookie is absent or empty.
func UserFromRequest(r *http.Request, tokens *TokenService) (Identity, error) {
	cookie, err := r.Cookie(UserCookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, ErrNoToken
	}
	return tokens.Validate(cookie.Value, ScopeUser)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
