package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/service"
)

// AuthHandler manages user sign-up, login and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister      → create the account, set the usertoken cookie
//   - HandleLogin         → check credentials, set the usertoken cookie
//   - HandleLogout        → clear the cookie
//   - HandleValidateToken → tell the frontend whether its cookie is still good
//   - HandleProfile       → return the logged-in user
//
// Sessions are stateless JWTs: logout only removes the cookie, the token
// itself stays valid until it expires.
type AuthHandler struct {
	users   *service.UserService
	tokens  *auth.TokenService
	msgs    *i18n.Catalog
	logger  *slog.Logger
	cookies sessionCookies
}

func NewAuthHandler(
	users *service.UserService,
	tokens *auth.TokenService,
	msgs *i18n.Catalog,
	logger *slog.Logger,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		msgs:    msgs,
		logger:  logger,
		cookies: sessionCookies{secure: secureCookies},
	}
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a user account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"firstName": "...", "email": "...", "password": "...", ...}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := requireBody(w, r, &in); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	h.cookies.set(w, token)
	writeJSON(w, http.StatusCreated, SessionResponse{
		Message: h.msgs.T(i18n.KeyUserCreated),
		Token:   token,
		User:    user,
	})
}

// HandleLogin authenticates a user.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := requireBody(w, r, &req); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	user, token, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	h.cookies.set(w, token)
	writeJSON(w, http.StatusOK, SessionResponse{
		Message: h.msgs.T(i18n.KeyLoginSuccess),
		Token:   token,
		User:    user,
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyLogoutSuccess))
}

// TokenStatus is the body of the validate-token endpoint.
type TokenStatus struct {
	Valid   bool   `json:"valid"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message"`
}

// HandleValidateToken reports whether the usertoken cookie is a valid user
// session. It answers 401 with valid=false rather than going through the
// RequireUser gate, so the frontend gets the same shape either way.
//
// HTTP: GET /api/auth/validate-token
func (h *AuthHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	id, err := auth.UserFromRequest(r, h.tokens)
	switch {
	case errors.Is(err, auth.ErrNoToken):
		writeJSON(w, http.StatusUnauthorized, TokenStatus{Message: h.msgs.T(i18n.KeyTokenMissing)})
	case err != nil:
		h.logger.Debug("token validation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, TokenStatus{Message: h.msgs.T(i18n.KeyTokenInvalid)})
	default:
		writeJSON(w, http.StatusOK, TokenStatus{
			Valid:   true,
			UserID:  id.ID,
			Message: h.msgs.T(i18n.KeyTokenValid),
		})
	}
}

// HandleProfile returns the authenticated user.
//
// HTTP: GET /api/auth/profile
// Auth: RequireUser
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
