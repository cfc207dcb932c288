package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/service"
)

// UserHandler serves the self-service account endpoints.
type UserHandler struct {
	users   *service.UserService
	msgs    *i18n.Catalog
	logger  *slog.Logger
	cookies sessionCookies
}

func NewUserHandler(users *service.UserService, msgs *i18n.Catalog, logger *slog.Logger, secureCookies bool) *UserHandler {
	return &UserHandler{
		users:   users,
		msgs:    msgs,
		logger:  logger,
		cookies: sessionCookies{secure: secureCookies},
	}
}

// ProfileResponse is returned after a profile update.
type ProfileResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// HandleUpdateProfile applies the supplied profile fields.
//
// HTTP: PUT /api/user/update-profile
// Auth: RequireUser
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in model.ProfileInput
	if err := requireBody(w, r, &in); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		Message: h.msgs.T(i18n.KeyProfileUpdated),
		User:    user,
	})
}

// HandleDeleteAccount deletes the caller's account and clears the cookie.
//
// HTTP: DELETE /api/user/delete-account
// Auth: RequireUser
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	h.cookies.clear(w)
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyAccountDeleted))
}
