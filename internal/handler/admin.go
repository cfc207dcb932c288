package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/service"
)

// AdminHandler serves admin account endpoints and the admin user views.
// Admin event CRUD lives on EventHandler.
type AdminHandler struct {
	admins *service.AdminService
	users  *service.UserService
	msgs   *i18n.Catalog
	logger *slog.Logger
}

func NewAdminHandler(admins *service.AdminService, users *service.UserService, msgs *i18n.Catalog, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admins: admins,
		users:  users,
		msgs:   msgs,
		logger: logger,
	}
}

type adminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminInfo is the public view of an admin account. Token is set only by
// login.
type AdminInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type adminResponse struct {
	Message string    `json:"message,omitempty"`
	Admin   AdminInfo `json:"admin"`
}

// HandleRegister creates an admin account.
//
// HTTP: POST /api/admin/register
func (h *AdminHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req adminCredentials
	if err := requireBody(w, r, &req); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	if _, err := h.admins.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, h.msgs.T(i18n.KeyAdminCreated))
}

// HandleLogin returns an admin token in the body. Admin routes read it back
// from the Authorization header.
//
// HTTP: POST /api/admin/login
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req adminCredentials
	if err := requireBody(w, r, &req); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	admin, token, err := h.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{
		Message: h.msgs.T(i18n.KeyLoginSuccess),
		Admin:   AdminInfo{ID: admin.ID, Username: admin.Username, Token: token},
	})
}

// HandleLogout acknowledges an admin logout. The client discards its token.
//
// HTTP: POST /api/admin/logout
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyAdminLogout))
}

// HandleMe returns the authenticated admin.
//
// HTTP: GET /api/admin/me
func (h *AdminHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.AdminFromContext(r.Context())

	admin, err := h.admins.Me(r.Context(), id.ID)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{
		Admin: AdminInfo{ID: admin.ID, Username: admin.Username},
	})
}

// HandleListUsers returns every user, sorted by name.
//
// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGetUser returns a user together with the events they joined.
//
// HTTP: GET /api/admin/users/{id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	view, err := h.users.WithEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type banRequest struct {
	Banned *bool `json:"banned"`
}

// BanResponse reports the stored ban flag.
type BanResponse struct {
	Message       string `json:"message"`
	AccountBanned bool   `json:"accountBanned"`
}

// HandleBan sets or toggles a user's ban flag. With {"banned": true|false}
// the flag is set; with no body (or no "banned" key) it is flipped.
//
// HTTP: PUT /api/admin/users/{id}/ban
func (h *AdminHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	banned, err := h.users.SetBanned(r.Context(), chi.URLParam(r, "id"), req.Banned)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	key := i18n.KeyUserUnbanned
	if banned {
		key = i18n.KeyUserBanned
	}
	writeJSON(w, http.StatusOK, BanResponse{Message: h.msgs.T(key), AccountBanned: banned})
}
