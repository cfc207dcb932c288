package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/service"
)

// LoggedInHeader tells the frontend whether the caller of GET /api/events/{id}
// holds a valid user session.
const LoggedInHeader = "user-logged-in"

// EventHandler serves the public event catalogue, the user registration
// endpoints and the admin event CRUD.
type EventHandler struct {
	events       *service.EventService
	registration *service.RegistrationService
	msgs         *i18n.Catalog
	logger       *slog.Logger
}

func NewEventHandler(
	events *service.EventService,
	registration *service.RegistrationService,
	msgs *i18n.Catalog,
	logger *slog.Logger,
) *EventHandler {
	return &EventHandler{
		events:       events,
		registration: registration,
		msgs:         msgs,
		logger:       logger,
	}
}

// HandleList returns every event, newest date first.
//
// HTTP: GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListAll(r.Context())
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleLatest returns the newest published events as summaries.
//
// HTTP: GET /api/events/latest
func (h *EventHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListLatest(r.Context())
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet returns one event.
//
// HTTP: GET /api/events/{id}
// Auth: OptionalUser. The user-logged-in response header is "true" when the
// request carried a valid user cookie.
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	_, loggedIn := auth.UserIDFromContext(r.Context())
	w.Header().Set(LoggedInHeader, strconv.FormatBool(loggedIn))
	writeJSON(w, http.StatusOK, event)
}

// HandleRegister registers the caller for an event.
//
// HTTP: POST /api/events/{id}/register
// Auth: RequireUser
func (h *EventHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.registration.Register(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyRegistered))
}

// HandleCancel cancels the caller's registration. Cancelling a registration
// that does not exist still succeeds.
//
// HTTP: DELETE /api/events/{id}/register
// Auth: RequireUser
func (h *EventHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.registration.Cancel(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyCancelled))
}

// HandleRegistered lists the events the caller joined, earliest first.
//
// HTTP: GET /api/events/user/registered
// Auth: RequireUser
func (h *EventHandler) HandleRegistered(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	events, err := h.events.ListRegisteredFor(r.Context(), userID)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate creates an event.
//
// HTTP: POST /api/events, POST /api/admin/events
// Auth: RequireAdmin
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := requireBody(w, r, &in); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleAdminGet is HandleGet without the session header.
//
// HTTP: GET /api/admin/events/{id}
// Auth: RequireAdmin
func (h *EventHandler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleUpdate applies the supplied fields to an event.
//
// HTTP: PUT /api/events/{id}, PUT /api/admin/events/{id}
// Auth: RequireAdmin
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := requireBody(w, r, &in); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event and every registration for it.
//
// HTTP: DELETE /api/events/{id}, DELETE /api/admin/events/{id}
// Auth: RequireAdmin
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, h.msgs.T(i18n.KeyEventDeleted))
}

// HandleWithRegistrations lists events that have members, with counts.
//
// HTTP: GET /api/admin/events-with-users
// Auth: RequireAdmin
func (h *EventHandler) HandleWithRegistrations(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListWithRegistrations(r.Context())
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleAttendees lists the users registered for an event.
//
// HTTP: GET /api/admin/events/{id}/users
// Auth: RequireAdmin
func (h *EventHandler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	users, err := h.events.RegisteredUsers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.msgs, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
