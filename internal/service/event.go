package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
	"github.com/sakif/eventhub/internal/validate"
)

// LatestEventsLimit is how many events the "latest" view returns.
const LatestEventsLimit = 3

// eventRules is what a stored event must satisfy after create or update.
type eventRules struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Image       string `json:"image" validate:"notblank"`
	YoutubeLink string `json:"youtubeLink" validate:"notblank"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"notblank"`
}

func rulesFor(e *model.Event) eventRules {
	return eventRules{
		Title:       e.Title,
		Description: e.Description,
		Image:       e.Image,
		YoutubeLink: e.YoutubeLink,
		Date:        e.Date.String(),
		Time:        e.Time,
	}
}

type EventService struct {
	events    repository.EventRepository
	users     repository.UserRepository
	validator *validate.Validator
	msgs      *i18n.Catalog
	logger    *slog.Logger
}

func NewEventService(
	events repository.EventRepository,
	users repository.UserRepository,
	validator *validate.Validator,
	msgs *i18n.Catalog,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		events:    events,
		users:     users,
		validator: validator,
		msgs:      msgs,
		logger:    logger,
	}
}

// Create stores a new event. Every descriptive field is required; Published
// defaults to true when omitted.
func (s *EventService) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	event := &model.Event{Published: true}
	in.Apply(event)
	trimEvent(event)

	if err := s.validator.Validate(rulesFor(event)); err != nil {
		return nil, err
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("title", event.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("title", event.Title),
		slog.String("date", event.Date.String()),
	)
	return event, nil
}

// Update applies the supplied fields to an existing event. Omitted fields keep
// their stored value; membership is never touched here.
func (s *EventService) Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(event)
	trimEvent(event)

	if err := s.validator.Validate(rulesFor(event)); err != nil {
		return nil, err
	}

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyEventNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("updating event: %w", err)
	}

	s.logger.Info("event updated", slog.String("id", event.ID))
	return event, nil
}

// Delete removes the event and its id from every user's membership set.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyEventNotFound); isDomainError(err) {
			return err
		}
		s.logger.Error("failed to delete event",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting event: %w", err)
	}

	s.logger.Info("event deleted", slog.String("id", id))
	return nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFoundMessage(s.msgs.T(i18n.KeyEventNotFound))
	}

	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyEventNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return event, nil
}

// ListAll returns every event, newest date first.
func (s *EventService) ListAll(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.ListEvents(ctx, repository.EventFilter{Order: repository.DateDesc})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// ListLatest returns up to LatestEventsLimit published events, newest date
// first, projected to id, title and description.
func (s *EventService) ListLatest(ctx context.Context) ([]model.EventSummary, error) {
	events, err := s.events.ListEvents(ctx, repository.EventFilter{
		PublishedOnly: true,
		Order:         repository.DateDesc,
		Limit:         LatestEventsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing latest events: %w", err)
	}

	out := make([]model.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, model.EventSummary{ID: e.ID, Title: e.Title, Description: e.Description})
	}
	return out, nil
}

// ListRegisteredFor returns the events userID has joined, earliest first.
func (s *EventService) ListRegisteredFor(ctx context.Context, userID string) ([]model.Event, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	events, err := s.events.ListEvents(ctx, repository.EventFilter{
		IDs:   nonNil(user.JoinedEvents),
		Order: repository.DateAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("listing registered events: %w", err)
	}
	return events, nil
}

// ListWithRegistrations returns the events that have at least one member,
// newest date first, with their member count.
func (s *EventService) ListWithRegistrations(ctx context.Context) ([]model.EventRegistrations, error) {
	events, err := s.events.ListEvents(ctx, repository.EventFilter{
		WithMembersOnly: true,
		Order:           repository.DateDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("listing events with registrations: %w", err)
	}

	out := make([]model.EventRegistrations, 0, len(events))
	for _, e := range events {
		out = append(out, model.EventRegistrations{
			ID:              e.ID,
			Title:           e.Title,
			Date:            e.Date,
			RegisteredCount: len(e.JoinedUsers),
		})
	}
	return out, nil
}

// RegisteredUsers returns the members of an event sorted by display name.
func (s *EventService) RegisteredUsers(ctx context.Context, eventID string) ([]model.Attendee, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx, nonNil(event.JoinedUsers))
	if err != nil {
		return nil, fmt.Errorf("listing event members: %w", err)
	}

	out := make([]model.Attendee, 0, len(users))
	for i := range users {
		out = append(out, users[i].Attendee())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	return out, nil
}

func trimEvent(e *model.Event) {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Image = strings.TrimSpace(e.Image)
	e.YoutubeLink = strings.TrimSpace(e.YoutubeLink)
	e.Time = strings.TrimSpace(e.Time)
}

// nonNil turns a nil set into an empty one so repository filters read it as
// "no ids" rather than "no filter".
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
