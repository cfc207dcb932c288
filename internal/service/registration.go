package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// RegistrationService is the only writer of membership sets. Each
// transition reads and writes both the event and the user inside one
// repository transaction, so after any sequence of calls
//
//	userID ∈ event.JoinedUsers  ⇔  eventID ∈ user.JoinedEvents
//
// Per (user, event) pair the states are NotRegistered and Registered.
type RegistrationService struct {
	repo   repository.RegistrationRepository
	msgs   *i18n.Catalog
	logger *slog.Logger
	now    func() time.Time
}

func NewRegistrationService(repo repository.RegistrationRepository, msgs *i18n.Catalog, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:   repo,
		msgs:   msgs,
		logger: logger,
		now:    time.Now,
	}
}

// Register moves the pair to Registered. Preconditions are checked in this
// order, each with its own error: the event exists, its date is not before
// today, the user exists, the pair is not already registered.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID string) error {
	today := model.DateOf(s.now().UTC())

	err := s.repo.InTx(ctx, func(tx repository.MembershipTx) error {
		event, err := s.loadEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event.Date.Before(today) {
			return apperror.EventInPast(s.msgs.T(i18n.KeyEventInPast))
		}

		user, err := s.loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if event.HasMember(userID) || user.HasEvent(eventID) {
			return apperror.AlreadyRegistered(s.msgs.T(i18n.KeyAlreadyRegistered))
		}

		if err := tx.SetEventMembers(ctx, eventID, model.AddMember(event.JoinedUsers, userID)); err != nil {
			return err
		}
		return tx.SetUserEvents(ctx, userID, model.AddMember(user.JoinedEvents, eventID))
	})
	if err != nil {
		return s.finish(err, "registering for event", userID, eventID)
	}

	s.logger.Info("user registered for event",
		slog.String("user_id", userID),
		slog.String("event_id", eventID),
	)
	return nil
}

// Cancel moves the pair to NotRegistered. Cancelling a pair that is not
// registered succeeds without writing anything.
func (s *RegistrationService) Cancel(ctx context.Context, userID, eventID string) error {
	today := model.DateOf(s.now().UTC())
	changed := false

	err := s.repo.InTx(ctx, func(tx repository.MembershipTx) error {
		event, err := s.loadEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event.Date.Before(today) {
			return apperror.EventInPast(s.msgs.T(i18n.KeyCancelInPast))
		}

		user, err := s.loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !event.HasMember(userID) && !user.HasEvent(eventID) {
			return nil
		}

		if err := tx.SetEventMembers(ctx, eventID, model.RemoveMember(event.JoinedUsers, userID)); err != nil {
			return err
		}
		changed = true
		return tx.SetUserEvents(ctx, userID, model.RemoveMember(user.JoinedEvents, eventID))
	})
	if err != nil {
		return s.finish(err, "cancelling registration", userID, eventID)
	}

	if changed {
		s.logger.Info("user cancelled event registration",
			slog.String("user_id", userID),
			slog.String("event_id", eventID),
		)
	}
	return nil
}

func (s *RegistrationService) loadEvent(ctx context.Context, tx repository.MembershipTx, id string) (*model.Event, error) {
	event, err := tx.GetEvent(ctx, id)
	if err != nil {
		return nil, localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyEventNotFound)
	}
	return event, nil
}

func (s *RegistrationService) loadUser(ctx context.Context, tx repository.MembershipTx, id string) (*model.User, error) {
	user, err := tx.GetUser(ctx, id)
	if err != nil {
		return nil, localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound)
	}
	return user, nil
}

// finish passes domain errors through (the transaction has already rolled
// back) and logs and wraps anything else.
func (s *RegistrationService) finish(err error, op, userID, eventID string) error {
	var appErr *apperror.AppError
	if errors.Is(err, apperror.ErrTxAborted) && errors.As(err, &appErr) {
		s.logger.Warn("membership transaction aborted",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.String("event_id", eventID),
			slog.String("error", appErr.Err.Error()),
		)
		return &apperror.AppError{Err: appErr.Err, Message: s.msgs.T(i18n.KeyRetry)}
	}
	if isDomainError(err) {
		return err
	}

	s.logger.Error("membership transaction failed",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w", op, err)
}
