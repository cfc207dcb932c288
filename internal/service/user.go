package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
	"github.com/sakif/eventhub/internal/validate"
)

// SignupInput is the body of a user registration.
type SignupInput struct {
	model.ProfileInput
	Password string `json:"password"`
}

type signupRules struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Sex      string `json:"sex" validate:"sex"`
	Member   string `json:"member" validate:"member"`
	Age      int    `json:"age" validate:"gte=0,lte=150"`
}

// profileRules applies to a profile after an update. firstName and email
// are mandatory there.
type profileRules struct {
	FirstName string `json:"firstName" validate:"notblank"`
	Email     string `json:"email" validate:"required,email"`
	Sex       string `json:"sex" validate:"sex"`
	Member    string `json:"member" validate:"member"`
	Age       int    `json:"age" validate:"gte=0,lte=150"`
}

type UserService struct {
	users     repository.UserRepository
	events    repository.EventRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	validator *validate.Validator
	msgs      *i18n.Catalog
	logger    *slog.Logger

	dummyHash func() string
}

func NewUserService(
	users repository.UserRepository,
	events repository.EventRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	validator *validate.Validator,
	msgs *i18n.Catalog,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		events:    events,
		passwords: passwords,
		tokens:    tokens,
		validator: validator,
		msgs:      msgs,
		logger:    logger,
		dummyHash: sync.OnceValue(passwords.DummyHash),
	}
}

// Register creates an account and returns it with a fresh session token.
func (s *UserService) Register(ctx context.Context, in SignupInput) (*model.User, string, error) {
	user := &model.User{Member: "no"}
	in.Apply(user)

	err := s.validator.Validate(signupRules{
		Email:    user.Email,
		Password: in.Password,
		Sex:      user.Sex,
		Member:   user.Member,
		Age:      user.Age,
	})
	if err != nil {
		return nil, "", err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, "", apperror.ValidationFailed("password", s.msgs.T(i18n.KeyPasswordTooLong))
	}
	user.PasswordHash = hash

	if err := s.users.CreateUser(ctx, user); err != nil {
		if err = localize(err, apperror.ErrDuplicate, s.msgs, i18n.KeyDuplicateEmail); isDomainError(err) {
			return nil, "", err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("registering user: %w", err)
	}

	token, err := s.tokens.IssueUser(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user registered", slog.String("id", user.ID))
	return user, token, nil
}

// Authenticate checks credentials in the order existence, ban, password.
//
// An unknown email and a wrong password produce the same ErrUnauthorized
// error, and both paths run one bcrypt comparison. A banned account gets
// ErrForbidden and no token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	invalid := apperror.Unauthorized(s.msgs.T(i18n.KeyInvalidCredentials))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.Verify(s.dummyHash(), password)
			return nil, "", invalid
		}
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	if user.AccountBanned {
		s.logger.Info("login refused for banned user", slog.String("id", user.ID))
		return nil, "", apperror.Forbidden(s.msgs.T(i18n.KeyAccountBanned))
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", invalid
		}
		return nil, "", fmt.Errorf("verifying password: %w", err)
	}

	token, err := s.tokens.IssueUser(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the supplied fields. Omitted fields keep their value;
// the result must still have a first name and a valid email.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in model.ProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(user)

	err = s.validator.Validate(profileRules{
		FirstName: user.FirstName,
		Email:     user.Email,
		Sex:       user.Sex,
		Member:    user.Member,
		Age:       user.Age,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && (appErr.Field == "firstName" || (appErr.Field == "email" && user.Email == "")) {
			return nil, apperror.ValidationFailed(appErr.Field, s.msgs.T(i18n.KeyProfileRequired))
		}
		return nil, err
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		err = localize(err, apperror.ErrDuplicate, s.msgs, i18n.KeyDuplicateEmail)
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("id", user.ID))
	return user, nil
}

// DeleteAccount removes the user and its id from every event's membership
// set.
func (s *UserService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound); isDomainError(err) {
			return err
		}
		s.logger.Error("failed to delete user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting account: %w", err)
	}

	s.logger.Info("account deleted", slog.String("id", id))
	return nil
}

// SetBanned sets the ban flag to *banned, or flips it when banned is nil, and
// returns the new value.
func (s *UserService) SetBanned(ctx context.Context, id string, banned *bool) (bool, error) {
	stored, err := s.users.SetUserBanned(ctx, id, banned)
	if err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyUserNotFound); isDomainError(err) {
			return false, err
		}
		return false, fmt.Errorf("setting ban flag: %w", err)
	}

	s.logger.Info("user ban flag changed",
		slog.String("id", id),
		slog.Bool("banned", stored),
	)
	return stored, nil
}

// ListAll returns every user for the admin list, sorted by display name.
func (s *UserService) ListAll(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.users.ListUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	return out, nil
}

// WithEvents returns one user and the events they joined, newest date first.
func (s *UserService) WithEvents(ctx context.Context, id string) (*model.UserWithEvents, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListEvents(ctx, repository.EventFilter{
		IDs:   nonNil(user.JoinedEvents),
		Order: repository.DateDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("listing user events: %w", err)
	}
	return &model.UserWithEvents{User: user, Events: events}, nil
}
