package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
	"github.com/sakif/eventhub/internal/validate"
)

type adminRules struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// AdminService manages administrator accounts. There is a single role.
type AdminService struct {
	admins    repository.AdminRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	validator *validate.Validator
	msgs      *i18n.Catalog
	logger    *slog.Logger

	dummyHash func() string
}

func NewAdminService(
	admins repository.AdminRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	validator *validate.Validator,
	msgs *i18n.Catalog,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:    admins,
		passwords: passwords,
		tokens:    tokens,
		validator: validator,
		msgs:      msgs,
		logger:    logger,
		dummyHash: sync.OnceValue(passwords.DummyHash),
	}
}

func (s *AdminService) Register(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if err := s.validator.Validate(adminRules{Username: username, Password: password}); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", s.msgs.T(i18n.KeyPasswordTooLong))
	}

	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		if err = localize(err, apperror.ErrDuplicate, s.msgs, i18n.KeyAdminExists); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("registering admin: %w", err)
	}

	s.logger.Info("admin created", slog.String("id", admin.ID), slog.String("username", admin.Username))
	return admin, nil
}

// Login returns the admin and a 1-day admin token. Unknown usernames and
// wrong passwords both yield ErrUnauthorized.
func (s *AdminService) Login(ctx context.Context, username, password string) (*model.Admin, string, error) {
	invalid := apperror.Unauthorized(s.msgs.T(i18n.KeyInvalidCredentials))

	admin, err := s.admins.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.Verify(s.dummyHash(), password)
			return nil, "", invalid
		}
		return nil, "", fmt.Errorf("looking up admin: %w", err)
	}

	if err := s.passwords.Verify(admin.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", invalid
		}
		return nil, "", fmt.Errorf("verifying admin password: %w", err)
	}

	token, err := s.tokens.IssueAdmin(admin.ID, admin.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issuing admin token: %w", err)
	}

	s.logger.Info("admin logged in", slog.String("id", admin.ID))
	return admin, token, nil
}

func (s *AdminService) Me(ctx context.Context, id string) (*model.Admin, error) {
	admin, err := s.admins.GetAdmin(ctx, id)
	if err != nil {
		if err = localize(err, apperror.ErrNotFound, s.msgs, i18n.KeyAdminNotFound); isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("getting admin: %w", err)
	}
	return admin, nil
}
