// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqlite is the production implementation; service tests
// use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/eventhub/internal/model"
)

// SortOrder orders event listings by date.
type SortOrder int

const (
	DateDesc SortOrder = iota
	DateAsc
)

// EventFilter narrows ListEvents. The zero value lists every event, newest
// date first.
type EventFilter struct {
	PublishedOnly   bool
	WithMembersOnly bool
	IDs             []string // when non-nil, only these events
	Order           SortOrder
	Limit           int // 0 means no limit
}

// EventRepository stores events. UpdateEvent never touches JoinedUsers;
// membership changes go through RegistrationRepository.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	// DeleteEvent removes the event and, in the same transaction, its id from
	// every user's JoinedEvents.
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
}

// UserRepository stores users. Emails are unique; a collision surfaces as
// apperror.ErrDuplicate. UpdateUser never touches JoinedEvents or the ban
// flag.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// SetUserBanned sets the ban flag to *banned, or flips it when banned is
	// nil, and returns the stored value.
	SetUserBanned(ctx context.Context, id string, banned *bool) (bool, error)
	// DeleteUser removes the user and, in the same transaction, its id from
	// every event's JoinedUsers.
	DeleteUser(ctx context.Context, id string) error
	// ListUsers returns users; ids, when non-nil, restricts the result.
	ListUsers(ctx context.Context, ids []string) ([]model.User, error)
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
}

// MembershipTx is the view of the store inside one registration transaction.
// Reads see the transaction's own writes.
type MembershipTx interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetEventMembers(ctx context.Context, eventID string, userIDs []string) error
	SetUserEvents(ctx context.Context, userID string, eventIDs []string) error
}

// RegistrationRepository runs fn in a single transaction. If fn returns an
// error every write made through tx is rolled back; otherwise all of them
// commit together. A commit refused because of a concurrent writer surfaces
// as apperror.ErrTxAborted.
type RegistrationRepository interface {
	InTx(ctx context.Context, fn func(tx MembershipTx) error) error
}
