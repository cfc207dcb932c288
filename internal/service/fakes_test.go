package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
	"github.com/sakif/eventhub/internal/validate"
)

// memStore is an in-memory implementation of every repository interface.
// InTx works on a copy of the state and swaps it in only when fn succeeds,
// so rollback behaves like the SQLite store.
type memStore struct {
	mu     sync.Mutex
	state  memState
	nextID int

	// abortNext makes the next InTx fail as if the store had been busy.
	abortNext bool
}

type memState struct {
	events map[string]model.Event
	users  map[string]model.User
	admins map[string]model.Admin
}

var (
	_ repository.EventRepository        = (*memStore)(nil)
	_ repository.UserRepository         = (*memStore)(nil)
	_ repository.AdminRepository        = (*memStore)(nil)
	_ repository.RegistrationRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{state: memState{
		events: make(map[string]model.Event),
		users:  make(map[string]model.User),
		admins: make(map[string]model.Admin),
	}}
}

func (s memState) clone() memState {
	out := memState{
		events: make(map[string]model.Event, len(s.events)),
		users:  make(map[string]model.User, len(s.users)),
		admins: make(map[string]model.Admin, len(s.admins)),
	}
	for k, e := range s.events {
		e.JoinedUsers = slices.Clone(e.JoinedUsers)
		out.events[k] = e
	}
	for k, u := range s.users {
		u.JoinedEvents = slices.Clone(u.JoinedEvents)
		out.users[k] = u
	}
	for k, a := range s.admins {
		out.admins[k] = a
	}
	return out
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// ---- events ----

func (m *memStore) CreateEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = m.id("evt")
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	if event.JoinedUsers == nil {
		event.JoinedUsers = []string{}
	}
	stored := *event
	stored.JoinedUsers = slices.Clone(event.JoinedUsers)
	m.state.events[event.ID] = stored
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getEvent(id)
}

func (s memState) getEvent(id string) (*model.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	e.JoinedUsers = slices.Clone(e.JoinedUsers)
	return &e, nil
}

func (m *memStore) UpdateEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.state.events[event.ID]
	if !ok {
		return apperror.NotFound("event", event.ID)
	}
	members := stored.JoinedUsers
	stored = *event
	stored.JoinedUsers = members
	stored.UpdatedAt = time.Now().UTC()
	m.state.events[event.ID] = stored
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.events[id]; !ok {
		return apperror.NotFound("event", id)
	}
	delete(m.state.events, id)
	for k, u := range m.state.users {
		u.JoinedEvents = model.RemoveMember(u.JoinedEvents, id)
		m.state.users[k] = u
	}
	return nil
}

func (m *memStore) ListEvents(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Event{}
	for _, e := range m.state.events {
		if f.PublishedOnly && !e.Published {
			continue
		}
		if f.WithMembersOnly && len(e.JoinedUsers) == 0 {
			continue
		}
		if f.IDs != nil && !slices.Contains(f.IDs, e.ID) {
			continue
		}
		e.JoinedUsers = slices.Clone(e.JoinedUsers)
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.Order == repository.DateAsc {
			a, b = b, a
		}
		if !a.Date.Time().Equal(b.Date.Time()) {
			return b.Date.Before(a.Date)
		}
		return b.CreatedAt.Before(a.CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ---- users ----

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.Email = model.NormalizeEmail(user.Email)
	if m.state.emailTaken(user.Email, "") {
		return apperror.Duplicate("email", "email already used")
	}
	user.ID = m.id("usr")
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.JoinedEvents == nil {
		user.JoinedEvents = []string{}
	}
	stored := *user
	stored.JoinedEvents = slices.Clone(user.JoinedEvents)
	m.state.users[user.ID] = stored
	return nil
}

func (s memState) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (m *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getUser(id)
}

func (s memState) getUser(id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.JoinedEvents = slices.Clone(u.JoinedEvents)
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = model.NormalizeEmail(email)
	for id, u := range m.state.users {
		if u.Email == email {
			return m.state.getUser(id)
		}
	}
	return nil, apperror.NotFoundMessage("user not found")
}

func (m *memStore) UpdateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.state.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.Email = model.NormalizeEmail(user.Email)
	if m.state.emailTaken(user.Email, user.ID) {
		return apperror.Duplicate("email", "email already used")
	}

	next := *user
	next.PasswordHash = stored.PasswordHash
	next.AccountBanned = stored.AccountBanned
	next.JoinedEvents = stored.JoinedEvents
	next.UpdatedAt = time.Now().UTC()
	m.state.users[user.ID] = next
	return nil
}

func (m *memStore) SetUserBanned(_ context.Context, id string, banned *bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.state.users[id]
	if !ok {
		return false, apperror.NotFound("user", id)
	}
	if banned == nil {
		u.AccountBanned = !u.AccountBanned
	} else {
		u.AccountBanned = *banned
	}
	m.state.users[id] = u
	return u.AccountBanned, nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.state.users, id)
	for k, e := range m.state.events {
		e.JoinedUsers = model.RemoveMember(e.JoinedUsers, id)
		m.state.events[k] = e
	}
	return nil
}

func (m *memStore) ListUsers(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.User{}
	for _, u := range m.state.users {
		if ids != nil && !slices.Contains(ids, u.ID) {
			continue
		}
		u.JoinedEvents = slices.Clone(u.JoinedEvents)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- admins ----

func (m *memStore) CreateAdmin(_ context.Context, admin *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.state.admins {
		if a.Username == admin.Username {
			return apperror.Duplicate("username", "username taken")
		}
	}
	admin.ID = m.id("adm")
	admin.CreatedAt = time.Now().UTC()
	m.state.admins[admin.ID] = *admin
	return nil
}

func (m *memStore) GetAdmin(_ context.Context, id string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.state.admins[id]
	if !ok {
		return nil, apperror.NotFound("admin", id)
	}
	return &a, nil
}

func (m *memStore) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.state.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, apperror.NotFoundMessage("admin not found")
}

// ---- registration ----

func (m *memStore) InTx(_ context.Context, fn func(tx repository.MembershipTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.abortNext {
		m.abortNext = false
		return apperror.TxAborted("store busy, retry", fmt.Errorf("database is locked"))
	}

	work := m.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	state memState
}

func (t *memTx) GetEvent(_ context.Context, id string) (*model.Event, error) {
	return t.state.getEvent(id)
}

func (t *memTx) GetUser(_ context.Context, id string) (*model.User, error) {
	return t.state.getUser(id)
}

func (t *memTx) SetEventMembers(_ context.Context, eventID string, userIDs []string) error {
	e, ok := t.state.events[eventID]
	if !ok {
		return fmt.Errorf("event %s vanished", eventID)
	}
	e.JoinedUsers = slices.Clone(userIDs)
	t.state.events[eventID] = e
	return nil
}

func (t *memTx) SetUserEvents(_ context.Context, userID string, eventIDs []string) error {
	u, ok := t.state.users[userID]
	if !ok {
		return fmt.Errorf("user %s vanished", userID)
	}
	u.JoinedEvents = slices.Clone(eventIDs)
	t.state.users[userID] = u
	return nil
}

// assertMembershipConsistent checks that both sides of every membership
// pair agree.
func (m *memStore) assertMembershipConsistent(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for eid, e := range m.state.events {
		for _, uid := range e.JoinedUsers {
			u, ok := m.state.users[uid]
			require.Truef(t, ok, "event %s lists missing user %s", eid, uid)
			require.Truef(t, u.HasEvent(eid), "user %s does not list event %s", uid, eid)
		}
	}
	for uid, u := range m.state.users {
		for _, eid := range u.JoinedEvents {
			e, ok := m.state.events[eid]
			require.Truef(t, ok, "user %s lists missing event %s", uid, eid)
			require.Truef(t, e.HasMember(uid), "event %s does not list user %s", eid, uid)
		}
	}
}

// ---- wiring ----

const testSecret = "service-test-secret-0123456789"

type testEnv struct {
	store        *memStore
	events       *EventService
	users        *UserService
	admins       *AdminService
	registration *RegistrationService
	tokens       *auth.TokenService
	today        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	msgs := i18n.MustNew(i18n.EN)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validate.New(msgs)
	passwords := auth.NewPasswordServiceForTest(4)
	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)

	today := time.Date(2026, time.May, 15, 10, 0, 0, 0, time.UTC)
	reg := NewRegistrationService(store, msgs, logger)
	reg.now = func() time.Time { return today }

	return &testEnv{
		store:        store,
		events:       NewEventService(store, store, v, msgs, logger),
		users:        NewUserService(store, store, passwords, tokens, v, msgs, logger),
		admins:       NewAdminService(store, passwords, tokens, v, msgs, logger),
		registration: reg,
		tokens:       tokens,
		today:        today,
	}
}

func ptr[T any](v T) *T { return &v }

// seedEvent creates a published event daysFromToday days after env.today.
func (env *testEnv) seedEvent(t *testing.T, title string, daysFromToday int) *model.Event {
	t.Helper()
	date := model.DateOf(env.today.AddDate(0, 0, daysFromToday))
	e, err := env.events.Create(context.Background(), model.EventInput{
		Title:       ptr(title),
		Description: ptr(title + " description"),
		Image:       ptr("https://img.example/" + title + ".png"),
		YoutubeLink: ptr("https://youtu.be/xyz"),
		Date:        &date,
		Time:        ptr("18:00"),
	})
	require.NoError(t, err)
	return e
}

func (env *testEnv) seedUser(t *testing.T, first, email string) *model.User {
	t.Helper()
	u, _, err := env.users.Register(context.Background(), SignupInput{
		ProfileInput: model.ProfileInput{
			FirstName: ptr(first),
			LastName:  ptr("Tester"),
			Email:     ptr(email),
		},
		Password: "hunter22",
	})
	require.NoError(t, err)
	return u
}
