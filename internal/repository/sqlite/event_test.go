package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateEvent(t *testing.T) {
	db := newTestDB(t)

	e := createTestEvent(t, db, "Gala", tomorrow())

	if e.ID == "" {
		t.Error("CreateEvent() did not set ID")
	}
	if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Error("CreateEvent() did not set timestamps")
	}
	if e.JoinedUsers == nil {
		t.Error("CreateEvent() left JoinedUsers nil")
	}
}

func TestGetEvent_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	date := model.NewDate(2031, 6, 15)
	created := createTestEvent(t, db, "Gala", date)

	got, err := db.GetEvent(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}

	if got.Title != "Gala" || got.Time != "19:00" || !got.Published {
		t.Errorf("GetEvent() = %+v", got)
	}
	if got.Date.String() != "2031-06-15" {
		t.Errorf("Date = %q, want 2031-06-15", got.Date.String())
	}
	if len(got.JoinedUsers) != 0 {
		t.Errorf("JoinedUsers = %v, want empty", got.JoinedUsers)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetEvent(context.Background(), "does-not-exist")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetEvent() err = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateEvent_KeepsMembership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e := createTestEvent(t, db, "Gala", tomorrow())
	u := createTestUser(t, db, "a@example.com")

	err := db.InTx(ctx, func(tx repository.MembershipTx) error {
		return tx.SetEventMembers(ctx, e.ID, []string{u.ID})
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	// e still has the stale, empty JoinedUsers; UpdateEvent must not write it.
	e.Title = "Grand Gala"
	e.Published = false
	if err := db.UpdateEvent(ctx, e); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}

	got, _ := db.GetEvent(ctx, e.ID)
	if got.Title != "Grand Gala" || got.Published {
		t.Errorf("UpdateEvent() did not persist fields: %+v", got)
	}
	if len(got.JoinedUsers) != 1 || got.JoinedUsers[0] != u.ID {
		t.Errorf("JoinedUsers = %v, want [%s]", got.JoinedUsers, u.ID)
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateEvent(context.Background(), &model.Event{ID: "ghost", Date: tomorrow()})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateEvent() err = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteEvent_PurgesUserMemberships(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doomed := createTestEvent(t, db, "Doomed", tomorrow())
	kept := createTestEvent(t, db, "Kept", tomorrow())
	u := createTestUser(t, db, "a@example.com")

	err := db.InTx(ctx, func(tx repository.MembershipTx) error {
		if err := tx.SetEventMembers(ctx, doomed.ID, []string{u.ID}); err != nil {
			return err
		}
		if err := tx.SetEventMembers(ctx, kept.ID, []string{u.ID}); err != nil {
			return err
		}
		return tx.SetUserEvents(ctx, u.ID, []string{doomed.ID, kept.ID})
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	if err := db.DeleteEvent(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}

	if _, err := db.GetEvent(ctx, doomed.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetEvent() after delete err = %v, want ErrNotFound", err)
	}
	got, _ := db.GetUser(ctx, u.ID)
	if len(got.JoinedEvents) != 1 || got.JoinedEvents[0] != kept.ID {
		t.Errorf("JoinedEvents = %v, want [%s]", got.JoinedEvents, kept.ID)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	if err := db.DeleteEvent(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("DeleteEvent() err = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	jan := createTestEvent(t, db, "Jan", model.NewDate(2031, 1, 10))
	mar := createTestEvent(t, db, "Mar", model.NewDate(2031, 3, 10))
	feb := createTestEvent(t, db, "Feb", model.NewDate(2031, 2, 10))
	hidden := createTestEvent(t, db, "Hidden", model.NewDate(2031, 4, 10))
	hidden.Published = false
	if err := db.UpdateEvent(ctx, hidden); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}
	u := createTestUser(t, db, "a@example.com")
	_ = db.InTx(ctx, func(tx repository.MembershipTx) error {
		return tx.SetEventMembers(ctx, feb.ID, []string{u.ID})
	})

	titles := func(events []model.Event) []string {
		out := make([]string, len(events))
		for i, e := range events {
			out[i] = e.Title
		}
		return out
	}

	tests := []struct {
		name   string
		filter repository.EventFilter
		want   []string
	}{
		{"all, date desc", repository.EventFilter{}, []string{"Hidden", "Mar", "Feb", "Jan"}},
		{"date asc", repository.EventFilter{Order: repository.DateAsc}, []string{"Jan", "Feb", "Mar", "Hidden"}},
		{"published, limit 2", repository.EventFilter{PublishedOnly: true, Limit: 2}, []string{"Mar", "Feb"}},
		{"with members", repository.EventFilter{WithMembersOnly: true}, []string{"Feb"}},
		{"by ids", repository.EventFilter{IDs: []string{jan.ID, mar.ID}, Order: repository.DateAsc}, []string{"Jan", "Mar"}},
		{"empty ids", repository.EventFilter{IDs: []string{}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.ListEvents(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListEvents() error = %v", err)
			}
			got := titles(events)
			if len(got) != len(tt.want) {
				t.Fatalf("ListEvents() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListEvents()[%d] = %q, want %q (all: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}
