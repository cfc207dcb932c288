package model

import (
	"strings"
	"time"
)

// User is an end-user account.
//
// PasswordHash is never serialised; handlers can return a *User directly.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Age           int       `json:"age"`
	Sex           string    `json:"sex"`
	PasswordHash  string    `json:"-"`
	Organisation  string    `json:"organisation"`
	Title         string    `json:"title"`
	Telephone     string    `json:"telephone"`
	Member        string    `json:"member"`
	Allergies     string    `json:"allergies"`
	AccountBanned bool      `json:"accountBanned"`
	JoinedEvents  []string  `json:"joinedEvents"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DisplayName prefers "First Last" and falls back to the legacy Name field.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Name
}

// HasEvent reports whether eventID is in the user's membership set.
func (u *User) HasEvent(eventID string) bool {
	return contains(u.JoinedEvents, eventID)
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSummary is the admin list projection.
type UserSummary struct {
	ID                string `json:"id"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Organisation      string `json:"organisation"`
	Member            string `json:"member"`
	AccountBanned     bool   `json:"accountBanned"`
	JoinedEventsCount int    `json:"joinedEventsCount"`
}

// Summary projects u for the admin user list.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:                u.ID,
		FullName:          u.DisplayName(),
		Email:             u.Email,
		Organisation:      u.Organisation,
		Member:            u.Member,
		AccountBanned:     u.AccountBanned,
		JoinedEventsCount: len(u.JoinedEvents),
	}
}

// Attendee is one row of an event's registered-users list.
type Attendee struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Telephone    string `json:"telephone"`
	Organisation string `json:"organisation"`
	Allergies    string `json:"allergies"`
}

func (u *User) Attendee() Attendee {
	return Attendee{
		ID:           u.ID,
		FullName:     u.DisplayName(),
		Email:        u.Email,
		Telephone:    u.Telephone,
		Organisation: u.Organisation,
		Allergies:    u.Allergies,
	}
}

// ProfileInput carries profile fields for sign-up and profile updates.
// A nil pointer means "not supplied" and leaves the stored value unchanged.
type ProfileInput struct {
	Name         *string `json:"name"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Email        *string `json:"email"`
	Age          *int    `json:"age"`
	Sex          *string `json:"sex"`
	Organisation *string `json:"organisation"`
	Title        *string `json:"title"`
	Telephone    *string `json:"telephone"`
	Member       *string `json:"member"`
	Allergies    *string `json:"allergies"`
}

// Apply copies every supplied field onto u. Email is normalised.
func (in ProfileInput) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.Name, in.Name)
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Sex, in.Sex)
	set(&u.Organisation, in.Organisation)
	set(&u.Title, in.Title)
	set(&u.Telephone, in.Telephone)
	set(&u.Member, in.Member)
	set(&u.Allergies, in.Allergies)
	if in.Email != nil {
		u.Email = NormalizeEmail(*in.Email)
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
}

// UserWithEvents is the admin detail view of one user.
type UserWithEvents struct {
	User   *User   `json:"user"`
	Events []Event `json:"events"`
}
