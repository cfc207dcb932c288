// Package model defines the data structures shared by every layer.
package model

import "time"

// Event is something users can register for.
//
// JoinedUsers is one side of the membership relation; User.JoinedEvents is
// the other. Only the registration coordinator mutates either side, and it
// always writes both in a single transaction.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	YoutubeLink string    `json:"youtubeLink"`
	Date        Date      `json:"date"`
	Time        string    `json:"time"`
	Published   bool      `json:"published"`
	JoinedUsers []string  `json:"joinedUsers"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is in the event's membership set.
func (e *Event) HasMember(userID string) bool {
	return contains(e.JoinedUsers, userID)
}

// EventSummary is the projection returned by the "latest events" view.
type EventSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// EventRegistrations is the admin view of an event that has members.
type EventRegistrations struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Date            Date   `json:"date"`
	RegisteredCount int    `json:"registeredCount"`
}

// EventInput carries the fields an admin may set on create or update.
// A nil pointer means "not supplied".
type EventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	YoutubeLink *string `json:"youtubeLink"`
	Date        *Date   `json:"date"`
	Time        *string `json:"time"`
	Published   *bool   `json:"published"`
}

// Apply copies every supplied field onto e.
func (in EventInput) Apply(e *Event) {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Image != nil {
		e.Image = *in.Image
	}
	if in.YoutubeLink != nil {
		e.YoutubeLink = *in.YoutubeLink
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Time != nil {
		e.Time = *in.Time
	}
	if in.Published != nil {
		e.Published = *in.Published
	}
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// AddMember returns set with id appended, unless it is already present.
func AddMember(set []string, id string) []string {
	if contains(set, id) {
		return set
	}
	return append(set, id)
}

// RemoveMember returns set without id. Removing an absent id is a no-op.
func RemoveMember(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
