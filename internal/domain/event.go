package domain

import (
	"context"
	"time"

	"gatherings/internal/recurrence"
)

// EventStatus is the moderation state of a listing.
type EventStatus string

const (
	StatusPending   EventStatus = "pending"
	StatusApproved  EventStatus = "approved"
	StatusCompleted EventStatus = "completed"
)

// ModerationAction is a privileged lifecycle action applied to an event.
type ModerationAction string

const (
	ActionApprove  ModerationAction = "approve"
	ActionComplete ModerationAction = "complete"
	ActionDelete   ModerationAction = "delete"
)

// Event represents a public listing of a one-off or recurring gathering.
type Event struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Venue         string          `json:"venue"`
	ContactName   string          `json:"contact_name"`
	ContactEmail  string          `json:"contact_email"`
	ContactPhone  string          `json:"contact_phone"`
	StartAt       time.Time       `json:"start_at"`
	EndAt         *time.Time      `json:"end_at"`
	Status        EventStatus     `json:"status"`
	Recurrence    recurrence.Rule `json:"recurrence"`
	CoverImage    string          `json:"cover_image"`
	Images        []string        `json:"images"`
	Featured      bool            `json:"featured"`
	FeaturedUntil *time.Time      `json:"featured_until"`
	OwnerID       string          `json:"owner_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// UpcomingEvent is an Event annotated with its next generated occurrence at
// or after the listing time and a display label for the repeat pattern. Not
// persisted.
type UpcomingEvent struct {
	*Event
	NextAt          time.Time `json:"next_at"`
	RecurrenceLabel string    `json:"recurrence_label"`
}

// SubmitEventInput holds the caller-supplied fields for a new submission.
// Identifiers, status, and audit timestamps are server-assigned.
type SubmitEventInput struct {
	Title        string
	Description  string
	City         string
	State        string
	Venue        string
	ContactName  string
	ContactEmail string
	ContactPhone string
	StartAt      time.Time
	EndAt        *time.Time
	Recurrence   recurrence.Rule
	CoverImage   string
	Images       []string
}

// EditEventInput holds a partial field set for an update. Nil fields are left
// unchanged. Status is honored only for privileged actors. PastEvent, when
// supplied, is forwarded to the materializer.
type EditEventInput struct {
	Title         *string
	Description   *string
	City          *string
	State         *string
	Venue         *string
	ContactName   *string
	ContactEmail  *string
	ContactPhone  *string
	StartAt       *time.Time
	EndAt         *time.Time
	Recurrence    *recurrence.Rule
	CoverImage    *string
	Images        []string
	Featured      *bool
	FeaturedUntil *time.Time
	Status        *EventStatus
	PastEvent     *MediaPayload
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	GetAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService defines the moderation lifecycle logic for event listings.
type EventService interface {
	Submit(ctx context.Context, actor *Actor, in SubmitEventInput) (*Event, string, error)
	Edit(ctx context.Context, eventID string, actor Actor, in EditEventInput) (*Event, *PastEvent, string, error)
	ApplyAction(ctx context.Context, eventID string, actor Actor, action ModerationAction) (*Event, string, error)
	Duplicate(ctx context.Context, eventID string, actor Actor) (*Event, error)
	GetBySlug(ctx context.Context, slug string, actor *Actor) (*Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]*UpcomingEvent, error)
	Occurrences(ctx context.Context, eventID string) ([]time.Time, error)
}
