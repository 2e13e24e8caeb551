package domain

import (
	"context"
	"time"
)

// PastEvent is the durable gallery record of a gathering that happened.
// Its slug namespace is independent from Event slugs. An Event has at most
// one PastEvent; a PastEvent references at most one Event.
type PastEvent struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	EventID     *string    `json:"event_id"`
	Title       string     `json:"title"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Venue       string     `json:"venue"`
	HappenedAt  time.Time  `json:"happened_at"`
	Images      []string   `json:"images"`
	Videos      []string   `json:"videos"`
	Description string     `json:"description"`
	Attendance  int        `json:"attendance"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasMedia reports whether the record carries at least one image or video.
// A PastEvent without media is rejected by the caller-facing contract.
func (p *PastEvent) HasMedia() bool {
	return len(p.Images) > 0 || len(p.Videos) > 0
}

// MediaPayload carries explicit gallery fields supplied alongside an edit or
// completion. Explicit fields override existing PastEvent fields on merge.
type MediaPayload struct {
	Images      []string
	Videos      []string
	Description *string
	Attendance  *int
}

// HistoricalEventInput holds the fields for a purely historical entry that
// never had a live Event listing.
type HistoricalEventInput struct {
	Title       string
	City        string
	State       string
	Venue       string
	HappenedAt  time.Time
	Images      []string
	Videos      []string
	Description string
	Attendance  int
}

// PastEventRepository defines the interface for past-event storage.
type PastEventRepository interface {
	Create(ctx context.Context, pastEvent *PastEvent) error
	GetByID(ctx context.Context, id string) (*PastEvent, error)
	GetBySlug(ctx context.Context, slug string) (*PastEvent, error)
	GetByEventID(ctx context.Context, eventID string) (*PastEvent, error)
	GetAll(ctx context.Context) ([]*PastEvent, error)
	Update(ctx context.Context, pastEvent *PastEvent) error
	Delete(ctx context.Context, id string) error
}

// PastEventMaterializer creates or updates the gallery record for an event.
// The operation is idempotent: keyed by EventID, a second call updates the
// record created by the first.
type PastEventMaterializer interface {
	Materialize(ctx context.Context, event *Event, payload *MediaPayload) (*PastEvent, error)
}

// PastEventService defines the gallery logic, including the materializer.
type PastEventService interface {
	PastEventMaterializer
	List(ctx context.Context, now time.Time) ([]*PastEvent, error)
	GetBySlug(ctx context.Context, slug string) (*PastEvent, error)
	CreateHistorical(ctx context.Context, actor Actor, in HistoricalEventInput) (*PastEvent, error)
}
