package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatherings/internal/domain"
)

type pastEventService struct {
	pastEventRepo  domain.PastEventRepository
	eventRepo      domain.EventRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewPastEventService(pastEventRepo domain.PastEventRepository,
	eventRepo domain.EventRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.PastEventService {
	return &pastEventService{
		pastEventRepo:  pastEventRepo,
		eventRepo:      eventRepo,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Materialize creates or updates the gallery record for event. The lookup is
// keyed by event ID, so calling it twice updates the record created first.
// Merge precedence: explicit payload fields, then the existing record's
// fields, then the event's own images as a last resort.
func (s *pastEventService) Materialize(ctx context.Context, event *domain.Event, payload *domain.MediaPayload) (*domain.PastEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.pastEventRepo.GetByEventID(ctx, event.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get past event: %w", err)
	}

	if existing != nil {
		existing.Title = event.Title
		existing.City = event.City
		existing.State = event.State
		existing.Venue = event.Venue
		existing.HappenedAt = event.StartAt
		mergePayload(existing, event, payload)
		existing.UpdatedAt = time.Now()
		if err := s.pastEventRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update past event: %w", err)
		}
		return existing, nil
	}

	now := time.Now()
	eventID := event.ID
	pastEvent := &domain.PastEvent{
		EventID:     &eventID,
		Title:       event.Title,
		City:        event.City,
		State:       event.State,
		Venue:       event.Venue,
		HappenedAt:  event.StartAt,
		Description: event.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mergePayload(pastEvent, event, payload)
	if !pastEvent.HasMedia() {
		return nil, domain.NewValidationError("a gallery record needs at least one image or video")
	}

	base := event.Slug
	if base == "" {
		base = Slugify(event.Title)
	}
	if err := s.createWithFreshSlug(ctx, pastEvent, base); err != nil {
		return nil, err
	}
	return pastEvent, nil
}

// mergePayload applies payload fields onto the record: explicit payload
// fields win, existing record fields are otherwise preserved, and the event's
// own images fill in when the record has none.
func mergePayload(record *domain.PastEvent, event *domain.Event, payload *domain.MediaPayload) {
	if payload != nil {
		if len(payload.Images) > 0 {
			record.Images = payload.Images
		}
		if len(payload.Videos) > 0 {
			record.Videos = payload.Videos
		}
		if payload.Description != nil {
			record.Description = *payload.Description
		}
		if payload.Attendance != nil {
			record.Attendance = *payload.Attendance
		}
	}
	if len(record.Images) == 0 {
		record.Images = append([]string(nil), event.Images...)
	}
}

// createWithFreshSlug inserts the record, de-duplicating the slug against the
// past-event namespace with a short random suffix and retrying when the
// unique index reports a lost race.
func (s *pastEventService) createWithFreshSlug(ctx context.Context, pastEvent *domain.PastEvent, base string) error {
	slug := base
	for attempt := 0; attempt < slugAttempts; attempt++ {
		_, err := s.pastEventRepo.GetBySlug(ctx, slug)
		if err == nil {
			slug = fmt.Sprintf("%s-%s", base, randomSlugSuffix())
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check past event slug: %w", err)
		}
		pastEvent.Slug = slug
		err = s.pastEventRepo.Create(ctx, pastEvent)
		if errors.Is(err, domain.ErrSlugTaken) {
			slug = fmt.Sprintf("%s-%s", base, randomSlugSuffix())
			continue
		}
		if err != nil {
			return fmt.Errorf("create past event: %w", err)
		}
		return nil
	}
	return fmt.Errorf("create past event: could not find a free slug for %q", base)
}

// List returns gallery records sorted most recent first. It first runs the
// compatibility sweep for events marked completed before materialization
// existed: completed, already started, carrying images, and without a record
// yet. The sweep is idempotent; sweep failures are logged and skipped.
func (s *pastEventService) List(ctx context.Context, now time.Time) ([]*domain.PastEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.sweepCompleted(ctx, now)

	records, err := s.pastEventRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list past events: %w", err)
	}
	if records == nil {
		records = []*domain.PastEvent{}
	}
	return records, nil
}

func (s *pastEventService) sweepCompleted(ctx context.Context, now time.Time) {
	events, err := s.eventRepo.GetAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "past event sweep: list events failed", "err", err)
		return
	}
	for _, e := range events {
		if e.Status != domain.StatusCompleted || e.StartAt.After(now) || len(e.Images) == 0 {
			continue
		}
		_, err := s.pastEventRepo.GetByEventID(ctx, e.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "past event sweep: lookup failed", "event_id", e.ID, "err", err)
			continue
		}
		if _, err := s.Materialize(ctx, e, nil); err != nil {
			s.logger.WarnContext(ctx, "past event sweep: materialize failed", "event_id", e.ID, "err", err)
		}
	}
}

func (s *pastEventService) GetBySlug(ctx context.Context, slug string) (*domain.PastEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	pastEvent, err := s.pastEventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get past event: %w", err)
	}
	return pastEvent, nil
}

// CreateHistorical records a gathering that predates the live listing flow.
// Privileged only; the media gate applies as everywhere else.
func (s *pastEventService) CreateHistorical(ctx context.Context, actor domain.Actor, in domain.HistoricalEventInput) (*domain.PastEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var errs []string
	if in.Title == "" {
		errs = append(errs, "title is required")
	}
	if in.HappenedAt.IsZero() {
		errs = append(errs, "happened_at is required")
	}
	if len(in.Images) == 0 && len(in.Videos) == 0 {
		errs = append(errs, "a gallery record needs at least one image or video")
	}
	if in.Attendance < 0 {
		errs = append(errs, "attendance must not be negative")
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}

	now := time.Now()
	pastEvent := &domain.PastEvent{
		Title:       in.Title,
		City:        in.City,
		State:       in.State,
		Venue:       in.Venue,
		HappenedAt:  in.HappenedAt,
		Images:      in.Images,
		Videos:      in.Videos,
		Description: in.Description,
		Attendance:  in.Attendance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.createWithFreshSlug(ctx, pastEvent, Slugify(in.Title)); err != nil {
		return nil, err
	}
	return pastEvent, nil
}
