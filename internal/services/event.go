package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gatherings/internal/domain"
	"gatherings/internal/recurrence"
)

// slugAttempts bounds the create-retry loop when the repository reports a
// unique-slug violation. The unique index is the real backstop under
// concurrent writers; this loop just regenerates and tries again.
const slugAttempts = 5

type eventService struct {
	eventRepo         domain.EventRepository
	pastEventRepo     domain.PastEventRepository
	materializer      domain.PastEventMaterializer
	notifier          domain.NotificationService
	moderationEnabled bool
	logger            *slog.Logger
	contextTimeout    time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	pastEventRepo domain.PastEventRepository,
	materializer domain.PastEventMaterializer,
	notifier domain.NotificationService,
	moderationEnabled bool,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:         eventRepo,
		pastEventRepo:     pastEventRepo,
		materializer:      materializer,
		notifier:          notifier,
		moderationEnabled: moderationEnabled,
		logger:            logger,
		contextTimeout:    timeout,
	}
}

// validateEventTimes checks the date invariants shared by Submit and Edit.
func validateEventTimes(startAt time.Time, endAt *time.Time) []string {
	var errs []string
	if startAt.IsZero() {
		errs = append(errs, "start_at is required")
	}
	if endAt != nil && !startAt.IsZero() && endAt.Before(startAt) {
		errs = append(errs, "end_at must not be before start_at")
	}
	return errs
}

// initialStatus computes the moderation state for a fresh listing: approved
// for privileged submitters or when moderation is globally disabled,
// otherwise pending.
func (s *eventService) initialStatus(actor *domain.Actor) domain.EventStatus {
	if (actor != nil && actor.IsAdmin()) || !s.moderationEnabled {
		return domain.StatusApproved
	}
	return domain.StatusPending
}

// nextFreeEventSlug returns base or base-2, base-3, ... — the first candidate
// not taken by an event other than ownID.
func (s *eventService) nextFreeEventSlug(ctx context.Context, base, ownID string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		existing, err := s.eventRepo.GetBySlug(ctx, slug)
		if errors.Is(err, domain.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if ownID != "" && existing.ID == ownID {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *eventService) Submit(ctx context.Context, actor *domain.Actor, in domain.SubmitEventInput) (*domain.Event, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var errs []string
	if in.Title == "" {
		errs = append(errs, "title is required")
	}
	if in.City == "" {
		errs = append(errs, "city is required")
	}
	if in.ContactEmail == "" {
		errs = append(errs, "contact_email is required")
	}
	errs = append(errs, validateEventTimes(in.StartAt, in.EndAt)...)
	errs = append(errs, in.Recurrence.Validate()...)
	if len(errs) > 0 {
		return nil, "", domain.NewValidationError(errs...)
	}

	now := time.Now()
	event := &domain.Event{
		Title:        in.Title,
		Description:  in.Description,
		City:         in.City,
		State:        in.State,
		Venue:        in.Venue,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		StartAt:      in.StartAt,
		EndAt:        in.EndAt,
		Status:       s.initialStatus(actor),
		Recurrence:   in.Recurrence,
		CoverImage:   in.CoverImage,
		Images:       in.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor != nil {
		event.OwnerID = actor.ID
	}

	if err := s.createWithFreshSlug(ctx, event, Slugify(in.Title)); err != nil {
		return nil, "", err
	}

	message := "event submitted and awaiting review"
	if event.Status == domain.StatusApproved {
		message = "event submitted and approved"
	}
	return event, message, nil
}

// createWithFreshSlug assigns a de-duplicated slug and inserts the event,
// regenerating on a unique-violation race.
func (s *eventService) createWithFreshSlug(ctx context.Context, event *domain.Event, base string) error {
	for attempt := 0; attempt < slugAttempts; attempt++ {
		slug, err := s.nextFreeEventSlug(ctx, base, "")
		if err != nil {
			return err
		}
		event.Slug = slug
		err = s.eventRepo.Create(ctx, event)
		if errors.Is(err, domain.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return nil
	}
	return fmt.Errorf("create event: could not find a free slug for %q", base)
}

func (s *eventService) Edit(ctx context.Context, eventID string, actor domain.Actor, in domain.EditEventInput) (*domain.Event, *domain.PastEvent, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, "", domain.ErrNotFound
		}
		return nil, nil, "", fmt.Errorf("get event: %w", err)
	}
	if !actor.IsAdmin() && event.OwnerID != actor.ID {
		return nil, nil, "", domain.ErrForbidden
	}

	titleChanged := in.Title != nil && *in.Title != event.Title
	applyEventEdits(event, in)

	var errs []string
	errs = append(errs, validateEventTimes(event.StartAt, event.EndAt)...)
	if in.Recurrence != nil {
		errs = append(errs, event.Recurrence.Validate()...)
	}
	if len(errs) > 0 {
		return nil, nil, "", domain.NewValidationError(errs...)
	}

	// Admins may set any status explicitly; everyone else goes back to the
	// moderation queue because the content changed.
	if actor.IsAdmin() {
		if in.Status != nil {
			switch *in.Status {
			case domain.StatusPending, domain.StatusApproved, domain.StatusCompleted:
				event.Status = *in.Status
			default:
				return nil, nil, "", domain.NewValidationError(fmt.Sprintf("unknown status %q", *in.Status))
			}
		}
		if in.Featured != nil {
			event.Featured = *in.Featured
		}
		if in.FeaturedUntil != nil {
			event.FeaturedUntil = in.FeaturedUntil
		}
	} else {
		event.Status = domain.StatusPending
	}

	if event.Status == domain.StatusCompleted {
		if err := s.checkMediaGate(ctx, event, in.PastEvent); err != nil {
			return nil, nil, "", err
		}
	}

	if titleChanged {
		slug, err := s.nextFreeEventSlug(ctx, Slugify(event.Title), event.ID)
		if err != nil {
			return nil, nil, "", err
		}
		event.Slug = slug
	}

	event.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, nil, "", fmt.Errorf("update event: %w", err)
	}

	message := "event updated"
	if event.Status == domain.StatusPending && !actor.IsAdmin() {
		message = "event updated and awaiting review"
	}

	// The update is already persisted; materialization failure past this
	// point is a recoverable inconsistency, surfaced as partial success.
	var pastEvent *domain.PastEvent
	if event.Status == domain.StatusCompleted || in.PastEvent != nil {
		pastEvent, err = s.materializer.Materialize(ctx, event, in.PastEvent)
		if err != nil {
			s.logger.ErrorContext(ctx, "materialize after edit failed", "event_id", event.ID, "err", err)
			return event, nil, "event updated, but the gallery record could not be written; retry the completion", nil
		}
	}
	return event, pastEvent, message, nil
}

// applyEventEdits copies the non-nil partial fields onto event. Status,
// featured flags, and slug are handled by the caller.
func applyEventEdits(event *domain.Event, in domain.EditEventInput) {
	if in.Title != nil {
		event.Title = *in.Title
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.City != nil {
		event.City = *in.City
	}
	if in.State != nil {
		event.State = *in.State
	}
	if in.Venue != nil {
		event.Venue = *in.Venue
	}
	if in.ContactName != nil {
		event.ContactName = *in.ContactName
	}
	if in.ContactEmail != nil {
		event.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		event.ContactPhone = *in.ContactPhone
	}
	if in.StartAt != nil {
		event.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		event.EndAt = in.EndAt
	}
	if in.Recurrence != nil {
		event.Recurrence = *in.Recurrence
	}
	if in.CoverImage != nil {
		event.CoverImage = *in.CoverImage
	}
	if in.Images != nil {
		event.Images = in.Images
	}
}

// checkMediaGate rejects a transition to completed unless the event, its
// existing gallery record, or the supplied payload carries media.
func (s *eventService) checkMediaGate(ctx context.Context, event *domain.Event, payload *domain.MediaPayload) error {
	if payload != nil && (len(payload.Images) > 0 || len(payload.Videos) > 0) {
		return nil
	}
	if len(event.Images) > 0 {
		return nil
	}
	existing, err := s.pastEventRepo.GetByEventID(ctx, event.ID)
	if err == nil && existing.HasMedia() {
		return nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get past event: %w", err)
	}
	return domain.NewValidationError("event has no images or videos; add media before completing")
}

func (s *eventService) ApplyAction(ctx context.Context, eventID string, actor domain.Actor, action domain.ModerationAction) (*domain.Event, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, "", domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get event: %w", err)
	}

	switch action {
	case domain.ActionApprove:
		event.Status = domain.StatusApproved
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return nil, "", fmt.Errorf("update event: %w", err)
		}
		s.notifyStatus(ctx, event, false)
		return event, "event approved", nil

	case domain.ActionComplete:
		if err := s.checkMediaGate(ctx, event, nil); err != nil {
			return nil, "", err
		}
		// Materialize with the event's current data before flipping the
		// status, so a failed write leaves the listing untouched. A retry is
		// safe: the materializer's lookup by event ID is idempotent.
		if _, err := s.materializer.Materialize(ctx, event, nil); err != nil {
			return nil, "", fmt.Errorf("materialize past event: %w", err)
		}
		event.Status = domain.StatusCompleted
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return nil, "", fmt.Errorf("update event: %w", err)
		}
		s.notifyStatus(ctx, event, true)
		return event, "event completed and gallery record published", nil

	case domain.ActionDelete:
		if err := s.eventRepo.Delete(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, "", domain.ErrNotFound
			}
			return nil, "", fmt.Errorf("delete event: %w", err)
		}
		return event, "event deleted", nil

	default:
		return nil, "", domain.NewValidationError(fmt.Sprintf("unknown action %q", action))
	}
}

// notifyStatus sends the moderation notice for an approval or completion.
// Best effort: failures are logged, never returned.
func (s *eventService) notifyStatus(ctx context.Context, event *domain.Event, completed bool) {
	if s.notifier == nil || event.ContactEmail == "" {
		return
	}
	data := &domain.EventNoticeEmailData{
		ContactName:  event.ContactName,
		ContactEmail: event.ContactEmail,
		EventTitle:   event.Title,
		EventSlug:    event.Slug,
		StartAt:      event.StartAt,
	}
	var err error
	if completed {
		err = s.notifier.SendEventCompleted(ctx, data)
	} else {
		err = s.notifier.SendEventApproved(ctx, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "moderation notice failed", "event_id", event.ID, "err", err)
	}
}

func (s *eventService) Duplicate(ctx context.Context, eventID string, actor domain.Actor) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	original, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !actor.IsAdmin() && original.OwnerID != actor.ID {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	dup := &domain.Event{
		Title:        original.Title + " (copy)",
		Description:  original.Description,
		City:         original.City,
		State:        original.State,
		Venue:        original.Venue,
		ContactName:  original.ContactName,
		ContactEmail: original.ContactEmail,
		ContactPhone: original.ContactPhone,
		StartAt:      original.StartAt,
		EndAt:        original.EndAt,
		Status:       s.initialStatus(&actor),
		Recurrence:   original.Recurrence,
		CoverImage:   original.CoverImage,
		Images:       append([]string(nil), original.Images...),
		OwnerID:      original.OwnerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.createWithFreshSlug(ctx, dup, Slugify(dup.Title)); err != nil {
		return nil, err
	}
	return dup, nil
}

func (s *eventService) GetBySlug(ctx context.Context, slug string, actor *domain.Actor) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Pending listings are only visible to moderators and their owner.
	if event.Status == domain.StatusPending {
		if actor == nil || (!actor.IsAdmin() && event.OwnerID != actor.ID) {
			return nil, domain.ErrNotFound
		}
	}
	return event, nil
}

func (s *eventService) ListUpcoming(ctx context.Context, now time.Time) ([]*domain.UpcomingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]*domain.UpcomingEvent, 0, len(events))
	for _, e := range events {
		if e.Status != domain.StatusApproved {
			continue
		}
		next, ok := recurrence.Next(e.StartAt, e.Recurrence.Spec, now)
		if !ok {
			continue
		}
		out = append(out, &domain.UpcomingEvent{
			Event:           e,
			NextAt:          next,
			RecurrenceLabel: recurrence.Describe(e.Recurrence.Spec),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := isFeaturedAt(out[i].Event, now), isFeaturedAt(out[j].Event, now)
		if fi != fj {
			return fi
		}
		return out[i].NextAt.Before(out[j].NextAt)
	})
	return out, nil
}

// isFeaturedAt reports whether the listing is featured and the featured
// window, if set, has not elapsed.
func isFeaturedAt(e *domain.Event, now time.Time) bool {
	if !e.Featured {
		return false
	}
	return e.FeaturedUntil == nil || !e.FeaturedUntil.Before(now)
}

func (s *eventService) Occurrences(ctx context.Context, eventID string) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return recurrence.Generate(event.StartAt, event.Recurrence.Spec), nil
}
