package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"
	"gatherings/internal/recurrence"
)

// EventController serves the listing lifecycle endpoints.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// writeServiceError maps service errors onto the response envelope:
// ValidationError → 400, ErrForbidden → 403, ErrNotFound → 404, anything
// else → logged 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, vErr.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// MediaPayloadRequest is the optional gallery payload accompanying an edit.
type MediaPayloadRequest struct {
	Images      []string `json:"images"`
	Videos      []string `json:"videos"`
	Description *string  `json:"description"`
	Attendance  *int     `json:"attendance"`
}

func (m *MediaPayloadRequest) toDomain() *domain.MediaPayload {
	if m == nil {
		return nil
	}
	return &domain.MediaPayload{
		Images:      m.Images,
		Videos:      m.Videos,
		Description: m.Description,
		Attendance:  m.Attendance,
	}
}

// SubmitEventRequest is the request body for POST /events.
type SubmitEventRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Venue        string          `json:"venue"`
	ContactName  string          `json:"contact_name"`
	ContactEmail string          `json:"contact_email"`
	ContactPhone string          `json:"contact_phone"`
	StartAt      time.Time       `json:"start_at"`
	EndAt        *time.Time      `json:"end_at"`
	Recurrence   recurrence.Rule `json:"recurrence"`
	CoverImage   string          `json:"cover_image"`
	Images       []string        `json:"images"`
}

// Validate implements Validator. Field-level invariants are re-checked by the
// service; this catches the obviously malformed bodies early.
func (s SubmitEventRequest) Validate() []string {
	var errs []string
	if s.Title == "" {
		errs = append(errs, "title is required")
	}
	if s.StartAt.IsZero() {
		errs = append(errs, "start_at is required")
	}
	return errs
}

// SubmitEventSuccessResponse is the success response envelope for POST /events (201).
type SubmitEventSuccessResponse struct {
	Data    *domain.Event     `json:"data"`
	Message string            `json:"message"`
	Error   *helpers.APIError `json:"error"`
}

// Submit godoc
// @Summary Submit a new event listing
// @Description Submit a gathering for public listing. Anonymous submissions are accepted and always enter the moderation queue; submissions by an admin (or with moderation disabled) are approved immediately. Slug, id, status, and timestamps are server-assigned.
// @Tags events
// @Accept json
// @Produce json
// @Param event body SubmitEventRequest true "Event fields"
// @Success 201 {object} controllers.SubmitEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var actor *domain.Actor
	if a, ok := middleware.ActorFromContext(r.Context()); ok {
		actor = &a
	}
	event, message, err := c.Service.Submit(r.Context(), actor, domain.SubmitEventInput{
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		State:        req.State,
		Venue:        req.Venue,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Recurrence:   req.Recurrence,
		CoverImage:   req.CoverImage,
		Images:       req.Images,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccessMessage(w, http.StatusCreated, event, message)
}

// ListUpcomingResponse is the paginated body for GET /events.
type ListUpcomingResponse struct {
	Events     []*domain.UpcomingEvent `json:"events"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// ListUpcoming godoc
// @Summary List upcoming events
// @Description Lists approved events that still have a generated occurrence ahead, annotated with the next occurrence, featured listings first.
// @Tags events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListUpcoming(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	params := helpers.ParsePagination(r)
	total := len(events)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListUpcomingResponse{
		Events:     events[start:end],
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetBySlug godoc
// @Summary Get an event by slug
// @Description Returns the listing. Pending listings are visible only to admins and the owner.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug} [get]
func (c *EventController) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	var actor *domain.Actor
	if a, ok := middleware.ActorFromContext(r.Context()); ok {
		actor = &a
	}
	event, err := c.Service.GetBySlug(r.Context(), slug, actor)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// OccurrencesResponse is the body for GET /events/{eventID}/occurrences.
type OccurrencesResponse struct {
	EventID     string      `json:"event_id"`
	Occurrences []time.Time `json:"occurrences"`
}

// Occurrences godoc
// @Summary List generated occurrences for an event
// @Description Expands the event's recurrence specification into its concrete calendar dates.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the occurrence list"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/occurrences [get]
func (c *EventController) Occurrences(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	occurrences, err := c.Service.Occurrences(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, OccurrencesResponse{EventID: eventID, Occurrences: occurrences})
}

// EditEventRequest is the request body for PATCH /events/{eventID}.
// All fields optional; omitted fields are unchanged. status, featured, and
// featured_until are honored only for admins. past_event forwards a gallery
// payload to the materializer.
type EditEventRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	City          *string              `json:"city"`
	State         *string              `json:"state"`
	Venue         *string              `json:"venue"`
	ContactName   *string              `json:"contact_name"`
	ContactEmail  *string              `json:"contact_email"`
	ContactPhone  *string              `json:"contact_phone"`
	StartAt       *time.Time           `json:"start_at"`
	EndAt         *time.Time           `json:"end_at"`
	Recurrence    *recurrence.Rule     `json:"recurrence"`
	CoverImage    *string              `json:"cover_image"`
	Images        []string             `json:"images"`
	Featured      *bool                `json:"featured"`
	FeaturedUntil *time.Time           `json:"featured_until"`
	Status        *domain.EventStatus  `json:"status"`
	PastEvent     *MediaPayloadRequest `json:"past_event"`
}

// EditEventResponse is the body for PATCH /events/{eventID}.
type EditEventResponse struct {
	Event     *domain.Event     `json:"event"`
	PastEvent *domain.PastEvent `json:"past_event,omitempty"`
}

// Edit godoc
// @Summary Edit an event listing
// @Description Partially updates a listing. Owners and admins only. Non-admin edits send the listing back to the moderation queue. Completing requires media; a completed result (or an explicit past_event payload) also writes the gallery record, and a failed gallery write is reported as partial success in the message.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body EditEventRequest true "Partial fields"
// @Success 200 {object} helpers.APIResponse "data contains event and optional past_event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) Edit(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EditEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, pastEvent, message, err := c.Service.Edit(r.Context(), eventID, actor, domain.EditEventInput{
		Title:         req.Title,
		Description:   req.Description,
		City:          req.City,
		State:         req.State,
		Venue:         req.Venue,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Recurrence:    req.Recurrence,
		CoverImage:    req.CoverImage,
		Images:        req.Images,
		Featured:      req.Featured,
		FeaturedUntil: req.FeaturedUntil,
		Status:        req.Status,
		PastEvent:     req.PastEvent.toDomain(),
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccessMessage(w, http.StatusOK, EditEventResponse{Event: event, PastEvent: pastEvent}, message)
}

// ApplyAction godoc
// @Summary Apply a moderation action
// @Description Applies approve, complete, or delete. Admins only. Complete enforces the media gate and publishes the gallery record before the status flips.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param action path string true "Action" Enums(approve, complete, delete)
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/actions/{action} [post]
func (c *EventController) ApplyAction(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	action := r.PathValue("action")
	if eventID == "" || action == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or action")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, message, err := c.Service.ApplyAction(r.Context(), eventID, actor, domain.ModerationAction(action))
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccessMessage(w, http.StatusOK, event, message)
}

// Duplicate godoc
// @Summary Duplicate an event listing
// @Description Copies the descriptive fields to a new listing titled "<title> (copy)" with a fresh slug, cleared featured flags, and a recomputed moderation status. Owners and admins only. The gallery record is not copied.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} helpers.APIResponse "data contains the new event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/duplicate [post]
func (c *EventController) Duplicate(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.Duplicate(r.Context(), eventID, actor)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}
