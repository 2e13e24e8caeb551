package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"
)

// PastEventController serves the gallery endpoints.
type PastEventController struct {
	Logger  *slog.Logger
	Service domain.PastEventService
}

func NewPastEventController(logger *slog.Logger, svc domain.PastEventService) *PastEventController {
	return &PastEventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListPastEventsResponse is the paginated body for GET /past-events.
type ListPastEventsResponse struct {
	PastEvents []*domain.PastEvent    `json:"past_events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// List godoc
// @Summary List past events
// @Description Lists gallery records, most recent first. Also lazily materializes records for events completed before the gallery flow existed; the sweep is idempotent.
// @Tags past-events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains past_events and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /past-events [get]
func (c *PastEventController) List(w http.ResponseWriter, r *http.Request) {
	records, err := c.Service.List(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	params := helpers.ParsePagination(r)
	total := len(records)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListPastEventsResponse{
		PastEvents: records[start:end],
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetBySlug godoc
// @Summary Get a past event by slug
// @Tags past-events
// @Produce json
// @Param slug path string true "Past event slug"
// @Success 200 {object} helpers.APIResponse "data contains the past event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /past-events/{slug} [get]
func (c *PastEventController) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	record, err := c.Service.GetBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, record)
}

// CreateHistoricalRequest is the request body for POST /past-events.
type CreateHistoricalRequest struct {
	Title       string    `json:"title"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Venue       string    `json:"venue"`
	HappenedAt  time.Time `json:"happened_at"`
	Images      []string  `json:"images"`
	Videos      []string  `json:"videos"`
	Description string    `json:"description"`
	Attendance  int       `json:"attendance"`
}

// Validate implements Validator.
func (c CreateHistoricalRequest) Validate() []string {
	var errs []string
	if c.Title == "" {
		errs = append(errs, "title is required")
	}
	if c.HappenedAt.IsZero() {
		errs = append(errs, "happened_at is required")
	}
	return errs
}

// CreateHistorical godoc
// @Summary Create a historical gallery record
// @Description Records a gathering that never had a live listing. Admins only; at least one image or video is required.
// @Tags past-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param past_event body CreateHistoricalRequest true "Past event fields"
// @Success 201 {object} helpers.APIResponse "data contains the created past event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /past-events [post]
func (c *PastEventController) CreateHistorical(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateHistoricalRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	record, err := c.Service.CreateHistorical(r.Context(), actor, domain.HistoricalEventInput{
		Title:       req.Title,
		City:        req.City,
		State:       req.State,
		Venue:       req.Venue,
		HappenedAt:  req.HappenedAt,
		Images:      req.Images,
		Videos:      req.Videos,
		Description: req.Description,
		Attendance:  req.Attendance,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, record)
}
