package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	submitErr         error
	submitResult      *domain.Event
	submitMessage     string
	lastSubmitActor   *domain.Actor
	lastSubmitInput   domain.SubmitEventInput
	editErr           error
	editResult        *domain.Event
	editPastEvent     *domain.PastEvent
	editMessage       string
	lastEditEventID   string
	lastEditActor     domain.Actor
	lastEditInput     domain.EditEventInput
	applyActionErr    error
	applyActionResult *domain.Event
	applyActionMsg    string
	lastActionEventID string
	lastAction        domain.ModerationAction
	duplicateErr      error
	duplicateResult   *domain.Event
	getBySlugErr      error
	getBySlugResult   *domain.Event
	lastGetSlug       string
	lastGetActor      *domain.Actor
	listUpcomingErr   error
	listUpcomingList  []*domain.UpcomingEvent
	occurrencesErr    error
	occurrencesResult []time.Time
}

func (f *fakeEventService) Submit(ctx context.Context, actor *domain.Actor, in domain.SubmitEventInput) (*domain.Event, string, error) {
	f.lastSubmitActor = actor
	f.lastSubmitInput = in
	if f.submitErr != nil {
		return nil, "", f.submitErr
	}
	return f.submitResult, f.submitMessage, nil
}

func (f *fakeEventService) Edit(ctx context.Context, eventID string, actor domain.Actor, in domain.EditEventInput) (*domain.Event, *domain.PastEvent, string, error) {
	f.lastEditEventID = eventID
	f.lastEditActor = actor
	f.lastEditInput = in
	if f.editErr != nil {
		return nil, nil, "", f.editErr
	}
	return f.editResult, f.editPastEvent, f.editMessage, nil
}

func (f *fakeEventService) ApplyAction(ctx context.Context, eventID string, actor domain.Actor, action domain.ModerationAction) (*domain.Event, string, error) {
	f.lastActionEventID = eventID
	f.lastAction = action
	if f.applyActionErr != nil {
		return nil, "", f.applyActionErr
	}
	return f.applyActionResult, f.applyActionMsg, nil
}

func (f *fakeEventService) Duplicate(ctx context.Context, eventID string, actor domain.Actor) (*domain.Event, error) {
	if f.duplicateErr != nil {
		return nil, f.duplicateErr
	}
	return f.duplicateResult, nil
}

func (f *fakeEventService) GetBySlug(ctx context.Context, slug string, actor *domain.Actor) (*domain.Event, error) {
	f.lastGetSlug = slug
	f.lastGetActor = actor
	if f.getBySlugErr != nil {
		return nil, f.getBySlugErr
	}
	return f.getBySlugResult, nil
}

func (f *fakeEventService) ListUpcoming(ctx context.Context, now time.Time) ([]*domain.UpcomingEvent, error) {
	if f.listUpcomingErr != nil {
		return nil, f.listUpcomingErr
	}
	return f.listUpcomingList, nil
}

func (f *fakeEventService) Occurrences(ctx context.Context, eventID string) ([]time.Time, error) {
	if f.occurrencesErr != nil {
		return nil, f.occurrencesErr
	}
	return f.occurrencesResult, nil
}

type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   *helpers.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestEventController_Submit(t *testing.T) {
	validBody := `{"title":"Spring Meet","city":"Austin","contact_email":"pat@example.com",` +
		`"start_at":"2025-06-01T10:00:00Z","recurrence":{"type":"single"}}`

	tests := []struct {
		name       string
		body       string
		svc        *fakeEventService
		withActor  bool
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			body: validBody,
			svc: &fakeEventService{
				submitResult:  &domain.Event{ID: "ev-1", Slug: "spring-meet", Status: domain.StatusPending},
				submitMessage: "event submitted and awaiting review",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "authenticated submitter forwarded",
			body: validBody,
			svc: &fakeEventService{
				submitResult: &domain.Event{ID: "ev-1", Status: domain.StatusApproved},
			},
			withActor:  true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"title":"x","start_at":"2025-06-01T10:00:00Z","bogus":true}`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "missing title",
			body:       `{"start_at":"2025-06-01T10:00:00Z"}`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service validation error",
			body:       validBody,
			svc:        &fakeEventService{submitErr: domain.NewValidationError("contact_email is required")},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service failure",
			body:       validBody,
			svc:        &fakeEventService{submitErr: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tt.body))
			if tt.withActor {
				req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "user-1", Role: domain.RoleUser}))
			}
			rec := httptest.NewRecorder()
			c.Submit(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}
			require.Nil(t, env.Error)
			if tt.withActor {
				require.NotNil(t, tt.svc.lastSubmitActor)
				assert.Equal(t, "user-1", tt.svc.lastSubmitActor.ID)
			} else {
				assert.Nil(t, tt.svc.lastSubmitActor)
			}
		})
	}
}

func TestEventController_ListUpcoming(t *testing.T) {
	upcoming := func(id string) *domain.UpcomingEvent {
		return &domain.UpcomingEvent{
			Event:  &domain.Event{ID: id, Status: domain.StatusApproved},
			NextAt: time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC),
		}
	}

	t.Run("paginated", func(t *testing.T) {
		svc := &fakeEventService{listUpcomingList: []*domain.UpcomingEvent{
			upcoming("ev-1"), upcoming("ev-2"), upcoming("ev-3"),
		}}
		c := NewEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "/events?page=2&page_size=2", nil)
		rec := httptest.NewRecorder()
		c.ListUpcoming(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var body ListUpcomingResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		require.Len(t, body.Events, 1)
		assert.Equal(t, "ev-3", body.Events[0].Event.ID)
		assert.Equal(t, 3, body.Pagination.Total)
		assert.Equal(t, 2, body.Pagination.Page)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := &fakeEventService{listUpcomingErr: errors.New("db down")}
		c := NewEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		rec := httptest.NewRecorder()
		c.ListUpcoming(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestEventController_GetBySlug(t *testing.T) {
	tests := []struct {
		name       string
		slug       string
		svc        *fakeEventService
		wantStatus int
	}{
		{
			name:       "success",
			slug:       "spring-meet",
			svc:        &fakeEventService{getBySlugResult: &domain.Event{ID: "ev-1", Slug: "spring-meet"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			slug:       "missing",
			svc:        &fakeEventService{getBySlugErr: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodGet, "http://test/events/"+tt.slug, nil)
			req.SetPathValue("slug", tt.slug)
			rec := httptest.NewRecorder()
			c.GetBySlug(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.slug, tt.svc.lastGetSlug)
		})
	}
}

func TestEventController_Occurrences(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEventService{occurrencesResult: []time.Time{
			time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC),
			time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
		}}
		c := NewEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "http://test/events/ev-1/occurrences", nil)
		req.SetPathValue("eventID", "ev-1")
		rec := httptest.NewRecorder()
		c.Occurrences(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var body OccurrencesResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, "ev-1", body.EventID)
		assert.Len(t, body.Occurrences, 2)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEventService{occurrencesErr: domain.ErrNotFound}
		c := NewEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "http://test/events/missing/occurrences", nil)
		req.SetPathValue("eventID", "missing")
		rec := httptest.NewRecorder()
		c.Occurrences(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventController_Edit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeEventService
		withActor  bool
		wantStatus int
	}{
		{
			name: "success",
			body: `{"description":"now with live music"}`,
			svc: &fakeEventService{
				editResult:  &domain.Event{ID: "ev-1", Status: domain.StatusPending},
				editMessage: "event updated and awaiting review",
			},
			withActor:  true,
			wantStatus: http.StatusOK,
		},
		{
			name: "completion returns past event",
			body: `{"status":"completed","past_event":{"images":["photos/1.jpg"]}}`,
			svc: &fakeEventService{
				editResult:    &domain.Event{ID: "ev-1", Status: domain.StatusCompleted},
				editPastEvent: &domain.PastEvent{ID: "pe-1", Slug: "spring-meet"},
				editMessage:   "event updated",
			},
			withActor:  true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unauthenticated",
			body:       `{}`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "forbidden",
			body:       `{"title":"hijacked"}`,
			svc:        &fakeEventService{editErr: domain.ErrForbidden},
			withActor:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "validation error",
			body:       `{"status":"completed"}`,
			svc:        &fakeEventService{editErr: domain.NewValidationError("event has no images or videos; add media before completing")},
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			body:       `{}`,
			svc:        &fakeEventService{editErr: domain.ErrNotFound},
			withActor:  true,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodPatch, "http://test/events/ev-1", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "ev-1")
			if tt.withActor {
				req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "user-1", Role: domain.RoleUser}))
			}
			rec := httptest.NewRecorder()
			c.Edit(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ev-1", tt.svc.lastEditEventID)
				assert.Equal(t, "user-1", tt.svc.lastEditActor.ID)
				env := decodeEnvelope(t, rec)
				var body EditEventResponse
				require.NoError(t, json.Unmarshal(env.Data, &body))
				require.NotNil(t, body.Event)
				assert.Equal(t, tt.svc.editMessage, env.Message)
			}
		})
	}
}

func TestEventController_Edit_ForwardsMediaPayload(t *testing.T) {
	svc := &fakeEventService{editResult: &domain.Event{ID: "ev-1"}}
	c := NewEventController(testLogger, svc)
	body := `{"past_event":{"images":["photos/1.jpg"],"videos":["https://example.com/v1"],"attendance":50}}`
	req := httptest.NewRequest(http.MethodPatch, "http://test/events/ev-1", bytes.NewBufferString(body))
	req.SetPathValue("eventID", "ev-1")
	req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}))
	rec := httptest.NewRecorder()
	c.Edit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastEditInput.PastEvent)
	assert.Equal(t, []string{"photos/1.jpg"}, svc.lastEditInput.PastEvent.Images)
	require.NotNil(t, svc.lastEditInput.PastEvent.Attendance)
	assert.Equal(t, 50, *svc.lastEditInput.PastEvent.Attendance)
}

func TestEventController_ApplyAction(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		svc        *fakeEventService
		withActor  bool
		wantStatus int
	}{
		{
			name:   "approve",
			action: "approve",
			svc: &fakeEventService{
				applyActionResult: &domain.Event{ID: "ev-1", Status: domain.StatusApproved},
				applyActionMsg:    "event approved",
			},
			withActor:  true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unauthenticated",
			action:     "approve",
			svc:        &fakeEventService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "forbidden",
			action:     "delete",
			svc:        &fakeEventService{applyActionErr: domain.ErrForbidden},
			withActor:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown action",
			action:     "archive",
			svc:        &fakeEventService{applyActionErr: domain.NewValidationError(`unknown action "archive"`)},
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodPost, "http://test/events/ev-1/actions/"+tt.action, nil)
			req.SetPathValue("eventID", "ev-1")
			req.SetPathValue("action", tt.action)
			if tt.withActor {
				req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}))
			}
			rec := httptest.NewRecorder()
			c.ApplyAction(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, domain.ModerationAction(tt.action), tt.svc.lastAction)
			}
		})
	}
}

func TestEventController_Duplicate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEventService{duplicateResult: &domain.Event{ID: "ev-2", Title: "Spring Meet (copy)"}}
		c := NewEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodPost, "http://test/events/ev-1/duplicate", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "user-1", Role: domain.RoleUser}))
		rec := httptest.NewRecorder()
		c.Duplicate(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})
		req := httptest.NewRequest(http.MethodPost, "http://test/events/ev-1/duplicate", nil)
		req.SetPathValue("eventID", "ev-1")
		rec := httptest.NewRecorder()
		c.Duplicate(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
