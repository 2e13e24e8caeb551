package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePastEventService implements domain.PastEventService for handler tests.
type fakePastEventService struct {
	materializeErr      error
	materializeResult   *domain.PastEvent
	listErr             error
	listResult          []*domain.PastEvent
	getBySlugErr        error
	getBySlugResult     *domain.PastEvent
	createHistoricalErr error
	createResult        *domain.PastEvent
	lastCreateActor     domain.Actor
	lastCreateInput     domain.HistoricalEventInput
}

func (f *fakePastEventService) Materialize(ctx context.Context, event *domain.Event, payload *domain.MediaPayload) (*domain.PastEvent, error) {
	if f.materializeErr != nil {
		return nil, f.materializeErr
	}
	return f.materializeResult, nil
}

func (f *fakePastEventService) List(ctx context.Context, now time.Time) ([]*domain.PastEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakePastEventService) GetBySlug(ctx context.Context, slug string) (*domain.PastEvent, error) {
	if f.getBySlugErr != nil {
		return nil, f.getBySlugErr
	}
	return f.getBySlugResult, nil
}

func (f *fakePastEventService) CreateHistorical(ctx context.Context, actor domain.Actor, in domain.HistoricalEventInput) (*domain.PastEvent, error) {
	f.lastCreateActor = actor
	f.lastCreateInput = in
	if f.createHistoricalErr != nil {
		return nil, f.createHistoricalErr
	}
	return f.createResult, nil
}

func TestPastEventController_List(t *testing.T) {
	t.Run("paginated", func(t *testing.T) {
		svc := &fakePastEventService{listResult: []*domain.PastEvent{
			{ID: "pe-1", Slug: "spring-meet"},
			{ID: "pe-2", Slug: "summer-classic"},
			{ID: "pe-3", Slug: "fall-cruise"},
		}}
		c := NewPastEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "/past-events?page_size=2", nil)
		rec := httptest.NewRecorder()
		c.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var body ListPastEventsResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		require.Len(t, body.PastEvents, 2)
		assert.Equal(t, 3, body.Pagination.Total)
		assert.Equal(t, 2, body.Pagination.TotalPages)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := &fakePastEventService{listErr: errors.New("db down")}
		c := NewPastEventController(testLogger, svc)
		req := httptest.NewRequest(http.MethodGet, "/past-events", nil)
		rec := httptest.NewRecorder()
		c.List(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPastEventController_GetBySlug(t *testing.T) {
	tests := []struct {
		name       string
		slug       string
		svc        *fakePastEventService
		wantStatus int
	}{
		{
			name:       "success",
			slug:       "spring-meet",
			svc:        &fakePastEventService{getBySlugResult: &domain.PastEvent{ID: "pe-1", Slug: "spring-meet"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			slug:       "missing",
			svc:        &fakePastEventService{getBySlugErr: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPastEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodGet, "http://test/past-events/"+tt.slug, nil)
			req.SetPathValue("slug", tt.slug)
			rec := httptest.NewRecorder()
			c.GetBySlug(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPastEventController_CreateHistorical(t *testing.T) {
	validBody := `{"title":"Summer Classic 2019","happened_at":"2019-08-10T00:00:00Z",` +
		`"images":["photos/2019.jpg"],"attendance":300}`

	tests := []struct {
		name       string
		body       string
		svc        *fakePastEventService
		withActor  bool
		wantStatus int
	}{
		{
			name: "success",
			body: validBody,
			svc: &fakePastEventService{
				createResult: &domain.PastEvent{ID: "pe-1", Slug: "summer-classic-2019"},
			},
			withActor:  true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unauthenticated",
			body:       validBody,
			svc:        &fakePastEventService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "forbidden",
			body:       validBody,
			svc:        &fakePastEventService{createHistoricalErr: domain.ErrForbidden},
			withActor:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing title",
			body:       `{"happened_at":"2019-08-10T00:00:00Z"}`,
			svc:        &fakePastEventService{},
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no media",
			body:       `{"title":"Summer Classic","happened_at":"2019-08-10T00:00:00Z"}`,
			svc:        &fakePastEventService{createHistoricalErr: domain.NewValidationError("a gallery record needs at least one image or video")},
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPastEventController(testLogger, tt.svc)
			req := httptest.NewRequest(http.MethodPost, "/past-events", bytes.NewBufferString(tt.body))
			if tt.withActor {
				req = req.WithContext(middleware.SetActor(req.Context(), domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}))
			}
			rec := httptest.NewRecorder()
			c.CreateHistorical(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "admin-1", tt.svc.lastCreateActor.ID)
				assert.Equal(t, 300, tt.svc.lastCreateInput.Attendance)
			}
		})
	}
}
