package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inmet-io/inmet-alert-gateway/pkg/inmet"
	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
	"github.com/inmet-io/inmet-alert-gateway/pkg/services"
)

// stubFeedClient is a canned-response implementation of inmet.FeedClient
type stubFeedClient struct {
	payload  *models.FeedPayload
	fetchErr error
	cities   []models.City
	cityErr  error
}

var _ inmet.FeedClient = (*stubFeedClient)(nil)

func (s *stubFeedClient) ActiveAlerts(context.Context) (*models.FeedPayload, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.payload, nil
}

func (s *stubFeedClient) SearchCity(context.Context, string) ([]models.City, error) {
	if s.cityErr != nil {
		return nil, s.cityErr
	}
	return s.cities, nil
}

// setupTestRouter creates a test router backed by the provided client
func setupTestRouter(client inmet.FeedClient) (*echo.Echo, *services.EntityManager) {
	e := echo.New()
	registry := services.NewAlertRegistry("3509502", -22.9056, -47.0608, -23.5505, -46.6333)
	manager := services.NewEntityManager(client, registry, "3509502", time.Hour)
	handler := NewAPIHandler(manager, registry, client)
	handler.SetupRoutes(e)
	return e, manager
}

func samplePayload() *models.FeedPayload {
	return &models.FeedPayload{
		Today: []models.Alert{{
			ID:          "A1",
			Description: "Chuvas Intensas",
			Severity:    "Perigo",
			SeverityID:  2,
			Geocodes:    "3509502,3550308",
		}},
	}
}

func TestGetAlertsEmpty(t *testing.T) {
	router, _ := setupTestRouter(&stubFeedClient{payload: &models.FeedPayload{}})

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRefreshThenGetAlert(t *testing.T) {
	router, _ := setupTestRouter(&stubFeedClient{payload: samplePayload()})

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.StatusReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Total)
	assert.Equal(t, 1, status.Created)

	tests := []struct {
		name       string
		alertID    string
		wantStatus int
	}{
		{name: "existing alert", alertID: "A1", wantStatus: http.StatusOK},
		{name: "unknown alert", alertID: "missing", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/alerts/"+tt.alertID, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var attrs map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attrs))
				assert.Equal(t, "A1", attrs["alert_id"])
				assert.Equal(t, "Chuvas Intensas", attrs["description"])
				assert.Equal(t, false, attrs["future"])
			}
		})
	}
}

func TestGetTrackedIDs(t *testing.T) {
	router, manager := setupTestRouter(&stubFeedClient{payload: samplePayload()})
	require.NoError(t, manager.Refresh(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/tracked", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TrackedIDs []string `json:"tracked_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"A1"}, body.TrackedIDs)
}

func TestGetStatusBeforeFirstCycle(t *testing.T) {
	router, _ := setupTestRouter(&stubFeedClient{payload: &models.FeedPayload{}})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatusAfterCycle(t *testing.T) {
	router, manager := setupTestRouter(&stubFeedClient{payload: samplePayload()})
	require.NoError(t, manager.Refresh(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status models.StatusReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Total)
	assert.NotEmpty(t, status.CycleID)
}

func TestRefreshWithFetchFailure(t *testing.T) {
	router, _ := setupTestRouter(&stubFeedClient{fetchErr: errors.New("http 504")})

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// A failed fetch skips the cycle but is not an API error.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data this cycle")
}

func TestSearchCities(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		client     *stubFeedClient
		wantStatus int
	}{
		{
			name:  "valid query",
			query: "?q=campinas",
			client: &stubFeedClient{cities: []models.City{
				{Geocode: "3509502", Label: "Campinas", Latitude: -22.9056, Longitude: -47.0608},
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing query",
			query:      "",
			client:     &stubFeedClient{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upstream failure",
			query:      "?q=campinas",
			client:     &stubFeedClient{cityErr: errors.New("http 502")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter(tt.client)

			req := httptest.NewRequest(http.MethodGet, "/api/cities/search"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var cities []models.City
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cities))
				require.Len(t, cities, 1)
				assert.Equal(t, "Campinas", cities[0].Label)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestRouter(&stubFeedClient{payload: &models.FeedPayload{}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
