package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/inmet-io/inmet-alert-gateway/pkg/inmet"
	"github.com/inmet-io/inmet-alert-gateway/pkg/services"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	manager  *services.EntityManager
	registry *services.AlertRegistry
	client   inmet.FeedClient
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(manager *services.EntityManager, registry *services.AlertRegistry, client inmet.FeedClient) *APIHandler {
	return &APIHandler{
		manager:  manager,
		registry: registry,
		client:   client,
	}
}

// GetAlerts returns the live alert entities for the configured municipality
func (h *APIHandler) GetAlerts(c echo.Context) error {
	entities := h.registry.List()
	out := make([]map[string]interface{}, 0, len(entities))
	for i := range entities {
		out = append(out, entities[i].Attributes())
	}
	return c.JSON(http.StatusOK, out)
}

// GetAlert returns one alert entity by id
func (h *APIHandler) GetAlert(c echo.Context) error {
	id := c.Param("id")
	entity, ok := h.registry.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Alert with ID %s not found", id)})
	}
	return c.JSON(http.StatusOK, entity.Attributes())
}

// GetTrackedIDs returns the ids tracked as of the last completed cycle
func (h *APIHandler) GetTrackedIDs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tracked_ids": h.manager.Feed().TrackedIDs(),
	})
}

// GetStatus returns the report of the most recent completed cycle
func (h *APIHandler) GetStatus(c echo.Context) error {
	status, ok := h.manager.LastStatus()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No completed update cycle yet"})
	}
	return c.JSON(http.StatusOK, status)
}

// RefreshFeed triggers one immediate update cycle
func (h *APIHandler) RefreshFeed(c echo.Context) error {
	if err := h.manager.Refresh(c.Request().Context()); err != nil {
		logrus.Errorf("Error refreshing feed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Failed to refresh feed: %v", err)})
	}
	status, ok := h.manager.LastStatus()
	if !ok {
		// The fetch failed and the cycle was skipped.
		return c.JSON(http.StatusOK, map[string]string{"message": "Refresh completed, no data this cycle"})
	}
	return c.JSON(http.StatusOK, status)
}

// SearchCities looks up municipality candidates by geocode or name
func (h *APIHandler) SearchCities(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query parameter q is required"})
	}
	cities, err := h.client.SearchCity(c.Request().Context(), query)
	if err != nil {
		logrus.Errorf("Error searching city %q: %v", query, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to search cities"})
	}
	return c.JSON(http.StatusOK, cities)
}

// HealthCheck reports service liveness
func (h *APIHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"last_update": h.manager.Feed().LastUpdate(),
	})
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	// Alert entity endpoints
	e.GET("/api/alerts", h.GetAlerts)
	e.GET("/api/alerts/:id", h.GetAlert)

	// Feed endpoints
	e.GET("/api/tracked", h.GetTrackedIDs)
	e.GET("/api/status", h.GetStatus)
	e.POST("/api/refresh", h.RefreshFeed)

	// Configuration helpers
	e.GET("/api/cities/search", h.SearchCities)

	e.GET("/api/health", h.HealthCheck)
}
