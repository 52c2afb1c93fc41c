package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inmet-io/inmet-alert-gateway/pkg/geo"
	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
)

const (
	alertURLBase = "https://alertas2.inmet.gov.br/"
	defaultIcon  = "mdi:alert"
)

// icons maps alert descriptions to frontend icons.
var icons = map[string]string{
	"Chuvas Intensas":    "mdi:weather-lightning",
	"Tempestade":         "mdi:weather-lightning-rainy",
	"Acumulado de Chuva": "mdi:home-flood",
	"Onda de Calor":      "mdi:heat-wave",
}

// AlertEntity is the geolocated external representation of one live alert.
type AlertEntity struct {
	ID           string
	UniqueID     string
	Name         string
	Latitude     float64
	Longitude    float64
	DistanceKm   float64
	Icon         string
	URL          string
	Description  string
	Severity     string
	SeverityID   int
	Risks        string
	Instructions string
	Color        string
	Modified     bool
	Finished     bool
	Future       bool
	Start        time.Time
	End          time.Time
	Sequence     int
}

// Attributes renders the entity under the sparse-attribute policy: a field
// is omitted iff its value is empty or zero and not a boolean.
func (e *AlertEntity) Attributes() map[string]interface{} {
	attrs := map[string]interface{}{
		// Booleans are always included, even when false.
		"updated":  e.Modified,
		"finished": e.Finished,
		"future":   e.Future,
	}
	putString := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	putString("alert_id", e.ID)
	putString("description", e.Description)
	putString("severity", e.Severity)
	putString("risks", e.Risks)
	putString("instructions", e.Instructions)
	putString("color", e.Color)
	putString("icon", e.Icon)
	putString("url", e.URL)
	putString("name", e.Name)
	if e.SeverityID != 0 {
		attrs["severity_id"] = e.SeverityID
	}
	if e.Sequence != 0 {
		attrs["sequence"] = e.Sequence
	}
	if !e.Start.IsZero() {
		attrs["start_date"] = e.Start.Format(models.FeedTimeLayout)
	}
	if !e.End.IsZero() {
		attrs["end_date"] = e.End.Format(models.FeedTimeLayout)
	}
	if e.Latitude != 0 || e.Longitude != 0 {
		attrs["latitude"] = e.Latitude
		attrs["longitude"] = e.Longitude
	}
	if e.DistanceKm != 0 {
		attrs["distance_km"] = e.DistanceKm
	}
	return attrs
}

// AlertRegistry holds the alert entities for one configured municipality.
// Entities are created, refreshed and removed by the feed callbacks.
type AlertRegistry struct {
	integrationID string
	cityLat       float64
	cityLon       float64
	homeLat       float64
	homeLon       float64

	mu       sync.RWMutex
	entities map[string]*AlertEntity
}

// NewAlertRegistry creates a registry for the municipality identified by
// geocode, located at cityLat/cityLon. homeLat/homeLon is the reference
// point for the distance attribute.
func NewAlertRegistry(geocode string, cityLat, cityLon, homeLat, homeLon float64) *AlertRegistry {
	return &AlertRegistry{
		integrationID: "inmet_" + geocode,
		cityLat:       cityLat,
		cityLon:       cityLon,
		homeLat:       homeLat,
		homeLon:       homeLon,
		entities:      make(map[string]*AlertEntity),
	}
}

// Upsert creates or refreshes the entity for the given alert.
func (r *AlertRegistry) Upsert(alert models.Alert) {
	entity := r.buildEntity(alert)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[alert.ID]; !exists {
		logrus.Debugf("New alert entity added: %s", entity.UniqueID)
	}
	r.entities[alert.ID] = entity
}

// Remove drops the entity for the given alert id, if present.
func (r *AlertRegistry) Remove(alertID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[alertID]; exists {
		delete(r.entities, alertID)
		logrus.Debugf("Alert entity removed: %s", alertID)
	}
}

// Get returns a copy of the entity for the given alert id.
func (r *AlertRegistry) Get(alertID string) (AlertEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.entities[alertID]
	if !ok {
		return AlertEntity{}, false
	}
	return *entity, true
}

// List returns copies of all entities, sorted by alert id.
func (r *AlertRegistry) List() []AlertEntity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AlertEntity, 0, len(r.entities))
	for _, entity := range r.entities {
		out = append(out, *entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live entities.
func (r *AlertRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

func (r *AlertRegistry) buildEntity(alert models.Alert) *AlertEntity {
	return &AlertEntity{
		ID:           alert.ID,
		UniqueID:     fmt.Sprintf("%s_%s", r.integrationID, alert.ID),
		Name:         fmt.Sprintf("%s %s %s", alert.ID, alert.Description, alert.Severity),
		Latitude:     r.cityLat,
		Longitude:    r.cityLon,
		DistanceKm:   geo.Distance(r.homeLat, r.homeLon, r.cityLat, r.cityLon),
		Icon:         iconFor(alert.Description),
		URL:          alertURLBase + alert.ID,
		Description:  alert.Description,
		Severity:     alert.Severity,
		SeverityID:   alert.SeverityID,
		Risks:        alert.Risks,
		Instructions: alert.Instructions,
		Color:        alert.Color,
		Modified:     alert.Modified,
		Finished:     alert.Finished,
		Future:       alert.Future,
		Start:        alert.Start.Time,
		End:          alert.End.Time,
		Sequence:     alert.Sequence,
	}
}

func iconFor(description string) string {
	if icon, ok := icons[description]; ok {
		return icon
	}
	return defaultIcon
}
