package models

import "time"

// StatusReport summarizes one completed reconciliation cycle.
type StatusReport struct {
	CycleID   string    `json:"cycle_id"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Removed   int       `json:"removed"`
}

// City is one candidate record returned by the location search endpoints.
type City struct {
	Geocode   string  `json:"geocode"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
