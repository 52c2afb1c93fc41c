package models

// Snapshot is the immutable filtered view of one poll cycle: the alerts
// relevant to a single municipality, tagged with their feed section. It is
// owned by the feed manager and superseded wholesale by the next cycle.
type Snapshot struct {
	alerts []Alert
	byID   map[string]int
}

// NewSnapshot builds a snapshot over the given alerts. Later duplicates of
// an id shadow earlier ones in lookups, matching the feed's behavior of
// repeating an id at most once per section.
func NewSnapshot(alerts []Alert) *Snapshot {
	byID := make(map[string]int, len(alerts))
	for i, alert := range alerts {
		byID[alert.ID] = i
	}
	return &Snapshot{alerts: alerts, byID: byID}
}

// AlertIDs returns the set of alert ids contained in the snapshot.
func (s *Snapshot) AlertIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.byID))
	for id := range s.byID {
		ids[id] = struct{}{}
	}
	return ids
}

// Get returns the alert with the given id, if present.
func (s *Snapshot) Get(id string) (Alert, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Alert{}, false
	}
	return s.alerts[i], true
}

// Alerts returns the snapshot's alerts in feed order.
func (s *Snapshot) Alerts() []Alert {
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Count returns the number of alerts included in the snapshot.
func (s *Snapshot) Count() int {
	return len(s.alerts)
}
