package models

import (
	"fmt"
	"strings"
	"time"
)

// FeedTimeLayout is the timestamp format used by the INMET alerts feed.
const FeedTimeLayout = "2006-01-02 15:04"

// FeedTime wraps time.Time with the feed's "YYYY-MM-DD HH:MM" JSON encoding.
type FeedTime struct {
	time.Time
}

// UnmarshalJSON parses a feed timestamp. Empty and null values decode to the
// zero time.
func (t *FeedTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(FeedTimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid feed timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON encodes the timestamp back in the feed format.
func (t FeedTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(FeedTimeLayout) + `"`), nil
}

// Alert is one hazard notice as published by the INMET feed. Alerts are
// immutable per poll; each cycle decodes a fresh collection.
type Alert struct {
	ID           string   `json:"id"`
	Description  string   `json:"descricao"`
	Severity     string   `json:"severidade"`
	SeverityID   int      `json:"id_severidade"`
	Risks        string   `json:"riscos"`
	Instructions string   `json:"instrucoes"`
	Color        string   `json:"aviso_cor"`
	Modified     bool     `json:"alterado"`
	Finished     bool     `json:"encerrado"`
	Start        FeedTime `json:"inicio"`
	End          FeedTime `json:"fim"`
	Sequence     int      `json:"id_sequencia"`
	Geocodes     string   `json:"geocodes"`

	// Future is set while filtering: false for entries from the feed's
	// current-conditions section, true for forecast-window entries.
	Future bool `json:"future"`
}

// AppliesTo reports whether the alert's comma-separated geocode list
// contains the given municipality code.
func (a Alert) AppliesTo(geocode string) bool {
	for _, code := range strings.Split(a.Geocodes, ",") {
		if strings.TrimSpace(code) == geocode {
			return true
		}
	}
	return false
}

// FeedPayload is the raw body of the active-alerts endpoint: the current
// alerts under "hoje" and the forecast-window alerts under "futuro".
type FeedPayload struct {
	Today  []Alert `json:"hoje"`
	Future []Alert `json:"futuro"`
}
