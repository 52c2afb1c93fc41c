package inmet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/inmet-io/inmet-alert-gateway/pkg/config"
	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
)

const (
	// DefaultBaseURL is the public INMET forecast API host.
	DefaultBaseURL = "https://apiprevmet3.inmet.gov.br"

	activeAlertsPath = "/avisos/ativos"
	citySearchPath   = "/buscar/cidade/"

	// MaxCityCandidates caps how many location records a search returns.
	MaxCityCandidates = 5

	defaultTimeout = 20 * time.Second
)

// Client talks to the INMET API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an INMET API client from the given configuration,
// falling back to the public host and a 20s request timeout.
func NewClient(cfg *config.InmetConfig) *Client {
	baseURL := DefaultBaseURL
	if cfg != nil && cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := defaultTimeout
	if cfg != nil && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ActiveAlerts fetches the currently published alerts, both the
// current-conditions section and the forecast-window section.
func (c *Client) ActiveAlerts(ctx context.Context) (*models.FeedPayload, error) {
	body, err := c.get(ctx, c.baseURL+activeAlertsPath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var payload models.FeedPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode alerts payload: %w", err)
	}
	return &payload, nil
}

// SearchCity looks up municipality records by numeric geocode or free-text
// name. Free-text matches are ranked with accent-insensitive comparison and
// the result is capped at MaxCityCandidates.
func (c *Client) SearchCity(ctx context.Context, query string) ([]models.City, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty city search query")
	}

	body, err := c.get(ctx, c.baseURL+citySearchPath+url.PathEscape(query))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var cities []models.City
	if err := json.NewDecoder(body).Decode(&cities); err != nil {
		return nil, fmt.Errorf("failed to decode city search response: %w", err)
	}

	if !isNumeric(query) {
		cities = rankByName(cities, query)
	}
	if len(cities) > MaxCityCandidates {
		cities = cities[:MaxCityCandidates]
	}
	return cities, nil
}

// get issues one GET request and returns the body on a 200 response. Any
// other status is an error carrying a truncated body excerpt.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		logrus.Warnf("INMET API returned %d for %s", resp.StatusCode, rawURL)
		return nil, fmt.Errorf("http %d GET %s: %s", resp.StatusCode, rawURL, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}

// rankByName orders candidates so that labels matching the query under
// accent- and case-insensitive comparison come first, preserving the
// server's relative order within each group.
func rankByName(cities []models.City, query string) []models.City {
	normQuery := NormalizeCityName(query)
	ranked := make([]models.City, len(cities))
	copy(ranked, cities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return matchScore(ranked[i].Label, normQuery) > matchScore(ranked[j].Label, normQuery)
	})
	return ranked
}

func matchScore(label, normQuery string) int {
	normLabel := NormalizeCityName(label)
	switch {
	case normLabel == normQuery:
		return 2
	case strings.Contains(normLabel, normQuery):
		return 1
	default:
		return 0
	}
}

// NormalizeCityName lowercases a municipality name and strips diacritics and
// separators, so "São João-del Rei" and "sao joao del rei" compare equal.
func NormalizeCityName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = stripAccents(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
