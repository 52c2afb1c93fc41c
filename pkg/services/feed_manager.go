package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inmet-io/inmet-alert-gateway/pkg/inmet"
	"github.com/inmet-io/inmet-alert-gateway/pkg/metrics"
	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
)

// Callbacks are the lifecycle hooks invoked by the feed manager, injected at
// construction time. Each hook is invoked one at a time, removals first,
// then updates, then creations. OnStatus is optional and receives the report
// of every completed cycle.
type Callbacks struct {
	OnCreate func(ctx context.Context, alertID string) error
	OnUpdate func(ctx context.Context, alertID string) error
	OnRemove func(ctx context.Context, alertID string) error
	OnStatus func(report models.StatusReport)
}

// FeedManager owns the tracked-id set for one municipality and reconciles it
// against the feed on every Update call.
//
// Between cycles the tracked-id set always equals the id set of the last
// completed snapshot. During a cycle it is mutated one id at a time as each
// callback succeeds.
type FeedManager struct {
	client    inmet.FeedClient
	geocode   string
	callbacks Callbacks

	// cycleMu serializes Update: at most one fetch+reconcile cycle runs at
	// a time. tracked is only touched under cycleMu.
	cycleMu sync.Mutex
	tracked map[string]struct{}

	// snapMu guards the snapshot pointer so Get stays non-blocking while a
	// cycle is in flight.
	snapMu     sync.RWMutex
	snapshot   *models.Snapshot
	lastUpdate time.Time
}

// NewFeedManager creates a feed manager for the given municipality geocode.
func NewFeedManager(client inmet.FeedClient, geocode string, callbacks Callbacks) *FeedManager {
	logrus.Infof("Initializing feed manager for geocode %s", geocode)
	return &FeedManager{
		client:    client,
		geocode:   geocode,
		callbacks: callbacks,
		tracked:   make(map[string]struct{}),
	}
}

// Update runs one fetch+filter+diff+dispatch cycle.
//
// A fetch or decode failure skips the cycle entirely: no state change, no
// callbacks, no status report, nil return. The next scheduled cycle retries
// naturally.
//
// A callback failure aborts the remainder of the cycle and is returned to
// the caller. Ids already processed stay committed and the new snapshot
// remains visible; the next cycle re-diffs against the feed and retries the
// failed transitions.
func (m *FeedManager) Update(ctx context.Context) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	start := time.Now()

	payload, err := m.client.ActiveAlerts(ctx)
	if err != nil {
		metrics.FetchFailures.Inc()
		logrus.Warnf("Feed update for geocode %s skipped: %v", m.geocode, err)
		return nil
	}

	snapshot := buildSnapshot(payload, m.geocode)
	newIDs := snapshot.AlertIDs()
	toRemove, toUpdate, toCreate := diffIDs(m.tracked, newIDs)

	// Publish the snapshot before dispatching so that callbacks can read
	// the new alert data through Get. A tracked id may be absent from the
	// snapshot until its removal callback has run.
	m.snapMu.Lock()
	m.snapshot = snapshot
	m.lastUpdate = time.Now()
	m.snapMu.Unlock()

	for _, id := range toRemove {
		if err := invoke(ctx, m.callbacks.OnRemove, id); err != nil {
			return fmt.Errorf("remove callback for alert %s: %w", id, err)
		}
		delete(m.tracked, id)
		logrus.Debugf("Alert no longer current: %s", id)
	}
	for _, id := range toUpdate {
		if err := invoke(ctx, m.callbacks.OnUpdate, id); err != nil {
			return fmt.Errorf("update callback for alert %s: %w", id, err)
		}
		logrus.Debugf("Existing alert refreshed: %s", id)
	}
	for _, id := range toCreate {
		if err := invoke(ctx, m.callbacks.OnCreate, id); err != nil {
			return fmt.Errorf("create callback for alert %s: %w", id, err)
		}
		m.tracked[id] = struct{}{}
		logrus.Debugf("New alert tracked: %s", id)
	}

	metrics.ActiveAlerts.Set(float64(len(newIDs)))
	metrics.AlertTransitions.WithLabelValues(metrics.ActionCreated).Add(float64(len(toCreate)))
	metrics.AlertTransitions.WithLabelValues(metrics.ActionUpdated).Add(float64(len(toUpdate)))
	metrics.AlertTransitions.WithLabelValues(metrics.ActionRemoved).Add(float64(len(toRemove)))
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	report := models.StatusReport{
		CycleID:   uuid.New().String(),
		Timestamp: time.Now(),
		Total:     len(newIDs),
		Created:   len(toCreate),
		Updated:   len(toUpdate),
		Removed:   len(toRemove),
	}
	logrus.Infof("Feed update for geocode %s: %d total, %d created, %d updated, %d removed",
		m.geocode, report.Total, report.Created, report.Updated, report.Removed)

	if m.callbacks.OnStatus != nil {
		m.callbacks.OnStatus(report)
	}
	return nil
}

// Get looks up an alert by id in the last snapshot. It returns false before
// the first completed fetch or when the id is not present.
func (m *FeedManager) Get(alertID string) (models.Alert, bool) {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()

	if m.snapshot == nil {
		return models.Alert{}, false
	}
	return m.snapshot.Get(alertID)
}

// TrackedIDs returns the tracked alert ids in sorted order.
func (m *FeedManager) TrackedIDs() []string {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastUpdate returns the completion time of the last successful fetch.
func (m *FeedManager) LastUpdate() time.Time {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.lastUpdate
}

func invoke(ctx context.Context, callback func(context.Context, string) error, alertID string) error {
	if callback == nil {
		return nil
	}
	return callback(ctx, alertID)
}

// buildSnapshot filters the raw payload down to the alerts whose geocode
// list contains the configured municipality, tagging current-section entries
// Future=false and forecast-section entries Future=true.
func buildSnapshot(payload *models.FeedPayload, geocode string) *models.Snapshot {
	var alerts []models.Alert
	for _, alert := range payload.Today {
		if alert.AppliesTo(geocode) {
			alert.Future = false
			alerts = append(alerts, alert)
		}
	}
	for _, alert := range payload.Future {
		if alert.AppliesTo(geocode) {
			alert.Future = true
			alerts = append(alerts, alert)
		}
	}
	return models.NewSnapshot(alerts)
}

// diffIDs partitions the union of the tracked set and the new id set into
// the three disjoint transition sets, each sorted for deterministic
// dispatch order.
func diffIDs(tracked, current map[string]struct{}) (toRemove, toUpdate, toCreate []string) {
	for id := range tracked {
		if _, ok := current[id]; ok {
			toUpdate = append(toUpdate, id)
		} else {
			toRemove = append(toRemove, id)
		}
	}
	for id := range current {
		if _, ok := tracked[id]; !ok {
			toCreate = append(toCreate, id)
		}
	}
	sort.Strings(toRemove)
	sort.Strings(toUpdate)
	sort.Strings(toCreate)
	return toRemove, toUpdate, toCreate
}
