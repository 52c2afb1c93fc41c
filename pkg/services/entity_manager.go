package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inmet-io/inmet-alert-gateway/pkg/inmet"
	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
)

// EntityManager is the lifecycle shell around one FeedManager: it performs
// the initial update at Start, triggers one update per scan interval, keeps
// the alert registry in sync through the feed callbacks, and caches the last
// status report for display.
type EntityManager struct {
	feed     *FeedManager
	registry *AlertRegistry
	interval time.Duration

	mu         sync.RWMutex
	lastStatus *models.StatusReport

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewEntityManager wires a feed manager for the given geocode with the
// registry as the consumer of its lifecycle callbacks.
func NewEntityManager(client inmet.FeedClient, registry *AlertRegistry, geocode string, interval time.Duration) *EntityManager {
	em := &EntityManager{
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	em.feed = NewFeedManager(client, geocode, Callbacks{
		OnCreate: em.handleCreate,
		OnUpdate: em.handleUpdate,
		OnRemove: em.handleRemove,
		OnStatus: em.handleStatus,
	})
	return em
}

// Start schedules the initial update and the periodic updates. The given
// context is passed to every cycle; Stop halts scheduling without
// interrupting a cycle already in flight.
func (em *EntityManager) Start(ctx context.Context) {
	logrus.Infof("Starting feed scheduler, interval %s", em.interval)
	go em.run(ctx)
}

func (em *EntityManager) run(ctx context.Context) {
	defer close(em.done)

	if err := em.feed.Update(ctx); err != nil {
		logrus.Errorf("Initial feed update failed: %v", err)
	}

	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()

	for {
		select {
		case <-em.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := em.feed.Update(ctx); err != nil {
				logrus.Errorf("Scheduled feed update failed: %v", err)
			}
		}
	}
}

// Stop halts scheduling and waits for the scheduler goroutine to exit.
func (em *EntityManager) Stop() {
	em.stopOnce.Do(func() { close(em.stop) })
	<-em.done
	logrus.Info("Feed scheduler stopped")
}

// Refresh triggers one immediate update cycle. Concurrent triggers are
// serialized by the feed manager.
func (em *EntityManager) Refresh(ctx context.Context) error {
	return em.feed.Update(ctx)
}

// Feed exposes the underlying feed manager.
func (em *EntityManager) Feed() *FeedManager {
	return em.feed
}

// LastStatus returns the status report of the most recent completed cycle.
func (em *EntityManager) LastStatus() (models.StatusReport, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	if em.lastStatus == nil {
		return models.StatusReport{}, false
	}
	return *em.lastStatus, true
}

func (em *EntityManager) handleCreate(_ context.Context, alertID string) error {
	alert, ok := em.feed.Get(alertID)
	if !ok {
		return fmt.Errorf("alert %s not found in current snapshot", alertID)
	}
	em.registry.Upsert(alert)
	return nil
}

func (em *EntityManager) handleUpdate(_ context.Context, alertID string) error {
	alert, ok := em.feed.Get(alertID)
	if !ok {
		return fmt.Errorf("alert %s not found in current snapshot", alertID)
	}
	em.registry.Upsert(alert)
	return nil
}

func (em *EntityManager) handleRemove(_ context.Context, alertID string) error {
	em.registry.Remove(alertID)
	return nil
}

func (em *EntityManager) handleStatus(report models.StatusReport) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.lastStatus = &report
}
