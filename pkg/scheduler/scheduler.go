// Package scheduler periodically re-notifies alerts that are still firing,
// either after a fixed interval or when a cron trigger point is crossed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/OpenFero/alertrelay/pkg/alertstore/file"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/raulk/clock"
	"go.uber.org/zap"
)

const defaultTick = time.Minute

// Submitter accepts notifications for delivery
type Submitter interface {
	Submit(fingerprint string, msg notify.Message) queue.Item
}

// Flusher persists the store after a batch of mutations
type Flusher interface {
	Flush(src file.SnapshotSource) error
}

// RenderFunc builds the re-alert message for a record
type RenderFunc func(alertstore.Record) notify.Message

// Scheduler scans the record store on every tick and submits due records
type Scheduler struct {
	store   alertstore.Store
	queue   Submitter
	flusher Flusher
	render  RenderFunc
	clock   clock.Clock
	config  Config

	mutex    sync.Mutex
	prevTick time.Time
}

// New creates a scheduler. A nil clock uses wall-clock time.
func New(store alertstore.Store, q Submitter, flusher Flusher, render RenderFunc, clk clock.Clock, cfg Config) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = defaultTick
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		store:   store,
		queue:   q,
		flusher: flusher,
		render:  render,
		clock:   clk,
		config:  cfg,
	}
}

// Tick submits every record due at now and returns them
func (s *Scheduler) Tick(now time.Time) []alertstore.Record {
	now = now.UTC()

	s.mutex.Lock()
	prev := s.prevTick
	s.prevTick = now
	s.mutex.Unlock()

	if !s.config.Enabled() {
		return nil
	}

	claimed := s.store.ClaimDue(now, func(rec alertstore.Record) bool {
		return Due(rec, now, prev, s.config)
	})
	if len(claimed) == 0 {
		return nil
	}

	for _, rec := range claimed {
		s.queue.Submit(rec.Fingerprint, s.render(rec))
		metadata.NotificationsSubmittedTotal.WithLabelValues("realert").Inc()
		log.Info("Re-alerting fingerprint",
			zap.String("fingerprint", rec.Fingerprint),
			zap.String("alertname", rec.Name()))
	}

	if s.flusher != nil {
		if err := s.flusher.Flush(s.store); err != nil {
			log.Error("Failed to persist record store after re-alert", zap.Error(err))
		}
	}
	return claimed
}

// Run ticks until ctx is cancelled. The first tick only records the starting
// time so that cron trigger points are measured from startup.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.config.Enabled() {
		log.Info("Re-alerting not configured, scheduler idle")
		<-ctx.Done()
		return nil
	}

	log.Info("Re-alert scheduler started",
		zap.Duration("every", s.config.Every),
		zap.Bool("cron", s.config.Cron != nil),
		zap.Duration("tick", s.config.Tick))

	s.mutex.Lock()
	if s.prevTick.IsZero() {
		s.prevTick = s.clock.Now().UTC()
	}
	s.mutex.Unlock()

	ticker := s.clock.Ticker(s.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Re-alert scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}
