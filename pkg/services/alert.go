package services

import (
	"errors"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/OpenFero/alertrelay/pkg/alertstore/file"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/OpenFero/alertrelay/pkg/utils"
	"github.com/raulk/clock"
	"go.uber.org/zap"
)

// Submitter accepts notifications for delivery
type Submitter interface {
	Submit(fingerprint string, msg notify.Message) queue.Item
}

// Flusher persists the store after a batch of mutations
type Flusher interface {
	Flush(src file.SnapshotSource) error
}

// Ingester applies batches of observations to the record store and queues
// notifications for the ones that need them
type Ingester struct {
	Store    alertstore.Store
	Queue    Submitter
	Flusher  Flusher
	Renderer Renderer
	Clock    clock.Clock
}

// IngestResult summarizes one batch
type IngestResult struct {
	Applied  int     `json:"applied"`
	Notified int     `json:"notified"`
	Skipped  []error `json:"-"`
}

// Ingest processes a batch. Malformed observations are skipped and logged,
// the store is persisted once at the end.
func (i *Ingester) Ingest(batch []alertstore.Observation) IngestResult {
	var result IngestResult
	now := i.now()

	for _, obs := range batch {
		rec, needsNotification, err := i.Store.Upsert(obs, now)
		if err != nil {
			var malformed *alertstore.MalformedObservationError
			if errors.As(err, &malformed) {
				metadata.MalformedObservationsTotal.Inc()
			}
			log.Warn("Skipping observation",
				zap.String("fingerprint", utils.SanitizeInput(obs.Fingerprint)),
				zap.Error(err))
			result.Skipped = append(result.Skipped, err)
			continue
		}
		result.Applied++
		metadata.ObservationsTotal.WithLabelValues(rec.Status.Upstream()).Inc()

		if !needsNotification {
			continue
		}

		i.Queue.Submit(rec.Fingerprint, i.Renderer.Fresh(rec))
		metadata.NotificationsSubmittedTotal.WithLabelValues("ingest").Inc()
		result.Notified++

		log.Info("Alert requires notification",
			zap.String("fingerprint", rec.Fingerprint),
			zap.String("alertname", utils.SanitizeInput(rec.Name())),
			zap.String("status", rec.Status.Upstream()))
	}

	metadata.ActiveAlerts.Set(float64(len(i.Store.GetActive())))

	if i.Flusher != nil {
		if err := i.Flusher.Flush(i.Store); err != nil {
			log.Error("Failed to persist record store", zap.Error(err))
		}
	}

	log.Debug("Processed observation batch",
		zap.Int("observations", len(batch)),
		zap.Int("applied", result.Applied),
		zap.Int("notified", result.Notified),
		zap.Int("skipped", len(result.Skipped)))
	return result
}

func (i *Ingester) now() time.Time {
	if i.Clock == nil {
		return time.Now().UTC()
	}
	return i.Clock.Now().UTC()
}
