package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"github.com/OpenFero/alertrelay/pkg/models"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/OpenFero/alertrelay/pkg/services"
	"github.com/OpenFero/alertrelay/pkg/utils"
	"go.uber.org/zap"
)

const (
	ContentTypeHeader  = "Content-Type"
	ApplicationJSONVal = "application/json"

	defaultSearchLimit = 100
	maxWebhookBytes    = 4 << 20
)

// DeliveryStatus exposes read-only queue state
type DeliveryStatus interface {
	Len() int
	Failures() []queue.Failure
}

// Server holds dependencies for handlers
type Server struct {
	AlertStore alertstore.Store
	Ingester   *services.Ingester
	Delivery   DeliveryStatus
	Flusher    services.Flusher
	ready      atomic.Bool
}

// SetReady marks the server ready once the store is loaded and workers run
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// WebhookResponse is returned after a webhook batch is processed
type WebhookResponse struct {
	Applied  int `json:"applied"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
}

// GrafanaWebhookPostHandler handles POST requests to /webhooks/grafana
//
// @Summary Receive Grafana alerts
// @Description Applies every alert in the payload to the record store and queues notifications for new or changed alerts
// @Tags alerts
// @Accept json
// @Produce json
// @Param message body models.HookMessage true "Grafana webhook payload"
// @Success 200 {object} WebhookResponse
// @Failure 400 {string} string "invalid request body"
// @Router /webhooks/grafana [post]
func (s *Server) GrafanaWebhookPostHandler(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Error("Failed to close request body", zap.Error(err))
		}
	}()

	message := models.HookMessage{}
	if err := dec.Decode(&message); err != nil {
		log.Error("error decoding message: ", zap.String("error", err.Error()))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	metadata.WebhooksReceivedTotal.Inc()

	log.Debug("Webhook received",
		zap.String("status", utils.SanitizeInput(message.Status)),
		zap.String("groupKey", utils.SanitizeInput(message.GroupKey)),
		zap.Int("alertCount", len(message.Alerts)))

	result := s.Ingester.Ingest(message.Observations())

	w.Header().Set(ContentTypeHeader, ApplicationJSONVal)
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(WebhookResponse{
		Applied:  result.Applied,
		Notified: result.Notified,
		Skipped:  len(result.Skipped),
	})
	if err != nil {
		log.Error("error encoding response: ", zap.Error(err))
	}
}

// AlertStoreGetHandler handles GET requests to /alertStore
//
// @Summary List alert records
// @Tags alerts
// @Produce json
// @Param q query string false "case-insensitive search over fingerprint, status and metadata"
// @Param limit query int false "maximum number of records"
// @Success 200 {array} alertstore.Record
// @Router /alertStore [get]
func (s *Server) AlertStoreGetHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records := s.AlertStore.Search(query, limit)
	if records == nil {
		records = []alertstore.Record{}
	}

	w.Header().Set(ContentTypeHeader, ApplicationJSONVal)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		log.Error("Error encoding records", zap.Error(err))
		http.Error(w, "", http.StatusInternalServerError)
	}
}

// AlertStoreDeleteHandler handles DELETE requests to /alertStore/{fingerprint}
//
// @Summary Delete an alert record
// @Tags alerts
// @Param fingerprint path string true "alert fingerprint"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /alertStore/{fingerprint} [delete]
func (s *Server) AlertStoreDeleteHandler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	if fingerprint == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}

	if !s.AlertStore.Delete(fingerprint) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	log.Info("Fingerprint deleted by operator", zap.String("fingerprint", utils.SanitizeInput(fingerprint)))
	metadata.ActiveAlerts.Set(float64(len(s.AlertStore.GetActive())))

	if s.Flusher != nil {
		if err := s.Flusher.Flush(s.AlertStore); err != nil {
			log.Error("Failed to persist record store after delete", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfigErrorsGetHandler handles GET requests to /configErrors
//
// @Summary List notifications the provider rejected permanently
// @Tags delivery
// @Produce json
// @Success 200 {array} queue.Failure
// @Router /configErrors [get]
func (s *Server) ConfigErrorsGetHandler(w http.ResponseWriter, r *http.Request) {
	failures := []queue.Failure{}
	if s.Delivery != nil {
		failures = s.Delivery.Failures()
	}

	w.Header().Set(ContentTypeHeader, ApplicationJSONVal)
	if err := json.NewEncoder(w).Encode(failures); err != nil {
		log.Error("Error encoding failures", zap.Error(err))
		http.Error(w, "", http.StatusInternalServerError)
	}
}

// HealthzGetHandler handles health status requests
func (s *Server) HealthzGetHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug("Health check requested", zap.String("path", r.URL.Path))
	w.Header().Set(ContentTypeHeader, ApplicationJSONVal)
	w.WriteHeader(http.StatusOK)
}

// ReadinessGetHandler handles readiness probe requests
func (s *Server) ReadinessGetHandler(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		log.Debug("Readiness check failed - not started yet")
		http.Error(w, "", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set(ContentTypeHeader, ApplicationJSONVal)
	w.WriteHeader(http.StatusOK)
}
