package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/OpenFero/alertrelay/pkg/alertstore/file"
	"github.com/OpenFero/alertrelay/pkg/alertstore/memory"
	"github.com/OpenFero/alertrelay/pkg/handlers"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/OpenFero/alertrelay/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grafanaPayload = `{
  "receiver": "alertrelay",
  "status": "firing",
  "orgId": 1,
  "groupKey": "{}:{alertname=\"[critical] Database down\"}",
  "alerts": [
    {
      "status": "firing",
      "labels": {"alertname": "[critical] Database down", "instance": "db-1"},
      "annotations": {"summary": "primary is unreachable"},
      "generatorURL": "http://grafana/alerting/grafana/abc/view",
      "fingerprint": "c6eadffa33fcdf37"
    },
    {
      "status": "resolved",
      "labels": {"alertname": "Disk usage"},
      "annotations": {"summary": "disk is fine again"},
      "fingerprint": "0a1b2c3d4e5f6071"
    },
    {
      "status": "firing",
      "labels": {"alertname": "No fingerprint"}
    }
  ]
}`

type testEnv struct {
	store  *memory.MemoryStore
	queue  *queue.Queue
	writer *file.Writer
	server *handlers.Server
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewMemoryStore()
	q := queue.New(notify.Nop{}, queue.Config{})
	writer := file.NewWriter(filepath.Join(t.TempDir(), "fingerprints.json"))
	server := &handlers.Server{
		AlertStore: store,
		Ingester: &services.Ingester{
			Store:    store,
			Queue:    q,
			Flusher:  writer,
			Renderer: services.Renderer{AppName: "Grafana"},
		},
		Delivery: q,
		Flusher:  writer,
	}
	return &testEnv{store: store, queue: q, writer: writer, server: server, router: newRouter(server)}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestGrafanaWebhookIngestsBatch(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/webhooks/grafana", grafanaPayload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp handlers.WebhookResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, handlers.WebhookResponse{Applied: 2, Notified: 2, Skipped: 1}, resp)

	rec, ok := env.store.Get("c6eadffa33fcdf37")
	require.True(t, ok)
	assert.Equal(t, alertstore.StatusActive, rec.Status)
	assert.False(t, rec.LastAlerted.IsZero())
	assert.Equal(t, "[critical] Database down", rec.Name())

	pending := env.queue.Pending()
	require.Len(t, pending, 2)
	events := []string{pending[0].Message.Event, pending[1].Message.Event}
	assert.ElementsMatch(t, []string{"[🔥] [critical] Database down", "[✅] Disk usage"}, events)

	// the batch was persisted
	snap, err := file.Load(env.writer.Path())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 2)

	// replaying the same payload queues nothing new
	rr = env.do(t, http.MethodPost, "/webhooks/grafana", grafanaPayload)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Notified)
	assert.Equal(t, 2, env.queue.Len())
}

func TestGrafanaWebhookRejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/webhooks/grafana", `{"alerts": [`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.store.GetAll())
	assert.Equal(t, 0, env.queue.Len())
}

func TestGrafanaWebhookMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/webhooks/grafana", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestDeleteFingerprint(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/webhooks/grafana", grafanaPayload)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, "/alertStore/c6eadffa33fcdf37", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	_, ok := env.store.Get("c6eadffa33fcdf37")
	assert.False(t, ok)

	snap, err := file.Load(env.writer.Path())
	require.NoError(t, err)
	assert.NotContains(t, snap.Records, "c6eadffa33fcdf37")

	rr = env.do(t, http.MethodDelete, "/alertStore/c6eadffa33fcdf37", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConfigErrorsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/configErrors", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/readiness", "").Code)

	env.server.SetReady(true)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readiness", "").Code)
}

func TestUIAndAboutPages(t *testing.T) {
	env := newTestEnv(t)
	handlers.SetBuildInfo("1.2.3", "abc123", "2024-03-01")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/webhooks/grafana", grafanaPayload).Code)

	rr := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "c6eadffa33fcdf37")
	assert.Contains(t, body, "Emergency")
	assert.Contains(t, body, "Disk usage")

	rr = env.do(t, http.MethodGet, "/?q=disk", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "c6eadffa33fcdf37")

	rr = env.do(t, http.MethodGet, "/about", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "1.2.3")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nope", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
