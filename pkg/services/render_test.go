package services

import (
	"testing"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/stretchr/testify/assert"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		alertname string
		status    alertstore.Status
		want      notify.Priority
	}{
		{"[critical] Database down", alertstore.StatusActive, notify.PriorityEmergency},
		{"[CRIT] Database down", alertstore.StatusActive, notify.PriorityEmergency},
		{"[high] Latency", alertstore.StatusActive, notify.PriorityHigh},
		{"[HIGH] Latency", alertstore.StatusActive, notify.PriorityHigh},
		{"Latency", alertstore.StatusActive, notify.PriorityNormal},
		{"Latency [critical]", alertstore.StatusActive, notify.PriorityNormal},
		{"[Critical] mixed case", alertstore.StatusActive, notify.PriorityNormal},
		{"", alertstore.StatusActive, notify.PriorityNormal},
		{"[critical] Database down", alertstore.StatusResolved, notify.PriorityVeryLow},
		{"Latency", alertstore.StatusResolved, notify.PriorityVeryLow},
	}

	for _, tt := range tests {
		t.Run(tt.alertname+"/"+string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityFor(tt.alertname, tt.status))
		})
	}
}

func TestRendererFresh(t *testing.T) {
	renderer := Renderer{AppName: "Grafana"}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := alertstore.Record{
		Fingerprint: "A",
		Status:      alertstore.StatusActive,
		FirstSeen:   now,
		LastSeen:    now,
		Metadata: map[string]string{
			alertstore.MetaAlertName:    "[critical] Database down",
			alertstore.MetaSummary:      "primary is unreachable",
			alertstore.MetaGeneratorURL: "http://grafana/alerting/1",
		},
	}

	msg := renderer.Fresh(rec)
	assert.Equal(t, notify.Message{
		Application: "Grafana",
		Event:       "[🔥] [critical] Database down",
		Description: "firing: primary is unreachable",
		URL:         "http://grafana/alerting/1",
		Priority:    notify.PriorityEmergency,
	}, msg)

	rec.Status = alertstore.StatusResolved
	rec.ResolvedAt = &now
	msg = renderer.Fresh(rec)
	assert.Equal(t, "[✅] [critical] Database down", msg.Event)
	assert.Equal(t, "resolved: primary is unreachable", msg.Description)
	assert.Equal(t, notify.PriorityVeryLow, msg.Priority)
}

func TestRendererUnknownName(t *testing.T) {
	msg := Renderer{}.Fresh(alertstore.Record{Status: alertstore.StatusActive})
	assert.Equal(t, "[🔥] Unknown", msg.Event)
	assert.Equal(t, "firing: ", msg.Description)
	assert.Empty(t, msg.URL)
}

func TestRendererRealert(t *testing.T) {
	renderer := Renderer{AppName: "Ops"}
	rec := alertstore.Record{
		Fingerprint: "A",
		Status:      alertstore.StatusActive,
		Metadata:    map[string]string{alertstore.MetaAlertName: "[high] Latency"},
	}

	msg := renderer.Realert(rec)
	assert.Equal(t, "Ops", msg.Application)
	assert.Equal(t, "[🕓] [high] Latency", msg.Event)
	assert.Equal(t, "[high] Latency is still firing.", msg.Description)
	assert.Equal(t, notify.PriorityHigh, msg.Priority)
}
