package models

import (
	"github.com/OpenFero/alertrelay/pkg/alertstore"
)

// HookMessage received from Grafana alerting
type HookMessage struct {
	// Name of the contact point that sent the message
	Receiver string `json:"receiver"`
	// Status of the alert group (firing/resolved)
	Status string `json:"status" enum:"firing,resolved" example:"firing"`
	// Grafana organisation
	OrgID int64 `json:"orgId"`
	// List of alerts in the group
	Alerts []Alert `json:"alerts"`
	// Labels used to group alerts
	GroupLabels map[string]string `json:"groupLabels"`
	// Labels common across all alerts
	CommonLabels map[string]string `json:"commonLabels"`
	// Annotations common across all alerts
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	// External URL to Grafana
	ExternalURL string `json:"externalURL"`
	// Version of the webhook payload
	Version string `json:"version"`
	// Key used to group alerts
	GroupKey string `json:"groupKey"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Alert information from Grafana
type Alert struct {
	// Status of this alert (firing/resolved)
	Status string `json:"status" enum:"firing,resolved" example:"firing"`
	// Key-value pairs of alert labels
	Labels map[string]string `json:"labels"`
	// Key-value pairs of alert annotations
	Annotations map[string]string `json:"annotations"`
	// Time when the alert started firing
	StartsAt string `json:"startsAt,omitempty"`
	// Time when the alert ended
	EndsAt string `json:"endsAt,omitempty"`
	// Link to the alert rule
	GeneratorURL string `json:"generatorURL"`
	// Stable identifier of the alert
	Fingerprint  string `json:"fingerprint"`
	SilenceURL   string `json:"silenceURL,omitempty"`
	DashboardURL string `json:"dashboardURL,omitempty"`
	PanelURL     string `json:"panelURL,omitempty"`
}

// ToObservation normalizes an Alert into a record store observation. Invalid
// fields are passed through so the store can reject them.
func (a *Alert) ToObservation() alertstore.Observation {
	meta := map[string]string{
		alertstore.MetaAlertName: a.Labels["alertname"],
		alertstore.MetaSummary:   a.Annotations["summary"],
	}
	if a.GeneratorURL != "" {
		meta[alertstore.MetaGeneratorURL] = a.GeneratorURL
	}
	return alertstore.Observation{
		Fingerprint: a.Fingerprint,
		Status:      alertstore.ParseStatus(a.Status),
		Metadata:    meta,
	}
}

// Observations normalizes every alert in the message
func (m *HookMessage) Observations() []alertstore.Observation {
	result := make([]alertstore.Observation, 0, len(m.Alerts))
	for i := range m.Alerts {
		result = append(result, m.Alerts[i].ToObservation())
	}
	return result
}
