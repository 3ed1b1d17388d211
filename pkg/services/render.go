package services

import (
	"fmt"
	"strings"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/OpenFero/alertrelay/pkg/notify"
)

// Renderer turns records into notification messages
type Renderer struct {
	AppName string
}

// PriorityFor derives the notification priority from the alert name prefix.
// Resolutions are always sent at the lowest priority.
func PriorityFor(alertname string, status alertstore.Status) notify.Priority {
	if status != alertstore.StatusActive {
		return notify.PriorityVeryLow
	}
	switch {
	case strings.HasPrefix(alertname, "[critical]"), strings.HasPrefix(alertname, "[CRIT]"):
		return notify.PriorityEmergency
	case strings.HasPrefix(alertname, "[high]"), strings.HasPrefix(alertname, "[HIGH]"):
		return notify.PriorityHigh
	default:
		return notify.PriorityNormal
	}
}

// Fresh renders the notification for a new alert or a status change
func (r Renderer) Fresh(rec alertstore.Record) notify.Message {
	icon := "🔥"
	if rec.Status == alertstore.StatusResolved {
		icon = "✅"
	}
	status := rec.Status.Upstream()

	return notify.Message{
		Application: r.AppName,
		Event:       fmt.Sprintf("[%s] %s", icon, rec.Name()),
		Description: fmt.Sprintf("%s: %s", status, rec.Metadata[alertstore.MetaSummary]),
		URL:         rec.Metadata[alertstore.MetaGeneratorURL],
		Priority:    PriorityFor(rec.Metadata[alertstore.MetaAlertName], rec.Status),
	}
}

// Realert renders the reminder for an alert that is still firing
func (r Renderer) Realert(rec alertstore.Record) notify.Message {
	name := rec.Name()
	return notify.Message{
		Application: r.AppName,
		Event:       fmt.Sprintf("[🕓] %s", name),
		Description: fmt.Sprintf("%s is still firing.", name),
		URL:         rec.Metadata[alertstore.MetaGeneratorURL],
		Priority:    PriorityFor(rec.Metadata[alertstore.MetaAlertName], alertstore.StatusActive),
	}
}
