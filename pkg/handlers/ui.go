package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/OpenFero/alertrelay/pkg/services"
	"go.uber.org/zap"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var (
	statusTemplate = template.Must(template.ParseFS(templateFS, "templates/status.html.tmpl", "templates/navbar.html.tmpl"))
	aboutTemplate  = template.Must(template.ParseFS(templateFS, "templates/about.html.tmpl", "templates/navbar.html.tmpl"))
)

const timeLayout = "02/01/2006 15:04"

// StatusRow is one line of the status table
type StatusRow struct {
	Fingerprint string
	Name        string
	Priority    string
	Status      string
	LastAlerted string
	FirstSeen   string
	LastSeen    string
}

func newStatusRow(rec alertstore.Record) StatusRow {
	return StatusRow{
		Fingerprint: rec.Fingerprint,
		Name:        rec.Name(),
		Priority:    services.PriorityFor(rec.Metadata[alertstore.MetaAlertName], rec.Status).String(),
		Status:      rec.Status.Upstream(),
		LastAlerted: formatTime(rec.LastAlerted),
		FirstSeen:   formatTime(rec.FirstSeen),
		LastSeen:    formatTime(rec.LastSeen),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format(timeLayout)
}

// UIHandler handles GET requests to / and renders the fingerprint table
func (s *Server) UIHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set(ContentTypeHeader, "text/html")

	log.Debug("Processing UI request",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("remoteAddr", r.RemoteAddr))

	query := r.URL.Query().Get("q")
	records := s.AlertStore.Search(query, 0)
	rows := make([]StatusRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, newStatusRow(rec))
	}

	var failures []queue.Failure
	pending := 0
	if s.Delivery != nil {
		failures = s.Delivery.Failures()
		pending = s.Delivery.Len()
	}

	data := struct {
		Title      string
		ShowSearch bool
		Query      string
		Rows       []StatusRow
		Failures   []queue.Failure
		Pending    int
	}{
		Title:      "Alerts",
		ShowSearch: true,
		Query:      query,
		Rows:       rows,
		Failures:   failures,
		Pending:    pending,
	}

	if err := statusTemplate.Execute(w, data); err != nil {
		log.Error("Failed to execute templates", zap.Error(err))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	log.Debug("UI request completed successfully",
		zap.String("path", r.URL.Path),
		zap.Int("alertCount", len(rows)))
}
