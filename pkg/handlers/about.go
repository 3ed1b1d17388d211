package handlers

import (
	"net/http"

	log "github.com/OpenFero/alertrelay/pkg/logging"
	"go.uber.org/zap"
)

// BuildInfo contains information about the build
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var buildInformation BuildInfo

// SetBuildInfo sets the build information
func SetBuildInfo(version, commit, date string) {
	buildInformation = BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
	}
}

// AboutHandler handles GET requests to /about
func AboutHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(ContentTypeHeader, "text/html")

	log.Debug("Processing about page request",
		zap.String("path", r.URL.Path),
		zap.String("remoteAddr", r.RemoteAddr))

	data := struct {
		Title      string
		ShowSearch bool
		Query      string
		Version    string
		Commit     string
		BuildDate  string
	}{
		Title:     "About",
		Version:   buildInformation.Version,
		Commit:    buildInformation.Commit,
		BuildDate: buildInformation.BuildDate,
	}

	if err := aboutTemplate.Execute(w, data); err != nil {
		log.Error("Failed to execute templates", zap.Error(err))
		http.Error(w, "", http.StatusInternalServerError)
	}
}
