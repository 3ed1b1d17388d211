package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore/file"
	"github.com/OpenFero/alertrelay/pkg/alertstore/memory"
	"github.com/OpenFero/alertrelay/pkg/config"
	_ "github.com/OpenFero/alertrelay/pkg/docs"
	"github.com/OpenFero/alertrelay/pkg/handlers"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"github.com/OpenFero/alertrelay/pkg/notify"
	"github.com/OpenFero/alertrelay/pkg/queue"
	"github.com/OpenFero/alertrelay/pkg/scheduler"
	"github.com/OpenFero/alertrelay/pkg/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raulk/clock"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// initLogger initializes the logger with the given log level and optional file
func initLogger(logLevel, logFile string) error {
	var cfg zap.Config
	switch strings.ToLower(logLevel) {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	case "info":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("invalid log level specified: %s", logLevel)
	}

	return log.SetConfigWithFile(cfg, log.FileConfig{
		Path:       logFile,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 28,
	})
}

// newRouter registers every HTTP route on a fresh mux
func newRouter(server *handlers.Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET "+metadata.MetricsPath, promhttp.Handler())
	mux.HandleFunc("GET /healthz", server.HealthzGetHandler)
	mux.HandleFunc("GET /readiness", server.ReadinessGetHandler)
	mux.HandleFunc("POST /webhooks/grafana", server.GrafanaWebhookPostHandler)
	mux.HandleFunc("GET /alertStore", server.AlertStoreGetHandler)
	mux.HandleFunc("DELETE /alertStore/{fingerprint}", server.AlertStoreDeleteHandler)
	mux.HandleFunc("GET /configErrors", server.ConfigErrorsGetHandler)
	mux.HandleFunc("GET /about", handlers.AboutHandler)
	mux.HandleFunc("GET /{$}", server.UIHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))
	return mux
}

// newDeliveryClient returns the Prowl client, or the no-op client in test mode
func newDeliveryClient(cfg *config.Config) (notify.Client, error) {
	if cfg.TestMode {
		log.Warn("Test mode enabled, notifications will not be sent")
		return notify.Nop{}, nil
	}
	return notify.NewProwlClient(notify.ProwlConfig{
		APIKeys: cfg.ProwlAPIKeys,
		Timeout: cfg.RequestTimeout(),
	})
}

// @title Alert Relay API
// @version 1.0
// @description Alert Relay turns Grafana alert webhooks into push notifications and re-alerts while alerts keep firing.

// @contact.name GitHub Issues
// @contact.url https://github.com/OpenFero/alertrelay/issues

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3333
// @BasePath /
func main() {
	// Parse command line arguments
	configPath := flag.String("config", "config.json", "path to the JSON or YAML configuration file")
	logLevel := flag.String("logLevel", "info", "log level")
	logFile := flag.String("logFile", "", "optional file to additionally write rotated logs to")
	readTimeout := flag.Int("readTimeout", 5, "read timeout in seconds")
	writeTimeout := flag.Int("writeTimeout", 10, "write timeout in seconds")
	shutdownTimeout := flag.Int("shutdownTimeout", 10, "graceful shutdown timeout in seconds")

	flag.Parse()

	// Configure logger first
	if err := initLogger(*logLevel, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "Could not set log configuration:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting alert relay", zap.String("version", version), zap.String("commit", commit), zap.String("date", date))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Could not load configuration", zap.Error(err))
	}

	// A snapshot that exists but cannot be read aborts startup instead of
	// discarding history
	snapshot, err := file.Load(cfg.FingerprintsFile)
	if err != nil {
		log.Fatal("Could not load persisted alert records", zap.String("path", cfg.FingerprintsFile), zap.Error(err))
	}
	store := memory.NewMemoryStore()
	if err := store.Restore(snapshot); err != nil {
		log.Fatal("Could not restore alert records", zap.Error(err))
	}
	metadata.ActiveAlerts.Set(float64(len(store.GetActive())))
	writer := file.NewWriter(cfg.FingerprintsFile)

	client, err := newDeliveryClient(cfg)
	if err != nil {
		log.Fatal("Could not create delivery client", zap.Error(err))
	}

	clk := clock.New()
	deliveryQueue := queue.New(client, queue.Config{
		RetryDelay:     cfg.LinearRetry(),
		MaxInFlight:    cfg.MaxInFlight,
		AttemptTimeout: cfg.RequestTimeout(),
		MinSpacing:     cfg.WaitBetweenNotifications(),
		Clock:          clk,
	})

	renderer := services.Renderer{AppName: cfg.AppName}
	ingester := &services.Ingester{
		Store:    store,
		Queue:    deliveryQueue,
		Flusher:  writer,
		Renderer: renderer,
		Clock:    clk,
	}

	schedulerConfig := scheduler.Config{
		Every: cfg.AlertEvery(),
		Tick:  cfg.Tick(),
	}
	if cfg.RealertCron != "" {
		schedulerConfig.Cron, err = scheduler.ParseCron(cfg.RealertCron)
		if err != nil {
			log.Fatal("Could not parse re-alert cron expression", zap.Error(err))
		}
	}
	realerter := scheduler.New(store, deliveryQueue, writer, renderer.Realert, clk, schedulerConfig)

	// Initialize HTTP server
	server := &handlers.Server{
		AlertStore: store,
		Ingester:   ingester,
		Delivery:   deliveryQueue,
		Flusher:    writer,
	}
	handlers.SetBuildInfo(version, commit, date)
	metadata.AddMetricsToPrometheusRegistry()

	srv := &http.Server{
		Addr:         cfg.BindHost,
		Handler:      newRouter(server),
		ReadTimeout:  time.Duration(*readTimeout) * time.Second,
		WriteTimeout: time.Duration(*writeTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deliveryQueue.Run(gctx)
	})
	g.Go(func() error {
		return realerter.Run(gctx)
	})
	g.Go(func() error {
		log.Info("Starting server on " + cfg.BindHost)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		server.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(*shutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	server.SetReady(true)

	runErr := g.Wait()

	// Waits for any in-flight write before the final flush
	if err := writer.Flush(store); err != nil {
		log.Error("Failed to persist alert records on shutdown", zap.Error(err))
	}

	if runErr != nil {
		log.Fatal("Alert relay stopped with error", zap.Error(runErr))
	}
	log.Info("Alert relay stopped")
}
