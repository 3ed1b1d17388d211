package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenFero/alertrelay/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"prowl_api_keys": ["key"], "fingerprints_file": "/tmp/fp.json"}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.Equal(t, DefaultBindHost, cfg.BindHost)
	assert.Equal(t, 60*time.Second, cfg.LinearRetry())
	assert.Equal(t, time.Duration(0), cfg.AlertEvery())
	assert.Empty(t, cfg.RealertCron)
	assert.Equal(t, time.Duration(0), cfg.WaitBetweenNotifications())
	assert.Equal(t, DefaultMaxInFlight, cfg.MaxInFlight)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.Tick())
	assert.False(t, cfg.TestMode)
}

func TestParseFullJSON(t *testing.T) {
	doc := `{
	  "prowl_api_keys": ["k1", "k2"],
	  "fingerprints_file": "/var/lib/alertrelay/fingerprints.json",
	  "app_name": "Ops",
	  "bind_host": "127.0.0.1:8080",
	  "linear_retry_secs": 15,
	  "alert_every_minutes": 30,
	  "realert_cron": "0 0,16 * * *",
	  "test_mode": false,
	  "wait_secs_between_notifications": 2,
	  "max_in_flight": 8,
	  "request_timeout_secs": 3,
	  "tick_secs": 20
	}`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2"}, cfg.ProwlAPIKeys)
	assert.Equal(t, "Ops", cfg.AppName)
	assert.Equal(t, "127.0.0.1:8080", cfg.BindHost)
	assert.Equal(t, 15*time.Second, cfg.LinearRetry())
	assert.Equal(t, 30*time.Minute, cfg.AlertEvery())
	assert.Equal(t, "0 0,16 * * *", cfg.RealertCron)
	assert.Equal(t, 2*time.Second, cfg.WaitBetweenNotifications())
	assert.Equal(t, 8, cfg.MaxInFlight)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 20*time.Second, cfg.Tick())
}

func TestParseYAML(t *testing.T) {
	doc := `
prowl_api_keys:
  - key
fingerprints_file: fingerprints.json
alert_every_minutes: 60
test_mode: true
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.AlertEvery())
	assert.True(t, cfg.TestMode)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: `{"fingerprints_file": "f", "test_mode": true, "prowlApiKeys": ["k"]}`},
		{name: "missing fingerprints file", doc: `{"prowl_api_keys": ["k"]}`},
		{name: "missing api keys", doc: `{"fingerprints_file": "f"}`},
		{name: "invalid cron", doc: `{"fingerprints_file": "f", "test_mode": true, "realert_cron": "every day"}`},
		{name: "zero interval", doc: `{"fingerprints_file": "f", "test_mode": true, "alert_every_minutes": 0}`},
		{name: "negative retry", doc: `{"fingerprints_file": "f", "test_mode": true, "linear_retry_secs": -1}`},
		{name: "negative spacing", doc: `{"fingerprints_file": "f", "test_mode": true, "wait_secs_between_notifications": -5}`},
		{name: "wrong type", doc: `{"fingerprints_file": "f", "test_mode": "yes"}`},
		{name: "not a document", doc: `[unterminated`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestTestModeDoesNotRequireKeys(t *testing.T) {
	cfg, err := Parse([]byte(`{"fingerprints_file": "f", "test_mode": true}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.ProwlAPIKeys)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fingerprints_file: fp.json\ntest_mode: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fp.json", cfg.FingerprintsFile)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRealertCronAcceptedExactlyWhenSchedulerParsesIt(t *testing.T) {
	expressions := []string{
		"0 0,16 * * *",
		"*/5 * * * *",
		"@hourly",
		"CRON_TZ=Europe/Berlin 0 9 * * 1-5",
		"CRON_TZ=Nowhere/Invalid 0 9 * * *",
		"0 0 * *",
		"61 * * * *",
		"every day",
	}

	for _, expr := range expressions {
		t.Run(expr, func(t *testing.T) {
			_, schedErr := scheduler.ParseCron(expr)
			cfg, cfgErr := Parse([]byte(`{"fingerprints_file": "f", "test_mode": true, "realert_cron": "` + expr + `"}`))
			assert.Equal(t, schedErr == nil, cfgErr == nil, "scheduler: %v, config: %v", schedErr, cfgErr)
			if cfgErr == nil {
				assert.Equal(t, expr, cfg.RealertCron)
			}
		})
	}
}
