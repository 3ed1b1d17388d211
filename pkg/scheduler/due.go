package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	"github.com/robfig/cron/v3"
)

// maxCronSlots caps how many trigger points are walked between two ticks
const maxCronSlots = 10000

// Config selects which re-alert triggers are active
type Config struct {
	// Every re-alerts records whose last alert is at least this old, zero disables
	Every time.Duration
	// Cron re-alerts records when a trigger point is crossed, nil disables
	Cron cron.Schedule
	// Tick is how often the scheduler wakes
	Tick time.Duration
}

// Enabled reports whether any trigger is configured
func (c Config) Enabled() bool {
	return c.Every > 0 || c.Cron != nil
}

// ParseCron parses a standard 5-field expression evaluated in UTC unless the
// expression carries its own CRON_TZ prefix
func ParseCron(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "CRON_TZ=") && !strings.HasPrefix(expr, "TZ=") {
		expr = "CRON_TZ=UTC " + expr
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// Due reports whether rec should be re-alerted at now, given the time of the
// previous tick
func Due(rec alertstore.Record, now, prevTick time.Time, cfg Config) bool {
	if rec.Status != alertstore.StatusActive {
		return false
	}
	if cfg.Every > 0 && now.Sub(rec.LastAlerted) >= cfg.Every {
		return true
	}
	if cfg.Cron != nil {
		if slot, ok := CronSlot(cfg.Cron, prevTick, now); ok && rec.LastAlerted.Before(slot) {
			return true
		}
	}
	return false
}

// CronSlot returns the latest trigger point in (prevTick, now]
func CronSlot(sched cron.Schedule, prevTick, now time.Time) (time.Time, bool) {
	if prevTick.IsZero() || !now.After(prevTick) {
		return time.Time{}, false
	}

	var slot time.Time
	found := false
	next := sched.Next(prevTick.UTC())
	for i := 0; i < maxCronSlots && !next.IsZero() && !next.After(now); i++ {
		slot, found = next, true
		next = sched.Next(next)
	}
	return slot, found
}
