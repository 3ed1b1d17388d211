package alertstore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an alert as last reported upstream
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// Upstream returns the status word the monitoring tool uses
func (s Status) Upstream() string {
	if s == StatusActive {
		return "firing"
	}
	return string(s)
}

// ParseStatus maps an upstream status word onto a Status
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "firing":
		return StatusActive
	case "resolved":
		return StatusResolved
	default:
		return Status(raw)
	}
}

// Metadata keys used when rendering notifications
const (
	MetaAlertName    = "alertname"
	MetaSummary      = "summary"
	MetaGeneratorURL = "generatorURL"
)

// SchemaVersion is the version written into every snapshot
const SchemaVersion = 1

// ErrSchemaVersion is returned when a snapshot carries an unsupported version
var ErrSchemaVersion = errors.New("unsupported snapshot schema version")

// Record is the tracked state of one alert, keyed by fingerprint
type Record struct {
	Fingerprint string            `json:"fingerprint"`
	Status      Status            `json:"status"`
	FirstSeen   time.Time         `json:"first_seen"`
	LastSeen    time.Time         `json:"last_seen"`
	LastAlerted time.Time         `json:"last_alerted"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

// Name returns the alert name from the metadata, or "Unknown"
func (r Record) Name() string {
	if name := r.Metadata[MetaAlertName]; name != "" {
		return name
	}
	return "Unknown"
}

// Clone returns a deep copy so callers never share maps or pointers with the store
func (r Record) Clone() Record {
	out := r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		out.ResolvedAt = &t
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Validate checks the record invariants
func (r Record) Validate() error {
	if r.Fingerprint == "" {
		return errors.New("fingerprint is empty")
	}
	switch r.Status {
	case StatusActive:
		if r.ResolvedAt != nil {
			return fmt.Errorf("record %s is active but has resolved_at set", r.Fingerprint)
		}
	case StatusResolved:
		if r.ResolvedAt == nil {
			return fmt.Errorf("record %s is resolved but resolved_at is missing", r.Fingerprint)
		}
	default:
		return fmt.Errorf("record %s has unknown status %q", r.Fingerprint, r.Status)
	}
	if r.FirstSeen.IsZero() {
		return fmt.Errorf("record %s is missing first_seen", r.Fingerprint)
	}
	if r.LastSeen.Before(r.FirstSeen) {
		return fmt.Errorf("record %s has last_seen before first_seen", r.Fingerprint)
	}
	return nil
}

// Observation is one normalized alert report from the upstream source
type Observation struct {
	Fingerprint string
	Status      Status
	Metadata    map[string]string
}

// MalformedObservationError reports an observation that cannot be applied
type MalformedObservationError struct {
	Fingerprint string
	Reason      string
}

func (e *MalformedObservationError) Error() string {
	if e.Fingerprint == "" {
		return "malformed observation: " + e.Reason
	}
	return fmt.Sprintf("malformed observation %s: %s", e.Fingerprint, e.Reason)
}

// Validate rejects observations the store cannot apply
func (o Observation) Validate() error {
	if o.Fingerprint == "" {
		return &MalformedObservationError{Reason: "missing fingerprint"}
	}
	if o.Status != StatusActive && o.Status != StatusResolved {
		return &MalformedObservationError{Fingerprint: o.Fingerprint, Reason: fmt.Sprintf("unknown status %q", o.Status)}
	}
	return nil
}

// Snapshot is the persisted form of the whole store
type Snapshot struct {
	Version int               `json:"version"`
	Records map[string]Record `json:"records"`
}

// Validate checks the version and every record
func (s Snapshot) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, s.Version, SchemaVersion)
	}
	if s.Records == nil {
		return errors.New("snapshot has no records field")
	}
	for key, rec := range s.Records {
		if key != rec.Fingerprint {
			return fmt.Errorf("snapshot key %q does not match fingerprint %q", key, rec.Fingerprint)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Store defines the operations on alert records. Implementations must
// serialize all mutations.
type Store interface {
	// Upsert applies an observation. The returned flag reports whether the
	// observation requires a fresh notification, in which case last_alerted
	// has already been stamped with now.
	Upsert(obs Observation, now time.Time) (Record, bool, error)

	// ClaimDue stamps last_alerted on every active record accepted by due and
	// returns the stamped copies
	ClaimDue(now time.Time, due func(Record) bool) []Record

	// Get returns a single record
	Get(fingerprint string) (Record, bool)

	// GetActive returns all active records
	GetActive() []Record

	// GetAll returns every record sorted by fingerprint
	GetAll() []Record

	// Search returns records matching query, newest first, up to limit
	Search(query string, limit int) []Record

	// Delete removes a record and reports whether it existed
	Delete(fingerprint string) bool

	// Snapshot returns the full serializable state
	Snapshot() Snapshot

	// Restore replaces the state with the given snapshot
	Restore(snap Snapshot) error
}
