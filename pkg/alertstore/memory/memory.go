package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"go.uber.org/zap"
)

// MemoryStore implements alertstore.Store using an in-memory map guarded by a
// single mutex
type MemoryStore struct {
	records map[string]*alertstore.Record
	mutex   sync.RWMutex
}

// NewMemoryStore creates a new empty in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*alertstore.Record),
	}
}

// Upsert applies an observation to the store. When the observation requires a
// notification, last_alerted is stamped with now under the same lock so a
// concurrent ClaimDue cannot see the record as never alerted.
func (s *MemoryStore) Upsert(obs alertstore.Observation, now time.Time) (alertstore.Record, bool, error) {
	if err := obs.Validate(); err != nil {
		return alertstore.Record{}, false, err
	}
	now = now.UTC()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[obs.Fingerprint]
	if !ok {
		rec = &alertstore.Record{
			Fingerprint: obs.Fingerprint,
			Status:      obs.Status,
			FirstSeen:   now,
			LastSeen:    now,
			LastAlerted: now,
			Metadata:    copyMetadata(obs.Metadata),
		}
		if obs.Status == alertstore.StatusResolved {
			resolvedAt := now
			rec.ResolvedAt = &resolvedAt
		}
		s.records[obs.Fingerprint] = rec
		log.Debug("New fingerprint", zap.String("fingerprint", obs.Fingerprint), zap.String("status", string(obs.Status)))
		return rec.Clone(), true, nil
	}

	if now.After(rec.LastSeen) {
		rec.LastSeen = now
	}
	if len(obs.Metadata) > 0 {
		rec.Metadata = copyMetadata(obs.Metadata)
	}

	if rec.Status == obs.Status {
		return rec.Clone(), false, nil
	}

	log.Debug("Fingerprint changed status",
		zap.String("fingerprint", obs.Fingerprint),
		zap.String("from", string(rec.Status)),
		zap.String("to", string(obs.Status)))

	rec.Status = obs.Status
	if obs.Status == alertstore.StatusResolved {
		resolvedAt := now
		rec.ResolvedAt = &resolvedAt
	} else {
		rec.ResolvedAt = nil
	}
	if now.After(rec.LastAlerted) {
		rec.LastAlerted = now
	}
	return rec.Clone(), true, nil
}

// ClaimDue selects active records accepted by due and stamps them under the
// same lock so a concurrent tick cannot claim them twice
func (s *MemoryStore) ClaimDue(now time.Time, due func(alertstore.Record) bool) []alertstore.Record {
	now = now.UTC()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var claimed []alertstore.Record
	for _, rec := range s.records {
		if rec.Status != alertstore.StatusActive || !due(rec.Clone()) {
			continue
		}
		if now.After(rec.LastAlerted) {
			rec.LastAlerted = now
		}
		claimed = append(claimed, rec.Clone())
	}
	sortRecords(claimed)
	return claimed
}

// Get returns a copy of a single record
func (s *MemoryStore) Get(fingerprint string) (alertstore.Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[fingerprint]
	if !ok {
		return alertstore.Record{}, false
	}
	return rec.Clone(), true
}

// GetActive returns copies of all active records
func (s *MemoryStore) GetActive() []alertstore.Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]alertstore.Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Status == alertstore.StatusActive {
			result = append(result, rec.Clone())
		}
	}
	sortRecords(result)
	return result
}

// GetAll returns copies of every record
func (s *MemoryStore) GetAll() []alertstore.Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]alertstore.Record, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec.Clone())
	}
	sortRecords(result)
	return result
}

// Search retrieves records, optionally filtered by query, most recently seen first
func (s *MemoryStore) Search(query string, limit int) []alertstore.Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	query = strings.ToLower(query)
	var results []alertstore.Record
	for _, rec := range s.records {
		if query == "" || recordMatchesQuery(rec, query) {
			results = append(results, rec.Clone())
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].LastSeen.Equal(results[j].LastSeen) {
			return results[i].Fingerprint < results[j].Fingerprint
		}
		return results[i].LastSeen.After(results[j].LastSeen)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// recordMatchesQuery checks if a record matches the lowercased search query
func recordMatchesQuery(rec *alertstore.Record, query string) bool {
	if strings.Contains(strings.ToLower(rec.Fingerprint), query) {
		return true
	}

	// Check status in both the stored and the upstream spelling
	if strings.Contains(string(rec.Status), query) || strings.Contains(rec.Status.Upstream(), query) {
		return true
	}

	for _, value := range rec.Metadata {
		if strings.Contains(strings.ToLower(value), query) {
			return true
		}
	}

	return false
}

// Delete removes a record
func (s *MemoryStore) Delete(fingerprint string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.records[fingerprint]; !ok {
		return false
	}
	delete(s.records, fingerprint)
	log.Info("Deleted fingerprint", zap.String("fingerprint", fingerprint))
	return true
}

// Snapshot returns a deep copy of the store in its persisted form
func (s *MemoryStore) Snapshot() alertstore.Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make(map[string]alertstore.Record, len(s.records))
	for fp, rec := range s.records {
		records[fp] = rec.Clone()
	}
	return alertstore.Snapshot{
		Version: alertstore.SchemaVersion,
		Records: records,
	}
}

// Restore replaces the store contents with the snapshot
func (s *MemoryStore) Restore(snap alertstore.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	records := make(map[string]*alertstore.Record, len(snap.Records))
	for fp, rec := range snap.Records {
		r := rec.Clone()
		records[fp] = &r
	}

	s.mutex.Lock()
	s.records = records
	s.mutex.Unlock()

	log.Debug("Restored record store", zap.Int("records", len(records)))
	return nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortRecords(records []alertstore.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Fingerprint < records[j].Fingerprint
	})
}
