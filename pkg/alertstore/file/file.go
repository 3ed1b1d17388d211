package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/OpenFero/alertrelay/pkg/alertstore"
	log "github.com/OpenFero/alertrelay/pkg/logging"
	"github.com/OpenFero/alertrelay/pkg/metadata"
	"go.uber.org/zap"
)

// PersistenceError reports a failed snapshot write
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SnapshotSource is anything that can produce a full snapshot
type SnapshotSource interface {
	Snapshot() alertstore.Snapshot
}

// Writer persists snapshots to a single file using write-then-rename
type Writer struct {
	path  string
	mutex sync.Mutex
}

// NewWriter creates a writer for the given snapshot path
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the snapshot file path
func (w *Writer) Path() string {
	return w.path
}

// Flush takes a snapshot from src and writes it. The snapshot is taken while
// holding the writer lock so concurrent flushes always land newest last.
func (w *Writer) Flush(src SnapshotSource) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.write(src.Snapshot())
}

func (w *Writer) write(snap alertstore.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return w.fail("marshal", err)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return w.fail("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return w.fail("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return w.fail("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return w.fail("close temp file", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return w.fail("rename", err)
	}
	syncDir(dir)

	log.Debug("Persisted snapshot", zap.String("path", w.path), zap.Int("records", len(snap.Records)))
	return nil
}

func (w *Writer) fail(op string, err error) error {
	metadata.PersistenceFailuresTotal.Inc()
	return &PersistenceError{Path: w.path, Op: op, Err: err}
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// Load reads a snapshot from path. A missing file yields an empty snapshot;
// anything that does not decode strictly into the current schema is an error.
func Load(path string) (alertstore.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("Snapshot file not found, starting with an empty store", zap.String("path", path))
		return alertstore.Snapshot{
			Version: alertstore.SchemaVersion,
			Records: map[string]alertstore.Record{},
		}, nil
	}
	if err != nil {
		return alertstore.Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return alertstore.Snapshot{}, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return snap, nil
}

// requiredRecordFields must be present and non-null in every persisted record.
// resolved_at is the only optional field.
var requiredRecordFields = []string{"fingerprint", "status", "first_seen", "last_seen", "last_alerted", "metadata"}

// rawSnapshot defers record decoding so missing fields can be detected
type rawSnapshot struct {
	Version int                        `json:"version"`
	Records map[string]json.RawMessage `json:"records"`
}

// Decode strictly decodes and validates a snapshot. Unknown fields and
// missing record fields are both errors.
func Decode(r io.Reader) (alertstore.Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var raw rawSnapshot
	if err := dec.Decode(&raw); err != nil {
		return alertstore.Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return alertstore.Snapshot{}, errors.New("decode: trailing data after snapshot")
	}

	snap := alertstore.Snapshot{Version: raw.Version}
	if raw.Records != nil {
		snap.Records = make(map[string]alertstore.Record, len(raw.Records))
		for key, data := range raw.Records {
			rec, err := decodeRecord(data)
			if err != nil {
				return alertstore.Snapshot{}, fmt.Errorf("decode record %q: %w", key, err)
			}
			snap.Records[key] = rec
		}
	}
	if err := snap.Validate(); err != nil {
		return alertstore.Snapshot{}, err
	}
	return snap, nil
}

func decodeRecord(data json.RawMessage) (alertstore.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return alertstore.Record{}, err
	}
	for _, name := range requiredRecordFields {
		value, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return alertstore.Record{}, fmt.Errorf("missing field %q", name)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec alertstore.Record
	if err := dec.Decode(&rec); err != nil {
		return alertstore.Record{}, err
	}
	return rec, nil
}
