// Package auditlog keeps an append-only CSV trail of import lifecycle events:
// file accepted, batch processed or failed, reprocess triggered. It exists for
// after-the-fact inspection, separate from the structured process log.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp time.Time
	ImportID  string
	Action    string
	Details   string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,import_id,action,details"

const (
	numFields    = 4
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colImportID  = 1
	colAction    = 2
	colDetails   = 3
)

// Log appends and reads entries under a workspace root. A nil *Log discards
// writes, so callers need not branch when auditing is disabled.
type Log struct {
	root string
}

// New creates a Log rooted at the workspace directory.
func New(root string) *Log {
	return &Log{root: root}
}

// Record appends one event, creating the file and header if needed.
func (l *Log) Record(importID, action, details string) error {
	if l == nil {
		return nil
	}
	dir := filepath.Join(l.root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(l.root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(marshalEntry(Entry{Timestamp: time.Now().UTC(), ImportID: importID, Action: action, Details: details})); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return cw.Error()
}

// Entries returns all logged events. Returns nil if the file does not exist.
func (l *Log) Entries() ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(l.root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func marshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colImportID] = e.ImportID
	row[colAction] = e.Action
	row[colDetails] = e.Details
	return row
}

func unmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		ImportID:  record[colImportID],
		Action:    record[colAction],
		Details:   record[colDetails],
	}, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
