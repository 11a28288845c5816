package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/mimecast-cli/internal/logger"
	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

// auditPath is the audit-event endpoint, relative to the /api/v2 prefix.
const auditPath = "audit/get-audit-events"

// auditStream is the checkpoint stream name for audit exports.
const auditStream = "audit"

// Exporter pulls audit events through the pagination driver and writes
// them to NDJSON batch files.
type Exporter struct {
	client *mimecast.Client
	store  *Store
	dir    string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(client *mimecast.Client, store *Store, dir string) *Exporter {
	return &Exporter{client: client, store: store, dir: dir}
}

// Run exports all audit events newer than the stored checkpoint (or since,
// on the first run) and advances the checkpoint. It returns the number of
// events written.
func (e *Exporter) Run(ctx context.Context, since time.Time) (int, error) {
	start := since
	if position, err := e.store.Position(ctx, auditStream); err != nil {
		return 0, err
	} else if position != "" {
		t, err := time.Parse(time.RFC3339, position)
		if err != nil {
			return 0, fmt.Errorf("parse checkpoint %q: %w", position, err)
		}
		start = t
	}

	end := time.Now().UTC()
	body := map[string]any{
		"startDateTime": start.UTC().Format(time.RFC3339),
		"endDateTime":   end.Format(time.RFC3339),
	}

	logger.Debug("export: fetching audit events since %s", start.Format(time.RFC3339))

	records, err := e.client.FetchAll(ctx, auditPath, body, false)
	if err != nil {
		return 0, fmt.Errorf("fetch audit events: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	newest, err := e.writeBatch(records, end)
	if err != nil {
		return 0, err
	}

	position := newest
	if position.IsZero() {
		position = end
	}
	if err := e.store.SetPosition(ctx, auditStream, position.Format(time.RFC3339)); err != nil {
		return 0, err
	}

	return len(records), nil
}

// writeBatch writes one NDJSON file for the batch and returns the newest
// event time seen, for checkpoint advancement.
func (e *Exporter) writeBatch(records []json.RawMessage, end time.Time) (time.Time, error) {
	if err := os.MkdirAll(e.dir, 0700); err != nil {
		return time.Time{}, fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("audit-%s.ndjson", end.Format("20060102T150405Z"))
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	var newest time.Time
	for _, record := range records {
		if _, err := f.Write(append(record, '\n')); err != nil {
			return time.Time{}, fmt.Errorf("write export file: %w", err)
		}

		var meta struct {
			EventTime string `json:"eventTime"`
		}
		if err := json.Unmarshal(record, &meta); err == nil && meta.EventTime != "" {
			if t, err := time.Parse(time.RFC3339, meta.EventTime); err == nil && t.After(newest) {
				newest = t
			}
		}
	}

	logger.Info("export: wrote %d audit event(s) to %s", len(records), path)
	return newest, nil
}
