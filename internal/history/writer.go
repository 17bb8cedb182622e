// Package history keeps append-only archives of pipeline runs on disk. It is
// never read back by ingestion.
package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

const snapshotLayout = "20060102_150405"

// Writer stores one raw JSON snapshot file per run under Dir and, when
// SummaryPath is set, appends canonical records to a CSV file.
type Writer struct {
	dir         string
	summaryPath string
}

// NewWriter creates a Writer. summaryPath may be empty.
func NewWriter(dir, summaryPath string) *Writer {
	return &Writer{dir: dir, summaryPath: summaryPath}
}

// SnapshotName returns the file name used for a snapshot taken at ts.
func SnapshotName(ts time.Time) string {
	return "raw_weather_" + ts.UTC().Format(snapshotLayout) + ".json"
}

// WriteSnapshot serializes payloads as an indented JSON array into a new file
// named after ts. An existing snapshot is never overwritten.
func (w *Writer) WriteSnapshot(ts time.Time, payloads []weather.RawPayload) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}

	path := filepath.Join(w.dir, SnapshotName(ts))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(payloads); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}

	return path, nil
}

var summaryHeader = []string{"city", "temperature", "humidity", "observed_at"}

// AppendSummary appends records to the CSV summary, writing the header when
// the file is new. It is a no-op when no summary path is configured.
func (w *Writer) AppendSummary(records []weather.Record) error {
	if w.summaryPath == "" || len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.summaryPath), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	f, err := os.OpenFile(w.summaryPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat summary: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(summaryHeader); err != nil {
			return fmt.Errorf("write summary header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			r.City,
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.Itoa(r.Humidity),
			r.ObservedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
