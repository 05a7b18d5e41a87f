package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/hoopsignal/hoopsignal/internal/models"
)

var csvHeader = []string{
	"id", "timestamp", "event_id", "home_name", "away_name",
	"period", "clock", "played_seconds",
	"home_score", "away_score", "total_score",
	"home_rate", "away_rate", "total_rate",
	"home_raw", "home_avg", "away_raw", "away_avg", "total_raw", "total_avg",
	"sample_count",
}

// CSVSink appends records to one file per event, samples_<eventID>.csv
// under the configured directory. The header row is written when the file
// is created.
type CSVSink struct {
	mu  sync.Mutex
	dir string
}

// NewCSVSink creates the sink and its directory.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

func (s *CSVSink) Record(_ context.Context, rec models.AuditRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid audit record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "samples_"+rec.EventID+".csv")
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write audit header: %w", err)
		}
	}
	if err := w.Write(row(rec)); err != nil {
		return fmt.Errorf("failed to write audit row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *CSVSink) Close() error { return nil }

func row(rec models.AuditRecord) []string {
	return []string{
		rec.ID,
		rec.Timestamp.Format(time.RFC3339),
		rec.EventID,
		rec.HomeName,
		rec.AwayName,
		strconv.Itoa(rec.Period),
		rec.ClockDisplay,
		strconv.Itoa(rec.PlayedSeconds),
		strconv.Itoa(rec.HomeScore),
		strconv.Itoa(rec.AwayScore),
		strconv.Itoa(rec.TotalScore),
		f4(rec.HomeRate),
		f4(rec.AwayRate),
		f4(rec.TotalRate),
		f4(rec.HomeRaw),
		f4(rec.HomeAvg),
		f4(rec.AwayRaw),
		f4(rec.AwayAvg),
		f4(rec.TotalRaw),
		f4(rec.TotalAvg),
		strconv.Itoa(rec.SampleCount),
	}
}

func f4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
