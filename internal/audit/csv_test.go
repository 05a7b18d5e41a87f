package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsignal/hoopsignal/internal/models"
)

func sampleRecord(id string) models.AuditRecord {
	return models.AuditRecord{
		ID:            id,
		EventID:       "ev1",
		HomeName:      "Lakers",
		AwayName:      "Heat",
		Period:        2,
		ClockDisplay:  "Q2 3:30",
		PlayedSeconds: 390,
		HomeScore:     14,
		AwayScore:     12,
		TotalScore:    26,
		HomeRate:      0.0359,
		AwayRate:      0.0308,
		TotalRate:     0.0667,
		TotalRaw:      80.0,
		TotalAvg:      78.5,
		SampleCount:   2,
		Timestamp:     time.Date(2026, 1, 15, 21, 0, 0, 0, time.UTC),
	}
}

func TestCSVSinkAppendsPerEventFile(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Record(context.Background(), sampleRecord("r1")))
	require.NoError(t, sink.Record(context.Background(), sampleRecord("r2")))

	f, err := os.Open(filepath.Join(dir, "samples_ev1.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "r2", rows[2][0])
	assert.Equal(t, "ev1", rows[1][2])
	assert.Equal(t, "0.0667", rows[1][13])
	assert.Equal(t, "26", rows[1][10])
}

func TestCSVSinkRejectsInvalidRecord(t *testing.T) {
	sink, err := NewCSVSink(t.TempDir())
	require.NoError(t, err)

	rec := sampleRecord("r1")
	rec.EventID = ""
	assert.Error(t, sink.Record(context.Background(), rec))
}

type failingSink struct{}

func (failingSink) Record(context.Context, models.AuditRecord) error { return errors.New("down") }
func (failingSink) Close() error                                     { return nil }

type countingSink struct{ n int }

func (s *countingSink) Record(context.Context, models.AuditRecord) error {
	s.n++
	return nil
}
func (s *countingSink) Close() error { return nil }

func TestFanoutIsolatesFailures(t *testing.T) {
	counting := &countingSink{}
	fanout := NewFanout(failingSink{}, counting)

	err := fanout.Record(context.Background(), sampleRecord("r1"))
	assert.NoError(t, err)
	assert.Equal(t, 1, counting.n)
}

func TestFanoutAllFailed(t *testing.T) {
	fanout := NewFanout(failingSink{}, failingSink{})
	assert.Error(t, fanout.Record(context.Background(), sampleRecord("r1")))
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, NewFanout().Record(context.Background(), sampleRecord("r1")))
}
