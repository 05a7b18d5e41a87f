package models

import (
	"errors"
	"time"
)

// AuditRecord is one append-only row emitted per accepted sample, carrying
// the full set of computed rates and projections for that cycle. Audit
// delivery is best-effort and must never influence tracking state.
type AuditRecord struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	HomeName      string    `json:"home_name"`
	AwayName      string    `json:"away_name"`
	Period        int       `json:"period"`
	ClockDisplay  string    `json:"clock"`
	PlayedSeconds int       `json:"played_seconds"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	TotalScore    int       `json:"total_score"`
	HomeRate      float64   `json:"home_rate"`
	AwayRate      float64   `json:"away_rate"`
	TotalRate     float64   `json:"total_rate"`
	HomeRaw       float64   `json:"home_raw"`
	HomeAvg       float64   `json:"home_avg"`
	AwayRaw       float64   `json:"away_raw"`
	AwayAvg       float64   `json:"away_avg"`
	TotalRaw      float64   `json:"total_raw"`
	TotalAvg      float64   `json:"total_avg"`
	SampleCount   int       `json:"sample_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate checks that the record identifies an event and a sample.
func (r *AuditRecord) Validate() error {
	if r.ID == "" {
		return errors.New("audit record ID must not be empty")
	}
	if r.EventID == "" {
		return errors.New("event ID must not be empty")
	}
	if r.PlayedSeconds <= 0 {
		return errors.New("played seconds must be positive")
	}
	if r.SampleCount < 1 {
		return errors.New("sample count must be at least 1")
	}
	return nil
}
