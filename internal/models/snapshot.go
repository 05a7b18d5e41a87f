// Package models defines the core domain entities for the hoopsignal application.
// These models represent live game snapshots, normalized market lines, and audit
// records. All models include built-in validation to ensure data integrity
// throughout the application.
//
// Terminology (matching the upstream feed's naming):
//   - Snapshot: one polled reading of a live game (score string + game clock).
//   - Line: the sportsbook total/spread posted for a game.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// GameClock is the period/minute/second reading attached to a snapshot.
// Period 1–4 is regulation; 5 and above are overtime segments.
type GameClock struct {
	Period int `json:"period"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// Stamp returns the composite timestamp key used for duplicate and
// staleness detection ("period-minute-second").
func (c GameClock) Stamp() string {
	return fmt.Sprintf("%d-%d-%d", c.Period, c.Minute, c.Second)
}

// Label returns the display label for the clock's period: "Q3" in
// regulation, "OT1" for the first overtime and so on.
func (c GameClock) Label() string {
	if c.Period <= 4 {
		return fmt.Sprintf("Q%d", c.Period)
	}
	return fmt.Sprintf("OT%d", c.Period-4)
}

// Validate checks that the clock fields are in range.
func (c GameClock) Validate() error {
	if c.Period < 1 {
		return errors.New("period must be at least 1")
	}
	if c.Minute < 0 || c.Minute > 59 {
		return errors.New("minute must be between 0 and 59")
	}
	if c.Second < 0 || c.Second > 59 {
		return errors.New("second must be between 0 and 59")
	}
	return nil
}

// GameSnapshot is one polled reading of a live game from the upstream feed.
// Score holds the raw "home-away" string; Clock is nil when the feed did
// not include timer data (the game is treated as inactive in that cycle).
type GameSnapshot struct {
	EventID  string     `json:"event_id"`
	HomeName string     `json:"home_name"`
	AwayName string     `json:"away_name"`
	Score    string     `json:"score"`
	Clock    *GameClock `json:"clock,omitempty"`
}

// Active reports whether the snapshot carries both a score and a clock,
// i.e. whether it can be tracked this cycle.
func (s *GameSnapshot) Active() bool {
	return s.Score != "" && s.Clock != nil
}

// ParseScore splits the "home-away" score string into its two integers.
func (s *GameSnapshot) ParseScore() (home, away int, err error) {
	parts := strings.SplitN(s.Score, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed score %q", s.Score)
	}
	home, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed home score %q: %w", parts[0], err)
	}
	away, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed away score %q: %w", parts[1], err)
	}
	if home < 0 || away < 0 {
		return 0, 0, fmt.Errorf("negative score in %q", s.Score)
	}
	return home, away, nil
}

// Validate checks that the snapshot can be processed.
func (s *GameSnapshot) Validate() error {
	if s.EventID == "" {
		return errors.New("event ID must not be empty")
	}
	if !s.Active() {
		return errors.New("snapshot has no score or clock")
	}
	if _, _, err := s.ParseScore(); err != nil {
		return err
	}
	return s.Clock.Validate()
}
