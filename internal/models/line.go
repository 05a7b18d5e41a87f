package models

import "errors"

// MarketLine is a normalized per-cycle sportsbook snapshot for one game.
// A nil *MarketLine means no source could produce a line this cycle; every
// consumer must handle that and degrade to NO BET rather than fail.
//
// Spread follows the handicap convention of the upstream odds feed: a
// negative spread favors the home side. The odds strings are carried
// through unmodified for display.
type MarketLine struct {
	TotalLine      float64 `json:"total_line"`
	Spread         float64 `json:"spread"`
	OverOdds       string  `json:"over_odds,omitempty"`
	UnderOdds      string  `json:"under_odds,omitempty"`
	HomeSpreadOdds string  `json:"home_spread_odds,omitempty"`
	AwaySpreadOdds string  `json:"away_spread_odds,omitempty"`
	SourceMarket   string  `json:"source_market,omitempty"`
}

// Validate checks that the line fields are plausible.
func (l *MarketLine) Validate() error {
	if l.TotalLine <= 0 {
		return errors.New("total line must be positive")
	}
	return nil
}
