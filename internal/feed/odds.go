package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hoopsignal/hoopsignal/internal/models"
)

// Market keys in the upstream odds payload. 18_* is the basketball market
// group; the totals market moves between keys depending on the endpoint
// variant, so normalization tries them in order.
var totalMarketKeys = []string{"18_3", "18_9", "18_6"}

const spreadMarketKey = "18_2"

// oddsRow is one raw market row. Field names and value types vary per
// endpoint, so rows stay schemaless until normalization.
type oddsRow map[string]any

type oddsResponse struct {
	Success looseInt `json:"success"`
	Results struct {
		Odds map[string][]oddsRow `json:"odds"`
	} `json:"results"`
}

// oddsSource is one of the direct odds endpoint variants.
type oddsSource struct {
	client *Client
	name   string
	path   string
	market string
}

func (s *oddsSource) Name() string { return s.name }

// Fetch returns the normalized line for the event, or nil when the endpoint
// has no usable totals market.
func (s *oddsSource) Fetch(ctx context.Context, eventID string) (*models.MarketLine, error) {
	query := url.Values{}
	query.Set("event_id", eventID)
	if s.market != "" {
		query.Set("odds_market", s.market)
	}

	var resp oddsResponse
	if err := s.client.getJSON(ctx, s.path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Success != 1 {
		return nil, fmt.Errorf("odds endpoint returned success=%d", resp.Success)
	}
	return normalizeLine(resp.Results.Odds), nil
}

type summaryResponse struct {
	Success looseInt `json:"success"`
	Results map[string]struct {
		Odds struct {
			End map[string]oddsRow `json:"end"`
		} `json:"odds"`
	} `json:"results"`
}

// summarySource is the last-resort odds provider: the per-bookmaker summary
// endpoint, using each bookmaker's closing ("end") markets.
type summarySource struct {
	client *Client
}

func (s *summarySource) Name() string { return "v2-summary" }

func (s *summarySource) Fetch(ctx context.Context, eventID string) (*models.MarketLine, error) {
	query := url.Values{}
	query.Set("event_id", eventID)

	var resp summaryResponse
	if err := s.client.getJSON(ctx, "/v2/event/odds/summary", query, &resp); err != nil {
		return nil, err
	}
	if resp.Success != 1 {
		return nil, fmt.Errorf("odds summary returned success=%d", resp.Success)
	}

	for _, book := range resp.Results {
		odds := make(map[string][]oddsRow, len(book.Odds.End))
		for key, row := range book.Odds.End {
			odds[key] = []oddsRow{row}
		}
		if line := normalizeLine(odds); line != nil {
			return line, nil
		}
	}
	return nil, nil
}

// normalizeLine turns a raw odds market map into a MarketLine. The total
// comes from the first populated totals market key, reading the row's total
// field with handicap as fallback; the spread comes from the handicap
// market, defaulting to 0 when absent. Returns nil when no positive total
// can be extracted.
func normalizeLine(odds map[string][]oddsRow) *models.MarketLine {
	line := &models.MarketLine{}

	for _, key := range totalMarketKeys {
		rows := odds[key]
		if len(rows) == 0 {
			continue
		}
		row := rows[0]
		total, ok := numberField(row, "total", "handicap")
		if !ok || total <= 0 {
			continue
		}
		line.TotalLine = total
		line.OverOdds = stringField(row, "over_od")
		line.UnderOdds = stringField(row, "under_od")
		line.SourceMarket = key
		break
	}
	if line.TotalLine <= 0 {
		return nil
	}

	if rows := odds[spreadMarketKey]; len(rows) > 0 {
		row := rows[0]
		if spread, ok := numberField(row, "handicap", "total"); ok {
			line.Spread = spread
		}
		line.HomeSpreadOdds = stringField(row, "home_od")
		line.AwaySpreadOdds = stringField(row, "away_od")
	}
	return line
}

// numberField reads the first present key as a float, accepting either JSON
// numbers or numeric strings. Multi-valued strings ("181.5,182.0") use the
// first value.
func numberField(row oddsRow, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := row[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case string:
			s := strings.TrimSpace(v)
			if i := strings.IndexByte(s, ','); i >= 0 {
				s = s[:i]
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// stringField reads a key as its display string, preserving upstream odds
// strings unmodified.
func stringField(row oddsRow, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
