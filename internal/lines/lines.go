// Package lines derives per-side sub-totals from a posted game total and
// spread, and resolves market lines through an ordered chain of odds sources.
//
// Sub-total derivation follows a deterministic rounding rule: a pair already
// on the half-point is returned as-is, a pair of exact integers is shifted
// half a point down, and anything else is rounded independently to the
// nearest half point. The side favored by a negative spread receives the
// high sub-total.
package lines

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/models"
)

// SideTotals splits a game total into high and low sub-totals using the
// spread's magnitude. The rounding policy is applied in order: keep an exact
// half-point pair, shift an exact integer pair down by 0.5, otherwise round
// each side independently to the nearest 0.5.
func SideTotals(total, spread float64) (high, low float64) {
	s := math.Abs(spread)
	high = (total + s) / 2
	low = total - high

	highFrac := math.Mod(high, 1)
	lowFrac := math.Mod(low, 1)

	if highFrac == 0.5 && lowFrac == 0.5 {
		return high, low
	}
	if highFrac == 0 && lowFrac == 0 {
		return high - 0.5, low - 0.5
	}
	return math.Round(high*2) / 2, math.Round(low*2) / 2
}

// SideLines maps the derived sub-totals onto home and away. A negative
// spread favors the home side, which then takes the high sub-total.
func SideLines(line *models.MarketLine) (home, away float64) {
	high, low := SideTotals(line.TotalLine, line.Spread)
	if line.Spread < 0 {
		return high, low
	}
	return low, high
}

// Source is one odds provider variant in the fallback chain. Fetch returns
// a nil line without error when the source has no usable market.
type Source interface {
	Name() string
	Fetch(ctx context.Context, eventID string) (*models.MarketLine, error)
}

// Resolver resolves a market line for an event by trying each source in
// order until one yields a normalized line. An optional Redis cache fronts
// the chain; cache failures degrade to a direct fetch and are only logged.
type Resolver struct {
	sources []Source
	cache   *redis.Client
	ttl     time.Duration
}

// NewResolver creates a Resolver over the given ordered sources.
// Cache may be nil to disable caching.
func NewResolver(sources []Source, cache *redis.Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Resolver{sources: sources, cache: cache, ttl: ttl}
}

const cacheKeyPrefix = "hoopsignal:line:"

// Resolve returns the first line any source yields, or (nil, nil) when every
// source is exhausted. Per-source errors are logged and never abort the chain.
func (r *Resolver) Resolve(ctx context.Context, eventID string) (*models.MarketLine, error) {
	if line := r.cacheGet(ctx, eventID); line != nil {
		return line, nil
	}

	for _, src := range r.sources {
		line, err := src.Fetch(ctx, eventID)
		if err != nil {
			logger.Warn("line source %s failed for event %s: %v", src.Name(), eventID, err)
			continue
		}
		if line == nil {
			continue
		}
		if err := line.Validate(); err != nil {
			logger.Warn("line source %s returned invalid line for event %s: %v", src.Name(), eventID, err)
			continue
		}
		r.cacheSet(ctx, eventID, line)
		return line, nil
	}
	return nil, nil
}

func (r *Resolver) cacheGet(ctx context.Context, eventID string) *models.MarketLine {
	if r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, cacheKeyPrefix+eventID).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("line cache get failed for event %s: %v", eventID, err)
		}
		return nil
	}
	var line models.MarketLine
	if err := json.Unmarshal(raw, &line); err != nil {
		logger.Warn("line cache decode failed for event %s: %v", eventID, err)
		return nil
	}
	return &line
}

func (r *Resolver) cacheSet(ctx context.Context, eventID string, line *models.MarketLine) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(line)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKeyPrefix+eventID, raw, r.ttl).Err(); err != nil {
		logger.Warn("line cache set failed for event %s: %v", eventID, err)
	}
}
