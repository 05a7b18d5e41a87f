// Package feed wraps the upstream in-play sports API: one client for the
// live snapshot batch and the ordered odds-source variants the line resolver
// falls through.
//
// The upstream feed is loose with types (numbers arrive as strings and vice
// versa), so the wire structs decode through tolerant scalar types and the
// normalized domain models never see the raw shapes.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hoopsignal/hoopsignal/internal/lines"
	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/metrics"
	"github.com/hoopsignal/hoopsignal/internal/models"
)

// Config holds the upstream API settings.
type Config struct {
	BaseURL           string
	Token             string
	SportID           string
	LeagueID          string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
}

// Client talks to the upstream feed. One limiter covers both the in-play
// and odds endpoints so the combined request rate stays under the API cap.
type Client struct {
	baseURL    string
	token      string
	sportID    string
	leagueID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a feed client from config, applying defaults for
// unset timing fields.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		sportID:    cfg.SportID,
		leagueID:   cfg.LeagueID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// looseString decodes a JSON string or number into a string.
type looseString string

func (v *looseString) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*v = looseString(s)
	return nil
}

// looseInt decodes a JSON number or numeric string into an int.
type looseInt int

func (v *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		n = int(f)
	}
	*v = looseInt(n)
	return nil
}

type wireTeam struct {
	Name string `json:"name"`
}

type wireTimer struct {
	Q  looseInt `json:"q"`
	TM looseInt `json:"tm"`
	TS looseInt `json:"ts"`
}

type wireEvent struct {
	ID    looseString `json:"id"`
	Home  wireTeam    `json:"home"`
	Away  wireTeam    `json:"away"`
	SS    looseString `json:"ss"`
	Timer *wireTimer  `json:"timer"`
}

type inplayResponse struct {
	Success looseInt    `json:"success"`
	Results []wireEvent `json:"results"`
}

// FetchInplay returns the current in-play snapshot batch. Events without
// score or timer data come back inactive (empty score, nil clock) so the
// allocator can still see that they exist upstream.
func (c *Client) FetchInplay(ctx context.Context) ([]models.GameSnapshot, error) {
	query := url.Values{}
	query.Set("sport_id", c.sportID)
	if c.leagueID != "" {
		query.Set("league_id", c.leagueID)
	}

	var resp inplayResponse
	if err := c.getJSON(ctx, "/v1/events/inplay", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch in-play events: %w", err)
	}
	if resp.Success != 1 {
		return nil, fmt.Errorf("feed returned success=%d", resp.Success)
	}

	snapshots := make([]models.GameSnapshot, 0, len(resp.Results))
	for _, ev := range resp.Results {
		if ev.ID == "" {
			continue
		}
		snap := models.GameSnapshot{
			EventID:  string(ev.ID),
			HomeName: ev.Home.Name,
			AwayName: ev.Away.Name,
			Score:    string(ev.SS),
		}
		if ev.Timer != nil {
			snap.Clock = &models.GameClock{
				Period: int(ev.Timer.Q),
				Minute: int(ev.Timer.TM),
				Second: int(ev.Timer.TS),
			}
		}
		snapshots = append(snapshots, snap)
		metrics.SnapshotsSeen.Inc()
	}
	return snapshots, nil
}

// OddsSources returns the ordered fallback chain of odds providers for the
// line resolver: v1 odds, v2 odds restricted to the totals market, full v2
// odds, then the v2 summary endpoint.
func (c *Client) OddsSources() []lines.Source {
	return []lines.Source{
		&oddsSource{client: c, name: "v1-odds", path: "/v1/event/odds"},
		&oddsSource{client: c, name: "v2-odds-market3", path: "/v2/event/odds", market: "3"},
		&oddsSource{client: c, name: "v2-odds", path: "/v2/event/odds"},
		&summarySource{client: c},
	}
}

// getJSON performs one rate-limited GET with linear-backoff retries on
// transport errors and 5xx responses.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	endpoint := c.baseURL + path + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			logger.Warn("feed request %s failed (attempt %d/%d): %v", path, attempt+1, c.maxRetries+1, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("feed returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	return lastErr
}
