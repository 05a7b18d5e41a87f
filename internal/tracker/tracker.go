// Package tracker owns the per-event tracking state machine: it consumes one
// slot-bound snapshot per polling cycle, feeds the pace estimator, advances
// the event through its lifecycle phases, and decides when a notification
// goes out and with what content.
//
// All state mutation runs under one mutex; the caller may resolve market
// lines concurrently but must hand snapshots to Process sequentially per
// batch. Notification and audit delivery are fire-and-forget: their failures
// never roll back a transition.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoopsignal/hoopsignal/internal/decision"
	"github.com/hoopsignal/hoopsignal/internal/lines"
	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/metrics"
	"github.com/hoopsignal/hoopsignal/internal/models"
	"github.com/hoopsignal/hoopsignal/internal/notify"
	"github.com/hoopsignal/hoopsignal/internal/pace"
	"github.com/hoopsignal/hoopsignal/internal/slots"
)

const (
	// defaultMinAlertInterval throttles periodic projection alerts.
	defaultMinAlertInterval = 30 * time.Second
	// stallLimit is the number of consecutive unchanged-clock cycles in
	// periods 1-2 after which the slot is released.
	stallLimit = 8
	// timestampLayout renders alert timestamps in the display timezone.
	timestampLayout = "01/02/2006, 3:04 PM"
)

// Notifier delivers one message to all of a slot's destinations.
type Notifier interface {
	Send(ctx context.Context, slot slots.Slot, message string)
}

// Auditor records one append-only row per accepted sample.
type Auditor interface {
	Record(ctx context.Context, rec models.AuditRecord) error
}

// SlotReleaser unbinds a slot when the tracker finalizes or stalls out an
// event.
type SlotReleaser interface {
	Release(slotName string)
}

// Tracker advances tracked events through their lifecycle, one snapshot at
// a time.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*eventState

	notifier Notifier
	auditor  Auditor
	releaser SlotReleaser

	loc              *time.Location
	minAlertInterval time.Duration
	now              func() time.Time
}

// New creates a tracker. loc sets the timezone alert timestamps render in;
// nil falls back to UTC.
func New(notifier Notifier, auditor Auditor, releaser SlotReleaser, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{
		states:           make(map[string]*eventState),
		notifier:         notifier,
		auditor:          auditor,
		releaser:         releaser,
		loc:              loc,
		minAlertInterval: defaultMinAlertInterval,
		now:              time.Now,
	}
}

// Process consumes one cycle's snapshot for a slot-bound event and applies
// the per-cycle transition logic. line is the resolved market line for the
// event, or nil when every odds source came up empty.
func (t *Tracker) Process(ctx context.Context, item slots.WorkItem, line *models.MarketLine) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := item.Snapshot
	st, ok := t.states[snap.EventID]
	if !ok {
		st = &eventState{EventID: snap.EventID, Phase: PhaseReserved}
		t.states[snap.EventID] = st
	}
	if st.Phase == PhaseFinal {
		return
	}

	if err := snap.Validate(); err != nil {
		logger.Warn("skipping snapshot for event %s: %v", snap.EventID, err)
		return
	}
	st.HomeName = snap.HomeName
	st.AwayName = snap.AwayName

	homeScore, awayScore, _ := snap.ParseScore()
	totalScore := homeScore + awayScore
	clock := *snap.Clock
	stamp := clock.Stamp()

	// Period 1: slot is reserved, nothing to sample yet. The stamp is still
	// recorded so the stall policy sees clock movement.
	if clock.Period == 1 {
		if stamp == st.LastStamp {
			st.MissedCycles++
			if st.MissedCycles >= stallLimit {
				t.releaseStalled(ctx, item, st, clock)
			}
			return
		}
		st.MissedCycles = 0
		st.LastStamp = stamp
		return
	}

	if stamp == st.LastStamp {
		st.MissedCycles++
		if st.MissedCycles >= stallLimit && clock.Period <= 2 {
			t.releaseStalled(ctx, item, st, clock)
			return
		}
		// Duplicate or stalled snapshot: no sample, but the natural-end
		// check still runs so a final report is never missed when the feed
		// repeats the 0:00 reading.
		t.checkNaturalEnd(ctx, item, st, clock, homeScore, awayScore)
		return
	}
	st.MissedCycles = 0

	played := pace.ElapsedSeconds(clock.Period, clock.Minute, clock.Second)
	if played <= 0 {
		st.LastStamp = stamp
		return
	}

	homeRate := pace.Rate(homeScore, played)
	awayRate := pace.Rate(awayScore, played)
	totalRate := pace.Rate(totalScore, played)
	st.HomeSamples = append(st.HomeSamples, homeRate)
	st.AwaySamples = append(st.AwaySamples, awayRate)
	st.TotalSamples = append(st.TotalSamples, totalRate)
	metrics.SamplesAccepted.Inc()

	t.audit(ctx, st, clock, played, homeScore, awayScore, homeRate, awayRate, totalRate)

	homeRaw := pace.Round1(pace.RawProjection(homeRate))
	awayRaw := pace.Round1(pace.RawProjection(awayRate))
	totalRaw := pace.Round1(pace.RawProjection(totalRate))
	homeAvg := pace.Round1(pace.AverageProjection(st.HomeSamples))
	awayAvg := pace.Round1(pace.AverageProjection(st.AwaySamples))
	totalAvg := pace.Round1(pace.AverageProjection(st.TotalSamples))

	totalLine, homeLine, awayLine := resolveLines(line)

	decisionFired := false
	if clock.Period >= 4 && st.Decision == nil {
		t.fireDecisionWindow(ctx, item, st, clock, homeScore, awayScore,
			homeRaw, awayRaw, totalRaw, homeAvg, awayAvg, totalAvg,
			totalLine, homeLine, awayLine)
		decisionFired = true
	}

	if t.checkOverLock(ctx, item, st, totalScore) {
		return
	}
	if t.checkNaturalEnd(ctx, item, st, clock, homeScore, awayScore) {
		return
	}

	switch {
	case clock.Period >= 3 && st.Phase == PhaseSamplingSilent, clock.Period >= 3 && st.Phase == PhaseReserved:
		logger.Info("event %s reached %s, alerts live", st.EventID, clock.Label())
		st.Phase = PhaseAlerting
	case clock.Period == 2 && st.Phase == PhaseReserved:
		st.Phase = PhaseSamplingSilent
	}

	if !decisionFired && clock.Period >= 3 && t.now().Sub(st.LastAlertAt) >= t.minAlertInterval {
		t.notifier.Send(ctx, item.Slot, notify.FormatProjection(notify.ProjectionData{
			Timestamp:    t.timestamp(),
			SlotLetter:   item.Slot.Letter(),
			HomeName:     st.HomeName,
			AwayName:     st.AwayName,
			PeriodLabel:  clock.Label(),
			Minute:       clock.Minute,
			Second:       clock.Second,
			HomeScore:    homeScore,
			AwayScore:    awayScore,
			TotalScore:   totalScore,
			HomeRaw:      homeRaw,
			HomeAvg:      homeAvg,
			AwayRaw:      awayRaw,
			AwayAvg:      awayAvg,
			TotalRaw:     totalRaw,
			TotalAvg:     totalAvg,
			HomeMomentum: pace.AnalyzeMomentum(st.HomeSamples),
			AwayMomentum: pace.AnalyzeMomentum(st.AwaySamples),
			Leader:       models.ComputeLeader(homeScore, awayScore),
			HomeLine:     homeLine,
			AwayLine:     awayLine,
			TotalLine:    totalLine,
			SampleCount:  len(st.TotalSamples),
			Trend:        pace.ClassifyTrend(st.TotalSamples),
		}))
		st.LastAlertAt = t.now()
	}

	st.LastStamp = stamp
}

// fireDecisionWindow computes and emits the one-time primary and
// experimental recommendations, caching every value for later cycles.
func (t *Tracker) fireDecisionWindow(ctx context.Context, item slots.WorkItem, st *eventState,
	clock models.GameClock, homeScore, awayScore int,
	homeRaw, awayRaw, totalRaw, homeAvg, awayAvg, totalAvg float64,
	totalLine, homeLine, awayLine notify.LineValue) {

	out := &decisionOutcome{
		TotalLine: totalLine,
		HomeLine:  homeLine,
		AwayLine:  awayLine,
		TotalAvg:  totalAvg,
		HomeAvg:   homeAvg,
		AwayAvg:   awayAvg,

		TotalPrimary: verdict(totalLine, func(l float64) decision.Verdict { return decision.Primary(totalAvg, l) }),
		HomePrimary:  verdict(homeLine, func(l float64) decision.Verdict { return decision.Primary(homeAvg, l) }),
		AwayPrimary:  verdict(awayLine, func(l float64) decision.Verdict { return decision.Primary(awayAvg, l) }),

		TotalBlended: verdict(totalLine, func(l float64) decision.Verdict { return decision.Blended(totalRaw, totalAvg, l) }),
		HomeBlended:  verdict(homeLine, func(l float64) decision.Verdict { return decision.Blended(homeRaw, homeAvg, l) }),
		AwayBlended:  verdict(awayLine, func(l float64) decision.Verdict { return decision.Blended(awayRaw, awayAvg, l) }),
	}
	st.Decision = out
	st.Phase = PhasePostDecision
	metrics.DecisionWindows.Inc()
	logger.Info("decision window for event %s: total %s (avg %.1f, line %s)",
		st.EventID, out.TotalPrimary.Recommendation, totalAvg, totalLine)

	ts := t.timestamp()
	t.notifier.Send(ctx, item.Slot, notify.FormatDecisionBanner(notify.DecisionData{
		Timestamp:   ts,
		SlotLetter:  item.Slot.Letter(),
		HomeName:    st.HomeName,
		AwayName:    st.AwayName,
		PeriodLabel: clock.Label(),
		Minute:      clock.Minute,
		Second:      clock.Second,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		TotalScore:  homeScore + awayScore,
		TotalAvg:    totalAvg,
		TotalLine:   totalLine,
		TotalRec:    out.TotalPrimary.Recommendation,
		HomeAvg:     homeAvg,
		HomeLine:    homeLine,
		HomeRec:     out.HomePrimary.Recommendation,
		AwayAvg:     awayAvg,
		AwayLine:    awayLine,
		AwayRec:     out.AwayPrimary.Recommendation,
	}))
	t.notifier.Send(ctx, item.Slot, notify.FormatExperimental(notify.ExperimentalData{
		Timestamp:  ts,
		HomeName:   st.HomeName,
		AwayName:   st.AwayName,
		TotalRaw:   totalRaw,
		TotalAvg:   totalAvg,
		TotalBlend: decision.BlendedValue(totalRaw, totalAvg),
		TotalLine:  totalLine,
		TotalRec:   out.TotalBlended.Recommendation,
		HomeRaw:    homeRaw,
		HomeAvg:    homeAvg,
		HomeBlend:  decision.BlendedValue(homeRaw, homeAvg),
		HomeLine:   homeLine,
		HomeRec:    out.HomeBlended.Recommendation,
		AwayRaw:    awayRaw,
		AwayAvg:    awayAvg,
		AwayBlend:  decision.BlendedValue(awayRaw, awayAvg),
		AwayLine:   awayLine,
		AwayRec:    out.AwayBlended.Recommendation,
	}))
	st.LastAlertAt = t.now()
}

// checkOverLock finalizes early when the cached primary call was OVER and
// the running total has already passed the line; the result can no longer
// reverse.
func (t *Tracker) checkOverLock(ctx context.Context, item slots.WorkItem, st *eventState, totalScore int) bool {
	if st.Decision == nil || st.Decision.TotalPrimary.Recommendation != decision.Over {
		return false
	}
	if !st.Decision.TotalLine.Set || float64(totalScore) <= st.Decision.TotalLine.Value {
		return false
	}

	st.Phase = PhaseFinal
	logger.Info("event %s locked OVER at %d vs line %s", st.EventID, totalScore, st.Decision.TotalLine)
	t.notifier.Send(ctx, item.Slot, notify.FormatOverLocked(
		t.timestamp(), item.Slot.Letter(), st.HomeName, st.AwayName,
		totalScore, st.Decision.TotalLine.Value))
	t.releaser.Release(item.Slot.Name)
	metrics.SlotsReleased.WithLabelValues("over_locked").Inc()
	return true
}

// checkNaturalEnd finalizes at period 4, clock 0:00, score not tied. A tied
// score at 0:00 means overtime and tracking continues.
func (t *Tracker) checkNaturalEnd(ctx context.Context, item slots.WorkItem, st *eventState,
	clock models.GameClock, homeScore, awayScore int) bool {
	if clock.Period != 4 || clock.Minute != 0 || clock.Second != 0 || homeScore == awayScore {
		return false
	}

	st.Phase = PhaseFinal
	logger.Info("event %s final: %d-%d", st.EventID, homeScore, awayScore)
	t.notifier.Send(ctx, item.Slot, notify.FormatFinal(
		t.timestamp(), item.Slot.Letter(), st.HomeName, st.AwayName, homeScore, awayScore))
	t.releaser.Release(item.Slot.Name)
	metrics.SlotsReleased.WithLabelValues("final").Inc()
	return true
}

// releaseStalled drops an event whose clock has not moved for stallLimit
// cycles in the opening periods. The state is deleted so the event can be
// re-tracked if the feed recovers later.
func (t *Tracker) releaseStalled(ctx context.Context, item slots.WorkItem, st *eventState, clock models.GameClock) {
	logger.Warn("event %s stalled at %s for %d cycles, releasing slot %s",
		st.EventID, clock.Label(), st.MissedCycles, item.Slot.Name)
	t.notifier.Send(ctx, item.Slot, notify.FormatStall(clock.Label()))
	t.releaser.Release(item.Slot.Name)
	metrics.SlotsReleased.WithLabelValues("stall").Inc()
	delete(t.states, st.EventID)
}

func (t *Tracker) audit(ctx context.Context, st *eventState, clock models.GameClock,
	played, homeScore, awayScore int, homeRate, awayRate, totalRate float64) {
	if t.auditor == nil {
		return
	}
	rec := models.AuditRecord{
		ID:            uuid.NewString(),
		EventID:       st.EventID,
		HomeName:      st.HomeName,
		AwayName:      st.AwayName,
		Period:        clock.Period,
		ClockDisplay:  clock.Label() + " " + clockDisplay(clock),
		PlayedSeconds: played,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		TotalScore:    homeScore + awayScore,
		HomeRate:      pace.Round4(homeRate),
		AwayRate:      pace.Round4(awayRate),
		TotalRate:     pace.Round4(totalRate),
		HomeRaw:       pace.Round4(pace.RawProjection(homeRate)),
		HomeAvg:       pace.Round4(pace.AverageProjection(st.HomeSamples)),
		AwayRaw:       pace.Round4(pace.RawProjection(awayRate)),
		AwayAvg:       pace.Round4(pace.AverageProjection(st.AwaySamples)),
		TotalRaw:      pace.Round4(pace.RawProjection(totalRate)),
		TotalAvg:      pace.Round4(pace.AverageProjection(st.TotalSamples)),
		SampleCount:   len(st.TotalSamples),
		Timestamp:     t.now(),
	}
	if err := t.auditor.Record(ctx, rec); err != nil {
		logger.Warn("audit record failed for event %s: %v", st.EventID, err)
	}
}

// Phase reports the lifecycle phase of the given event, if tracked.
func (t *Tracker) Phase(eventID string) (Phase, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[eventID]
	if !ok {
		return "", false
	}
	return st.Phase, true
}

func (t *Tracker) timestamp() string {
	return t.now().In(t.loc).Format(timestampLayout)
}

func clockDisplay(c models.GameClock) string {
	return fmt.Sprintf("%d:%02d", c.Minute, c.Second)
}

// resolveLines converts an optional market line into display line values,
// deriving the per-side sub-totals when a line is present.
func resolveLines(line *models.MarketLine) (total, home, away notify.LineValue) {
	if line == nil {
		return notify.LineValue{}, notify.LineValue{}, notify.LineValue{}
	}
	h, a := lines.SideLines(line)
	return notify.Line(line.TotalLine), notify.Line(h), notify.Line(a)
}

// verdict applies a rule to a line when it is set, degrading to NO BET when
// the market never produced one.
func verdict(line notify.LineValue, rule func(line float64) decision.Verdict) decision.Verdict {
	if !line.Set {
		return decision.Unavailable()
	}
	return rule(line.Value)
}
