package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsignal/hoopsignal/internal/models"
	"github.com/hoopsignal/hoopsignal/internal/slots"
)

type fakeNotifier struct {
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, _ slots.Slot, message string) {
	f.msgs = append(f.msgs, message)
}

type fakeReleaser struct {
	released []string
}

func (f *fakeReleaser) Release(name string) {
	f.released = append(f.released, name)
}

type fakeAuditor struct {
	recs []models.AuditRecord
}

func (f *fakeAuditor) Record(_ context.Context, rec models.AuditRecord) error {
	f.recs = append(f.recs, rec)
	return nil
}

func newTestTracker() (*Tracker, *fakeNotifier, *fakeReleaser, *fakeAuditor, *time.Time) {
	notifier := &fakeNotifier{}
	releaser := &fakeReleaser{}
	auditor := &fakeAuditor{}
	tr := New(notifier, auditor, releaser, time.UTC)

	now := time.Date(2026, 1, 15, 21, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, notifier, releaser, auditor, &now
}

func item(eventID, score string, period, minute, second int) slots.WorkItem {
	return slots.WorkItem{
		Snapshot: models.GameSnapshot{
			EventID:  eventID,
			HomeName: "Lakers",
			AwayName: "Heat",
			Score:    score,
			Clock:    &models.GameClock{Period: period, Minute: minute, Second: second},
		},
		Slot: slots.Slot{Name: "gameA", Enabled: true},
	}
}

func TestDecisionWindowFiresOnceWithOver(t *testing.T) {
	tr, notifier, _, _, _ := newTestTracker()
	ctx := context.Background()

	// Q4 4:00, 960s played, total 173 -> avg projection 216.3 vs line 210.
	line := &models.MarketLine{TotalLine: 210, Spread: -4}
	tr.Process(ctx, item("ev1", "90-83", 4, 4, 0), line)

	phase, ok := tr.Phase("ev1")
	require.True(t, ok)
	assert.Equal(t, PhasePostDecision, phase)

	require.Len(t, notifier.msgs, 2)
	assert.Contains(t, notifier.msgs[0], "BETTING DECISION WINDOW")
	assert.Contains(t, notifier.msgs[0], "REC: OVER 210 ✅")
	assert.Contains(t, notifier.msgs[1], "EXPERIMENTAL BLENDED PROJECTION")

	// Second Q4 cycle must not fire a second window.
	tr.Process(ctx, item("ev1", "92-85", 4, 3, 40), line)
	for _, msg := range notifier.msgs[2:] {
		assert.NotContains(t, msg, "BETTING DECISION WINDOW")
	}
}

func TestDecisionWindowWithoutLineDegradesToNoBet(t *testing.T) {
	tr, notifier, _, _, _ := newTestTracker()

	tr.Process(context.Background(), item("ev1", "90-83", 4, 4, 0), nil)

	require.NotEmpty(t, notifier.msgs)
	assert.Contains(t, notifier.msgs[0], "Line: **N/A**")
	assert.Contains(t, notifier.msgs[0], "REC: NO BET")
}

func TestNaturalEndFinalizes(t *testing.T) {
	tr, notifier, releaser, _, _ := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "95-92", 4, 1, 30), nil)
	tr.Process(ctx, item("ev1", "101-97", 4, 0, 0), nil)

	phase, ok := tr.Phase("ev1")
	require.True(t, ok)
	assert.Equal(t, PhaseFinal, phase)
	assert.Equal(t, []string{"gameA"}, releaser.released)
	assert.Contains(t, notifier.msgs[len(notifier.msgs)-1], "FINAL: 101-97 (Total: 198)")

	// Terminal: a later snapshot for the same event is a no-op.
	sent := len(notifier.msgs)
	tr.Process(ctx, item("ev1", "101-97", 4, 0, 0), nil)
	assert.Len(t, notifier.msgs, sent)
	assert.Equal(t, []string{"gameA"}, releaser.released)
}

func TestTiedScoreAtZeroKeepsTracking(t *testing.T) {
	tr, _, releaser, _, _ := newTestTracker()

	tr.Process(context.Background(), item("ev1", "99-99", 4, 0, 0), nil)

	phase, ok := tr.Phase("ev1")
	require.True(t, ok)
	assert.NotEqual(t, PhaseFinal, phase)
	assert.Empty(t, releaser.released)
}

func TestNaturalEndOnDuplicateSnapshot(t *testing.T) {
	tr, notifier, releaser, _, _ := newTestTracker()
	ctx := context.Background()

	// The 0:00 reading arrives, then the feed repeats it. The repeat must
	// still produce the final report if the first pass somehow did not.
	tr.Process(ctx, item("ev1", "95-92", 4, 1, 30), nil)
	tr.Process(ctx, item("ev1", "101-97", 4, 0, 0), nil)
	tr.Process(ctx, item("ev1", "101-97", 4, 0, 0), nil)

	finals := 0
	for _, msg := range notifier.msgs {
		if strings.Contains(msg, "🏁 **FINAL**") {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
	assert.Equal(t, []string{"gameA"}, releaser.released)
}

func TestEarlyOverLock(t *testing.T) {
	tr, notifier, releaser, _, _ := newTestTracker()
	ctx := context.Background()

	line := &models.MarketLine{TotalLine: 210, Spread: -4}
	tr.Process(ctx, item("ev1", "90-83", 4, 4, 0), line)
	tr.Process(ctx, item("ev1", "110-105", 4, 2, 0), line)

	phase, ok := tr.Phase("ev1")
	require.True(t, ok)
	assert.Equal(t, PhaseFinal, phase)
	assert.Equal(t, []string{"gameA"}, releaser.released)
	assert.Contains(t, notifier.msgs[len(notifier.msgs)-1], "OVER LOCKED")
	assert.Contains(t, notifier.msgs[len(notifier.msgs)-1], "Current: 215 > Line: 210")
}

func TestStallReleasesSlot(t *testing.T) {
	tr, notifier, releaser, _, _ := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)
	for i := 0; i < 8; i++ {
		tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)
	}

	assert.Equal(t, []string{"gameA"}, releaser.released)
	assert.Contains(t, notifier.msgs[len(notifier.msgs)-1], "Game stalled")

	// State was dropped, so the event can be re-tracked later.
	_, ok := tr.Phase("ev1")
	assert.False(t, ok)
}

func TestDuplicateSnapshotAddsNoSample(t *testing.T) {
	tr, _, _, auditor, _ := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)
	tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)

	tr.mu.Lock()
	st := tr.states["ev1"]
	tr.mu.Unlock()
	require.NotNil(t, st)
	assert.Len(t, st.TotalSamples, 1)
	assert.Len(t, auditor.recs, 1)
}

func TestSilentThroughSecondPeriod(t *testing.T) {
	tr, notifier, _, _, _ := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)
	tr.Process(ctx, item("ev1", "14-12", 2, 3, 30), nil)
	assert.Empty(t, notifier.msgs)

	phase, _ := tr.Phase("ev1")
	assert.Equal(t, PhaseSamplingSilent, phase)
}

func TestAlertingStartsInThirdPeriod(t *testing.T) {
	tr, notifier, _, _, now := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "30-28", 2, 1, 0), nil)
	tr.Process(ctx, item("ev1", "40-36", 3, 4, 0), nil)

	phase, _ := tr.Phase("ev1")
	assert.Equal(t, PhaseAlerting, phase)
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "PROJECTIONS")

	// Inside the throttle window: clock moved, but no second alert.
	*now = now.Add(10 * time.Second)
	tr.Process(ctx, item("ev1", "42-38", 3, 3, 40), nil)
	assert.Len(t, notifier.msgs, 1)

	// Past the throttle window the next alert goes out.
	*now = now.Add(30 * time.Second)
	tr.Process(ctx, item("ev1", "44-40", 3, 3, 20), nil)
	assert.Len(t, notifier.msgs, 2)
}

func TestPeriodOneOnlyRecordsStamp(t *testing.T) {
	tr, notifier, _, auditor, _ := newTestTracker()

	tr.Process(context.Background(), item("ev1", "4-2", 1, 3, 0), nil)

	phase, ok := tr.Phase("ev1")
	require.True(t, ok)
	assert.Equal(t, PhaseReserved, phase)
	assert.Empty(t, notifier.msgs)
	assert.Empty(t, auditor.recs)
}

func TestAuditRecordPerAcceptedSample(t *testing.T) {
	tr, _, _, auditor, _ := newTestTracker()
	ctx := context.Background()

	tr.Process(ctx, item("ev1", "10-8", 2, 4, 0), nil)
	tr.Process(ctx, item("ev1", "14-12", 2, 3, 30), nil)

	require.Len(t, auditor.recs, 2)
	rec := auditor.recs[1]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "ev1", rec.EventID)
	assert.Equal(t, 390, rec.PlayedSeconds)
	assert.Equal(t, 26, rec.TotalScore)
	assert.Equal(t, 2, rec.SampleCount)
	assert.InDelta(t, 26.0/390.0, rec.TotalRate, 0.0001)
}
