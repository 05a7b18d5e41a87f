package tracker

import (
	"time"

	"github.com/hoopsignal/hoopsignal/internal/decision"
	"github.com/hoopsignal/hoopsignal/internal/notify"
)

// Phase is the explicit lifecycle state of a tracked event. Transitions only
// move forward; PhaseFinal is terminal.
type Phase string

const (
	// PhaseReserved means the slot is bound but the game is still in period 1.
	PhaseReserved Phase = "RESERVED"
	// PhaseSamplingSilent means samples are accumulating but no projection
	// alerts are sent yet (period 2).
	PhaseSamplingSilent Phase = "SAMPLING_SILENT"
	// PhaseAlerting means periodic projection alerts are live (period 3 on).
	PhaseAlerting Phase = "ALERTING"
	// PhasePostDecision means the one-time decision window has fired and the
	// tracker is waiting for an early lock or the end of regulation.
	PhasePostDecision Phase = "POST_DECISION"
	// PhaseFinal is terminal; the final report went out and the slot was
	// released.
	PhaseFinal Phase = "FINAL"
)

// decisionOutcome caches everything computed at the decision window so later
// cycles (early lock-in, duplicate snapshots) can reference the values as
// they stood when the recommendation was made.
type decisionOutcome struct {
	TotalLine notify.LineValue
	HomeLine  notify.LineValue
	AwayLine  notify.LineValue

	TotalAvg float64
	HomeAvg  float64
	AwayAvg  float64

	TotalPrimary decision.Verdict
	HomePrimary  decision.Verdict
	AwayPrimary  decision.Verdict

	TotalBlended decision.Verdict
	HomeBlended  decision.Verdict
	AwayBlended  decision.Verdict
}

// eventState is the per-event mutable record. Sample sequences are
// append-only; nothing ever truncates or reorders them.
type eventState struct {
	EventID  string
	HomeName string
	AwayName string

	Phase Phase

	HomeSamples  []float64
	AwaySamples  []float64
	TotalSamples []float64

	LastStamp    string
	MissedCycles int
	LastAlertAt  time.Time

	Decision *decisionOutcome
}
