// Package notify delivers destination-addressed alert payloads and formats
// tracker output into the message bodies sent to those destinations.
//
// Delivery is fire-and-forget relative to tracking: a failed destination is
// logged and counted, never propagated back into the state machine.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hoopsignal/hoopsignal/internal/decision"
	"github.com/hoopsignal/hoopsignal/internal/models"
	"github.com/hoopsignal/hoopsignal/internal/pace"
)

var divider = strings.Repeat("━", 24)

// LineValue is an optional market line for display. The zero value renders
// as "N/A" everywhere a line or diff would appear.
type LineValue struct {
	Set   bool
	Value float64
}

// Line wraps a resolved line value.
func Line(v float64) LineValue {
	return LineValue{Set: true, Value: v}
}

func (l LineValue) String() string {
	if !l.Set {
		return "N/A"
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64)
}

// DiffFrom renders the signed gap between a projection and this line, or
// "N/A" when the line is absent.
func (l LineValue) DiffFrom(projection float64) string {
	if !l.Set {
		return "N/A"
	}
	return signed1(projection - l.Value)
}

func signed1(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func fmt1(v float64) string {
	return strconv.FormatFloat(pace.Round1(v), 'f', -1, 64)
}

// recSuffix renders "REC: OVER 210.5 ✅" style fragments; NO BET carries
// neither the line nor the check mark.
func recSuffix(rec decision.Recommendation, line LineValue) string {
	if rec == decision.NoBet {
		return string(rec)
	}
	return fmt.Sprintf("%s %s ✅", rec, line)
}

// FormatMomentum maps a momentum label to its display form.
func FormatMomentum(m pace.Momentum) string {
	switch m {
	case pace.MomentumOnFire:
		return "🔥 ON FIRE!!"
	case pace.MomentumHeatingUp:
		return "⚡ HEATING UP"
	case pace.MomentumCoolingOff:
		return "❄️ COOLING OFF"
	case pace.MomentumSlowingDown:
		return "📉 SLOWING DOWN"
	case pace.MomentumSteadyPace:
		return "➡️ STEADY PACE"
	default:
		return "📊 INSUFFICIENT DATA"
	}
}

// FormatTrend maps a pace trend label to its display form.
func FormatTrend(tr pace.Trend) string {
	switch tr {
	case pace.TrendStrong:
		return "✅ **STRONG**"
	case pace.TrendReliable:
		return "✅ **RELIABLE**"
	case pace.TrendCaution:
		return "⚠️ **CAUTION**"
	case pace.TrendRisky:
		return "❌ **RISKY**"
	default:
		return "Not enough data"
	}
}

// FormatReservation is the one-time alert sent when a slot claims a game.
func FormatReservation(homeName, awayName, slotLetter string) string {
	return fmt.Sprintf(
		"🟢 **Game Reserved for Tracking!** (Q1)\n\n"+
			"**%s vs. %s** [Game %s]\n\n"+
			"⏳ Slot locked. Waiting for Q2 to begin sampling...\n"+
			"🚨 Projection alerts will start in Q3.\n\n%s",
		homeName, awayName, slotLetter, divider)
}

// FormatStall is sent when a slot is released for a stalled game.
func FormatStall(periodLabel string) string {
	return fmt.Sprintf("⚠️ Game stalled (%s). Releasing slot.", periodLabel)
}

// FormatFinal is the terminal report sent at end of regulation.
func FormatFinal(timestamp, slotLetter, homeName, awayName string, homeScore, awayScore int) string {
	return fmt.Sprintf(
		"⏰ **%s**\n\n"+
			"🏁 **FINAL** [Game %s]\n\n"+
			"**%s vs. %s**\n"+
			"FINAL: %d-%d (Total: %d)\n%s",
		timestamp, slotLetter, homeName, awayName, homeScore, awayScore, homeScore+awayScore, divider)
}

// FormatOverLocked is sent when the running total has already passed the
// cached OVER line and the result can no longer reverse.
func FormatOverLocked(timestamp, slotLetter, homeName, awayName string, totalScore int, line float64) string {
	return fmt.Sprintf(
		"⏰ **%s**\n\n"+
			"✅ **OVER LOCKED** [Game %s]\n\n"+
			"**%s vs. %s**\n"+
			"Current: %d > Line: %s\n\n"+
			"Winner! 🎉\n%s",
		timestamp, slotLetter, homeName, awayName, totalScore,
		strconv.FormatFloat(line, 'f', -1, 64), divider)
}

// DecisionData carries everything the decision-window banner displays.
type DecisionData struct {
	Timestamp  string
	SlotLetter string
	HomeName   string
	AwayName   string

	PeriodLabel string
	Minute      int
	Second      int

	HomeScore  int
	AwayScore  int
	TotalScore int

	TotalAvg  float64
	TotalLine LineValue
	TotalRec  decision.Recommendation

	HomeAvg  float64
	HomeLine LineValue
	HomeRec  decision.Recommendation

	AwayAvg  float64
	AwayLine LineValue
	AwayRec  decision.Recommendation
}

// FormatDecisionBanner is the one-time primary recommendation alert.
func FormatDecisionBanner(d DecisionData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ **%s**\n\n", d.Timestamp)
	b.WriteString("🎯🚨 **BETTING DECISION WINDOW** 🚨🎯\n\n")
	fmt.Fprintf(&b, "**%s vs. %s** [Game %s]\n", d.HomeName, d.AwayName, d.SlotLetter)
	fmt.Fprintf(&b, "⏱️ %s, %d:%02d | 📊 %d (%d-%d)\n\n",
		d.PeriodLabel, d.Minute, d.Second, d.TotalScore, d.HomeScore, d.AwayScore)
	b.WriteString("🏁 **FINAL CALL: Place wager now!**\n\n")
	b.WriteString(divider + "\n\n")

	fmt.Fprintf(&b, "💰 **GAME TOTAL (%d)**\n\n", d.TotalScore)
	fmt.Fprintf(&b, "Avg: **%s** | Line: **%s**\n", fmt1(d.TotalAvg), d.TotalLine)
	fmt.Fprintf(&b, "Diff: %s pts | 🎯 **REC: %s**\n\n",
		d.TotalLine.DiffFrom(d.TotalAvg), recSuffix(d.TotalRec, d.TotalLine))
	b.WriteString(divider + "\n\n")

	b.WriteString("💰 **TEAM TOTALS**\n\n")
	if d.HomeLine.Set && d.AwayLine.Set {
		fmt.Fprintf(&b, "**%s** (%d) | Line: **%s** | Avg: **%s**\n",
			d.HomeName, d.HomeScore, d.HomeLine, fmt1(d.HomeAvg))
		fmt.Fprintf(&b, "Diff: %s | 🎯 **REC: %s**\n\n",
			d.HomeLine.DiffFrom(d.HomeAvg), recSuffix(d.HomeRec, d.HomeLine))
		fmt.Fprintf(&b, "**%s** (%d) | Line: **%s** | Avg: **%s**\n",
			d.AwayName, d.AwayScore, d.AwayLine, fmt1(d.AwayAvg))
		fmt.Fprintf(&b, "Diff: %s | 🎯 **REC: %s**\n\n",
			d.AwayLine.DiffFrom(d.AwayAvg), recSuffix(d.AwayRec, d.AwayLine))
	} else {
		b.WriteString("No team total lines available.\n\n")
	}
	b.WriteString(divider + "\n")
	return b.String()
}

// ExperimentalData carries the blended-variant alert fields.
type ExperimentalData struct {
	Timestamp string
	HomeName  string
	AwayName  string

	TotalRaw   float64
	TotalAvg   float64
	TotalBlend float64
	TotalLine  LineValue
	TotalRec   decision.Recommendation

	HomeRaw   float64
	HomeAvg   float64
	HomeBlend float64
	HomeLine  LineValue
	HomeRec   decision.Recommendation

	AwayRaw   float64
	AwayAvg   float64
	AwayBlend float64
	AwayLine  LineValue
	AwayRec   decision.Recommendation
}

// FormatExperimental is the one-time blended-weighting variant alert.
func FormatExperimental(d ExperimentalData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ **%s**\n\n", d.Timestamp)
	b.WriteString("🧪 **EXPERIMENTAL BLENDED PROJECTION** (⚠️ Beta)\n\n")
	fmt.Fprintf(&b, "**TOTAL:** Raw %s | Avg %s | Blend %s | Line %s | Diff %s | 🎯 **BET %s**\n\n",
		fmt1(d.TotalRaw), fmt1(d.TotalAvg), fmt1(d.TotalBlend), d.TotalLine,
		d.TotalLine.DiffFrom(d.TotalBlend), recSuffix(d.TotalRec, d.TotalLine))
	fmt.Fprintf(&b, "**%s:** Raw %s | Avg %s | Blend %s | Line %s | 🎯 **BET %s**\n\n",
		d.HomeName, fmt1(d.HomeRaw), fmt1(d.HomeAvg), fmt1(d.HomeBlend), d.HomeLine,
		recSuffix(d.HomeRec, d.HomeLine))
	fmt.Fprintf(&b, "**%s:** Raw %s | Avg %s | Blend %s | Line %s | 🎯 **BET %s**\n\n",
		d.AwayName, fmt1(d.AwayRaw), fmt1(d.AwayAvg), fmt1(d.AwayBlend), d.AwayLine,
		recSuffix(d.AwayRec, d.AwayLine))
	b.WriteString(divider + "\n")
	return b.String()
}

// ProjectionData carries the periodic projection alert fields.
type ProjectionData struct {
	Timestamp  string
	SlotLetter string
	HomeName   string
	AwayName   string

	PeriodLabel string
	Minute      int
	Second      int

	HomeScore  int
	AwayScore  int
	TotalScore int

	HomeRaw  float64
	HomeAvg  float64
	AwayRaw  float64
	AwayAvg  float64
	TotalRaw float64
	TotalAvg float64

	HomeMomentum pace.Momentum
	AwayMomentum pace.Momentum
	Leader       models.LeaderStatus

	HomeLine  LineValue
	AwayLine  LineValue
	TotalLine LineValue

	SampleCount int
	Trend       pace.Trend
}

func leaderLabel(leader models.LeaderStatus, side models.LeaderStatus) string {
	switch leader {
	case side:
		return "| 👑 LEADER"
	case models.LeaderTied:
		return ""
	default:
		return "| 🎯 UNDERDOG"
	}
}

// FormatProjection is the periodic (rate-limited) projection alert.
func FormatProjection(d ProjectionData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ **%s**\n\n", d.Timestamp)
	fmt.Fprintf(&b, "**%s vs. %s** [Game %s]\n", d.HomeName, d.AwayName, d.SlotLetter)
	fmt.Fprintf(&b, "⏱️ %s, %d:%02d | 📊 %d (%d-%d)\n\n",
		d.PeriodLabel, d.Minute, d.Second, d.TotalScore, d.HomeScore, d.AwayScore)
	b.WriteString(divider + "\n\n")
	b.WriteString("📊 **PROJECTIONS**\n\n")

	fmt.Fprintf(&b, "**%s** (%d) %s %s\n", d.HomeName, d.HomeScore,
		FormatMomentum(d.HomeMomentum), leaderLabel(d.Leader, models.LeaderHome))
	fmt.Fprintf(&b, "Raw: %s | Avg: **%s**\n", fmt1(d.HomeRaw), fmt1(d.HomeAvg))
	fmt.Fprintf(&b, "Line: **%s** | Diff: %s\n\n", d.HomeLine, d.HomeLine.DiffFrom(d.HomeAvg))

	fmt.Fprintf(&b, "**%s** (%d) %s %s\n", d.AwayName, d.AwayScore,
		FormatMomentum(d.AwayMomentum), leaderLabel(d.Leader, models.LeaderAway))
	fmt.Fprintf(&b, "Raw: %s | Avg: **%s**\n", fmt1(d.AwayRaw), fmt1(d.AwayAvg))
	fmt.Fprintf(&b, "Line: **%s** | Diff: %s\n\n", d.AwayLine, d.AwayLine.DiffFrom(d.AwayAvg))

	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "💰 **GAME TOTAL (%d)**\n\n", d.TotalScore)
	fmt.Fprintf(&b, "Raw: %s | Avg: **%s**\n", fmt1(d.TotalRaw), fmt1(d.TotalAvg))
	fmt.Fprintf(&b, "Line: **%s** | Diff: %s pts\n\n", d.TotalLine, d.TotalLine.DiffFrom(d.TotalAvg))
	fmt.Fprintf(&b, "Samples: %d", d.SampleCount)
	if d.SampleCount >= 5 {
		fmt.Fprintf(&b, " | **Reliability: %s**", FormatTrend(d.Trend))
	}
	b.WriteString("\n\n" + divider + "\n")
	return b.String()
}
