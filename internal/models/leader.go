package models

// LeaderStatus labels which side, if either, holds a meaningful lead.
type LeaderStatus string

const (
	LeaderTied LeaderStatus = "TIED"
	LeaderHome LeaderStatus = "HOME_LEADER"
	LeaderAway LeaderStatus = "AWAY_LEADER"
)

// leaderThresholdPoints is the minimum margin before a side counts as leading.
const leaderThresholdPoints = 5

// ComputeLeader returns the leader status for the current scores. Margins
// under five points count as tied.
func ComputeLeader(homeScore, awayScore int) LeaderStatus {
	diff := homeScore - awayScore
	if diff >= leaderThresholdPoints {
		return LeaderHome
	}
	if diff <= -leaderThresholdPoints {
		return LeaderAway
	}
	return LeaderTied
}
