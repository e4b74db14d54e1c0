package models

// LeaderboardPeriod selects the aggregation window of a leaderboard query.
type LeaderboardPeriod string

const (
	PeriodWeek    LeaderboardPeriod = "week"
	PeriodSeason  LeaderboardPeriod = "season"
	PeriodAllTime LeaderboardPeriod = "alltime"
)

// Valid reports whether p is one of the supported periods.
func (p LeaderboardPeriod) Valid() bool {
	switch p {
	case PeriodWeek, PeriodSeason, PeriodAllTime:
		return true
	}
	return false
}

// LeaderboardRow is a cached per-user aggregate for one period.
type LeaderboardRow struct {
	UserID        string
	Nickname      string
	AvatarIndex   int
	TotalScore    float64
	TotalJumps    int
	BestJumpScore float64
	BestAirtimeMs int64
	SessionCount  int
}
