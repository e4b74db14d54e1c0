package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"
)

// BoardEntry is one ranked row of a leaderboard response.
type BoardEntry struct {
	Rank     int
	Row      *models.LeaderboardRow
	IsMe     bool
	IsFriend bool
}

// Board is a ranked leaderboard slice plus the requesting user's global rank.
// MyRank is -1 when the user has no cached aggregates for the period.
type Board struct {
	Entries []*BoardEntry
	MyRank  int
}

const globalBoardSize = 50

// LeaderboardService recomputes and serves per-period score aggregates.
// The clock is injectable so period windows are testable.
type LeaderboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewLeaderboardService(db *sql.DB, m repomanager.RepositoryManager) *LeaderboardService {
	return &LeaderboardService{
		db:          db,
		repomanager: m,
		now:         time.Now,
	}
}

// weekStart returns the most recent Monday 00:00 UTC at or before now.
func weekStart(now time.Time) time.Time {
	now = now.UTC()
	offset := (int(now.Weekday()) + 6) % 7
	day := now.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// seasonStart returns Dec 1 00:00 UTC of the current season. A season runs
// Dec 1 through Nov 30, so before December it started the previous year.
func seasonStart(now time.Time) time.Time {
	now = now.UTC()
	year := now.Year()
	if now.Month() < time.December {
		year--
	}
	return time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC)
}

// periodStart returns the lower time bound of a period, nil for alltime.
func periodStart(period models.LeaderboardPeriod, now time.Time) *time.Time {
	switch period {
	case models.PeriodWeek:
		t := weekStart(now)
		return &t
	case models.PeriodSeason:
		t := seasonStart(now)
		return &t
	}
	return nil
}

// RefreshAll recomputes the user's cached aggregates for every period.
func (s *LeaderboardService) RefreshAll(ctx context.Context, userID string) error {
	repo := s.repomanager.Leaderboard(s.db)
	now := s.now()

	for _, period := range []models.LeaderboardPeriod{models.PeriodWeek, models.PeriodSeason, models.PeriodAllTime} {
		if err := repo.RefreshPeriod(ctx, userID, period, periodStart(period, now)); err != nil {
			return fmt.Errorf("error refreshing %s leaderboard: %v", period, err)
		}
	}
	return nil
}

// FriendBoard ranks the user and their friends for a period.
func (s *LeaderboardService) FriendBoard(ctx context.Context, userID string, period models.LeaderboardPeriod) (*Board, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: invalid period, use: week, season, alltime", common.ErrorValidation)
	}

	rows, err := s.repomanager.Leaderboard(s.db).FriendBoard(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	board := &Board{MyRank: -1}
	for i, row := range rows {
		isMe := row.UserID == userID
		if isMe {
			board.MyRank = i + 1
		}
		board.Entries = append(board.Entries, &BoardEntry{
			Rank:     i + 1,
			Row:      row,
			IsMe:     isMe,
			IsFriend: !isMe,
		})
	}
	return board, nil
}

// GlobalBoard returns the top entries for a period with friend flags. When
// the user falls outside the top, MyRank still carries their global rank.
func (s *LeaderboardService) GlobalBoard(ctx context.Context, userID string, period models.LeaderboardPeriod) (*Board, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: invalid period, use: week, season, alltime", common.ErrorValidation)
	}

	repo := s.repomanager.Leaderboard(s.db)
	rows, err := repo.GlobalBoard(ctx, period, globalBoardSize)
	if err != nil {
		return nil, err
	}

	friendIDs, err := s.repomanager.Friends(s.db).ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	friendSet := make(map[string]bool, len(friendIDs))
	for _, id := range friendIDs {
		friendSet[id] = true
	}

	board := &Board{MyRank: -1}
	for i, row := range rows {
		isMe := row.UserID == userID
		if isMe {
			board.MyRank = i + 1
		}
		board.Entries = append(board.Entries, &BoardEntry{
			Rank:     i + 1,
			Row:      row,
			IsMe:     isMe,
			IsFriend: friendSet[row.UserID],
		})
	}

	if board.MyRank == -1 {
		rank, err := repo.UserRank(ctx, userID, period)
		if err != nil {
			return nil, err
		}
		board.MyRank = rank
	}
	return board, nil
}
