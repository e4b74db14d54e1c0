package leaderboard

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

// Repository maintains the per-user, per-period leaderboard cache and serves
// board queries from it.
type Repository interface {
	RefreshPeriod(ctx context.Context, userID string, period models.LeaderboardPeriod, since *time.Time) error
	FriendBoard(ctx context.Context, userID string, period models.LeaderboardPeriod) ([]*models.LeaderboardRow, error)
	GlobalBoard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardRow, error)
	UserRank(ctx context.Context, userID string, period models.LeaderboardPeriod) (int, error)
}
