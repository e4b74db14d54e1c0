package sessions

import (
	"context"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

// Repository stores synced jump sessions and their individual jumps.
type Repository interface {
	UpsertSession(ctx context.Context, s *models.SyncedSession) error
	UpsertJump(ctx context.Context, j *models.SyncedJump) error
	List(ctx context.Context, userID string, limit, offset int) ([]*models.SyncedSession, int, error)
	GetByID(ctx context.Context, userID, sessionID string) (*models.SyncedSession, error)
	ListJumps(ctx context.Context, sessionID string) ([]*models.SyncedJump, error)
	SetTrackKey(ctx context.Context, userID, sessionID, key string) error
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
}
