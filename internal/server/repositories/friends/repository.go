package friends

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

// Repository stores friendships and single-use invite codes.
type Repository interface {
	List(ctx context.Context, userID string) ([]*models.Friend, error)
	ListIDs(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
	CreateFriendship(ctx context.Context, id, userID, friendID string) error
	Delete(ctx context.Context, userID, friendID string) error

	CreateInvite(ctx context.Context, code, userID string, expiresAt time.Time) error
	FindValidInvite(ctx context.Context, code string) (*models.InviteCode, error)
	MarkInviteUsed(ctx context.Context, code, usedBy string) error
}
