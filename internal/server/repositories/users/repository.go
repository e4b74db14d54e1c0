package users

import (
	"context"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

// Repository provides durable storage for user identity records.
//
// Create must be atomic with respect to the unique constraints on email and
// the provider-subject columns: a concurrent duplicate insert returns
// common.ErrorAlreadyExists instead of a second row.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderSub(ctx context.Context, provider models.Provider, sub string) (*models.User, error)
	LinkProvider(ctx context.Context, userID string, provider models.Provider, sub string) error
	UpdateProfile(ctx context.Context, userID string, nickname *string, avatarIndex *int) error
}
