package equipment

import (
	"context"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

// Repository stores per-user equipment ownership state.
type Repository interface {
	List(ctx context.Context, userID string) ([]*models.EquipmentItem, error)
	Get(ctx context.Context, userID, equipmentID string) (*models.EquipmentItem, error)
	Upsert(ctx context.Context, userID string, item *models.EquipmentItem) error
}
