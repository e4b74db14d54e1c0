package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"
)

// maxEquipmentBatch caps one bulk sync from the client.
const maxEquipmentBatch = 50

var equipmentIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// EquipmentState is the client-supplied state for one equipment item.
type EquipmentState struct {
	Owned   bool
	ShopURL *string
}

// EquipmentPatch carries partial changes to one item. ShopURLSet
// distinguishes "clear the link" from "leave it alone": the client may send
// an explicit null.
type EquipmentPatch struct {
	Owned      *bool
	ShopURL    *string
	ShopURLSet bool
}

// EquipmentService keeps the user's gear checklist in sync with the client.
type EquipmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEquipmentService(db *sql.DB, m repomanager.RepositoryManager) *EquipmentService {
	return &EquipmentService{db: db, repomanager: m}
}

// List returns all equipment state the user has stored.
func (s *EquipmentService) List(ctx context.Context, userID string) ([]*models.EquipmentItem, error) {
	return s.repomanager.Equipment(s.db).List(ctx, userID)
}

// BulkUpsert replaces the stored state for every item in one client sync.
// All rows are written in a single transaction so a failed sync leaves the
// checklist untouched.
func (s *EquipmentService) BulkUpsert(ctx context.Context, userID string, items map[string]EquipmentState) (int, error) {
	if len(items) > maxEquipmentBatch {
		return 0, fmt.Errorf("%w: too many items (max %d)", common.ErrorValidation, maxEquipmentBatch)
	}
	for id := range items {
		if !equipmentIDPattern.MatchString(id) {
			return 0, fmt.Errorf("%w: invalid equipment id %q", common.ErrorValidation, id)
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Equipment(tx)
		for id, state := range items {
			item := &models.EquipmentItem{
				EquipmentID: id,
				Owned:       state.Owned,
				ShopURL:     state.ShopURL,
			}
			if err := repo.Upsert(ctx, userID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Patch merges partial changes into one item, creating it with defaults when
// the user has no stored state for it yet.
func (s *EquipmentService) Patch(ctx context.Context, userID, equipmentID string, patch EquipmentPatch) (*models.EquipmentItem, error) {
	if !equipmentIDPattern.MatchString(equipmentID) {
		return nil, fmt.Errorf("%w: invalid equipment id", common.ErrorValidation)
	}

	var result *models.EquipmentItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Equipment(tx)

		item, err := repo.Get(ctx, userID, equipmentID)
		if errors.Is(err, common.ErrorNotFound) {
			item = &models.EquipmentItem{EquipmentID: equipmentID}
		} else if err != nil {
			return err
		}

		if patch.Owned != nil {
			item.Owned = *patch.Owned
		}
		if patch.ShopURLSet {
			item.ShopURL = patch.ShopURL
		}

		if err := repo.Upsert(ctx, userID, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
