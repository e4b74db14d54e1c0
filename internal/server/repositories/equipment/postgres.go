// Package equipment provides a PostgreSQL-backed repository for the per-user
// gear checklist synced from the mobile client.
package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.EquipmentItem, error) {
	query := `SELECT equipment_id, owned, shop_url, updated_at FROM user_equipment WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.EquipmentItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, equipmentID string) (*models.EquipmentItem, error) {
	query := `SELECT equipment_id, owned, shop_url, updated_at FROM user_equipment WHERE user_id = $1 AND equipment_id = $2`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, userID, equipmentID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// Upsert inserts or replaces one equipment row, refreshing updated_at.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, item *models.EquipmentItem) error {
	query := `
		INSERT INTO user_equipment (user_id, equipment_id, owned, shop_url, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, equipment_id) DO UPDATE SET
			owned = excluded.owned,
			shop_url = excluded.shop_url,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, item.EquipmentID, item.Owned, item.ShopURL); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanItem(scan func(dest ...any) error) (*models.EquipmentItem, error) {
	item := &models.EquipmentItem{}
	var shopURL sql.NullString

	if err := scan(&item.EquipmentID, &item.Owned, &shopURL, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if shopURL.Valid {
		s := shopURL.String
		item.ShopURL = &s
	}
	return item, nil
}
