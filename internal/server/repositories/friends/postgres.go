// Package friends provides a PostgreSQL-backed repository for friendships
// and friend-invite codes.
package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Friend, error) {
	query := `
		SELECT u.id, u.nickname, u.avatar_index, f.status, f.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND f.status = 'accepted'
		ORDER BY u.nickname ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Friend
	for rows.Next() {
		f := &models.Friend{}
		if err := rows.Scan(&f.UserID, &f.Nickname, &f.AvatarIndex, &f.Status, &f.Since); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, friendID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CreateFriendship(ctx context.Context, id, userID, friendID string) error {
	query := `
		INSERT INTO friendships (id, user_id, friend_id, status)
		VALUES ($1, $2, $3, 'accepted')
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID, friendID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes one direction of a friendship; callers remove both.
func (r *PostgresRepository) Delete(ctx context.Context, userID, friendID string) error {
	query := `DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, friendID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateInvite(ctx context.Context, code, userID string, expiresAt time.Time) error {
	query := `INSERT INTO invite_codes (code, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, code, userID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindValidInvite returns the invite only while it is unused and unexpired.
func (r *PostgresRepository) FindValidInvite(ctx context.Context, code string) (*models.InviteCode, error) {
	query := `
		SELECT code, user_id, expires_at
		FROM invite_codes
		WHERE code = $1 AND used_by IS NULL AND expires_at > now()
	`
	invite := &models.InviteCode{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&invite.Code, &invite.UserID, &invite.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invite, nil
}

func (r *PostgresRepository) MarkInviteUsed(ctx context.Context, code, usedBy string) error {
	query := `UPDATE invite_codes SET used_by = $1, used_at = now() WHERE code = $2 AND used_by IS NULL`
	res, err := r.db.ExecContext(ctx, query, usedBy, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
