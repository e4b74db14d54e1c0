// Package leaderboard provides a PostgreSQL-backed repository for the cached
// leaderboard aggregates recomputed after each sync.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RefreshPeriod recomputes one user's aggregates for a period from the synced
// sessions and jumps. A nil since means no lower bound (the alltime period).
func (r *PostgresRepository) RefreshPeriod(ctx context.Context, userID string, period models.LeaderboardPeriod, since *time.Time) error {
	query := `
		WITH session_stats AS (
			SELECT COALESCE(SUM(total_score), 0) AS total_score,
			       COALESCE(SUM(total_jumps), 0) AS total_jumps,
			       COUNT(id) AS session_count
			FROM synced_sessions
			WHERE user_id = $1 AND ($3::timestamptz IS NULL OR started_at >= $3)
		), jump_stats AS (
			SELECT COALESCE(MAX(sj.score), 0) AS best_jump_score,
			       COALESCE(MAX(sj.airtime_ms), 0) AS best_airtime_ms
			FROM synced_jumps sj
			JOIN synced_sessions ss ON ss.id = sj.session_id
			WHERE sj.user_id = $1 AND ($3::timestamptz IS NULL OR ss.started_at >= $3)
		)
		INSERT INTO leaderboard_cache (user_id, period, total_score, total_jumps, best_jump_score, best_airtime_ms, session_count, updated_at)
		SELECT $1, $2, s.total_score, s.total_jumps, j.best_jump_score, j.best_airtime_ms, s.session_count, now()
		FROM session_stats s, jump_stats j
		ON CONFLICT (user_id, period) DO UPDATE SET
			total_score = excluded.total_score,
			total_jumps = excluded.total_jumps,
			best_jump_score = excluded.best_jump_score,
			best_airtime_ms = excluded.best_airtime_ms,
			session_count = excluded.session_count,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(period), since); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const boardColumns = `lc.user_id, u.nickname, u.avatar_index, lc.total_score, lc.total_jumps, lc.best_jump_score, lc.best_airtime_ms, lc.session_count`

func (r *PostgresRepository) scanBoard(ctx context.Context, query string, args ...any) ([]*models.LeaderboardRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LeaderboardRow
	for rows.Next() {
		row := &models.LeaderboardRow{}
		if err := rows.Scan(&row.UserID, &row.Nickname, &row.AvatarIndex,
			&row.TotalScore, &row.TotalJumps, &row.BestJumpScore, &row.BestAirtimeMs, &row.SessionCount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// FriendBoard returns the cached rows for the user's friends plus the user,
// best score first.
func (r *PostgresRepository) FriendBoard(ctx context.Context, userID string, period models.LeaderboardPeriod) ([]*models.LeaderboardRow, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM leaderboard_cache lc
		JOIN users u ON u.id = lc.user_id
		WHERE lc.period = $1
		  AND lc.user_id IN (
			SELECT friend_id FROM friendships WHERE user_id = $2 AND status = 'accepted'
			UNION ALL SELECT $2::uuid
		  )
		ORDER BY lc.total_score DESC
	`
	return r.scanBoard(ctx, query, string(period), userID)
}

func (r *PostgresRepository) GlobalBoard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardRow, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM leaderboard_cache lc
		JOIN users u ON u.id = lc.user_id
		WHERE lc.period = $1
		ORDER BY lc.total_score DESC
		LIMIT $2
	`
	return r.scanBoard(ctx, query, string(period), limit)
}

// UserRank returns the user's 1-based global rank for the period. Users with
// no cache row rank below everyone with a positive score.
func (r *PostgresRepository) UserRank(ctx context.Context, userID string, period models.LeaderboardPeriod) (int, error) {
	query := `
		SELECT COUNT(*) + 1
		FROM leaderboard_cache
		WHERE period = $1 AND total_score > (
			SELECT COALESCE(
				(SELECT total_score FROM leaderboard_cache WHERE user_id = $2 AND period = $1), 0)
		)
	`
	var rank int
	if err := r.db.QueryRowContext(ctx, query, string(period), userID).Scan(&rank); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return rank, nil
}
