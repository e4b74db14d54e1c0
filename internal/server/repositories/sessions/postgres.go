// Package sessions provides a PostgreSQL-backed repository for synced jump
// sessions and jumps uploaded by the mobile client.
package sessions

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

// UpsertSession inserts or refreshes a session row. Re-syncing an open
// session updates its totals; ownership never changes.
func (r *PostgresRepository) UpsertSession(ctx context.Context, s *models.SyncedSession) error {
	query := `
		INSERT INTO synced_sessions (id, user_id, started_at, ended_at, resort_name, total_jumps, max_airtime_ms, total_vertical_m, total_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = excluded.ended_at,
			total_jumps = excluded.total_jumps,
			max_airtime_ms = excluded.max_airtime_ms,
			total_vertical_m = excluded.total_vertical_m,
			total_score = excluded.total_score,
			synced_at = now()
		WHERE synced_sessions.user_id = excluded.user_id
	`
	var resort any
	if s.ResortName != "" {
		resort = s.ResortName
	}
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.StartedAt, s.EndedAt, resort,
		s.TotalJumps, s.MaxAirtimeMs, s.TotalVerticalM, s.TotalScore); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertJump(ctx context.Context, j *models.SyncedJump) error {
	query := `
		INSERT INTO synced_jumps (id, session_id, user_id, run_id, takeoff_timestamp_us, landing_timestamp_us,
			airtime_ms, distance_m, height_m, speed_kmh, landing_g_force,
			lat_takeoff, lon_takeoff, lat_landing, lon_landing, altitude_takeoff, score, trick_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			score = excluded.score,
			trick_label = excluded.trick_label
	`
	var trick any
	if j.TrickLabel != "" {
		trick = j.TrickLabel
	}
	if _, err := r.db.ExecContext(ctx, query,
		j.ID, j.SessionID, j.UserID, j.RunID, j.TakeoffTimestampUs, j.LandingTimestampUs,
		j.AirtimeMs, j.DistanceM, j.HeightM, j.SpeedKmh, j.LandingGForce,
		j.LatTakeoff, j.LonTakeoff, j.LatLanding, j.LonLanding, j.AltitudeTakeoff,
		j.Score, trick); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const sessionColumns = "id, user_id, started_at, ended_at, resort_name, total_jumps, max_airtime_ms, total_vertical_m, total_score, track_key, synced_at"

func scanSession(scan func(dest ...any) error) (*models.SyncedSession, error) {
	s := &models.SyncedSession{}
	var endedAt sql.NullTime
	var resort, trackKey sql.NullString

	err := scan(&s.ID, &s.UserID, &s.StartedAt, &endedAt, &resort,
		&s.TotalJumps, &s.MaxAirtimeMs, &s.TotalVerticalM, &s.TotalScore, &trackKey, &s.SyncedAt)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	s.ResortName = resort.String
	s.TrackKey = trackKey.String
	return s, nil
}

// List returns one page of the user's sessions, newest first, along with the
// total session count.
func (r *PostgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]*models.SyncedSession, int, error) {
	query := `SELECT ` + sessionColumns + `
		 FROM synced_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncedSession
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM synced_sessions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return result, total, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, sessionID string) (*models.SyncedSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM synced_sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListJumps(ctx context.Context, sessionID string) ([]*models.SyncedJump, error) {
	query := `
		SELECT id, session_id, user_id, run_id, takeoff_timestamp_us, landing_timestamp_us,
			airtime_ms, distance_m, height_m, speed_kmh, landing_g_force,
			lat_takeoff, lon_takeoff, lat_landing, lon_landing, altitude_takeoff, score, trick_label
		FROM synced_jumps
		WHERE session_id = $1
		ORDER BY takeoff_timestamp_us ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncedJump
	for rows.Next() {
		j := &models.SyncedJump{}
		var trick sql.NullString
		if err := rows.Scan(&j.ID, &j.SessionID, &j.UserID, &j.RunID,
			&j.TakeoffTimestampUs, &j.LandingTimestampUs,
			&j.AirtimeMs, &j.DistanceM, &j.HeightM, &j.SpeedKmh, &j.LandingGForce,
			&j.LatTakeoff, &j.LonTakeoff, &j.LatLanding, &j.LonLanding, &j.AltitudeTakeoff,
			&j.Score, &trick); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		j.TrickLabel = trick.String
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// SetTrackKey records the object storage key of the session's raw GPS track.
func (r *PostgresRepository) SetTrackKey(ctx context.Context, userID, sessionID, key string) error {
	query := `UPDATE synced_sessions SET track_key = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, key, sessionID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// GetUserStats aggregates all of the user's synced activity for profiles.
func (r *PostgresRepository) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}

	query := `
		SELECT COUNT(*), COALESCE(SUM(total_jumps), 0), COALESCE(SUM(total_score), 0), COALESCE(MAX(max_airtime_ms), 0)
		FROM synced_sessions
		WHERE user_id = $1
	`
	if err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.TotalSessions, &stats.TotalJumps, &stats.TotalScore, &stats.BestAirtimeMs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	bestQuery := `SELECT COALESCE(MAX(score), 0) FROM synced_jumps WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, bestQuery, userID).Scan(&stats.BestJumpScore); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}
