// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/migrations"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/equipment"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/friends"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/leaderboard"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// Friends returns a friends.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Friends(db dbx.DBTX) friends.Repository {
	return friends.NewPostgresRepository(db)
}

// Leaderboard returns a leaderboard.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Leaderboard(db dbx.DBTX) leaderboard.Repository {
	return leaderboard.NewPostgresRepository(db)
}

// Equipment returns an equipment.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Equipment(db dbx.DBTX) equipment.Repository {
	return equipment.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}
