package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/equipment"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/friends"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/leaderboard"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Friends(db dbx.DBTX) friends.Repository
	Leaderboard(db dbx.DBTX) leaderboard.Repository
	Equipment(db dbx.DBTX) equipment.Repository
}
