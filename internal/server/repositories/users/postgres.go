// Package users provides a PostgreSQL-backed repository for user identity
// records, including the uniqueness guarantees identity resolution relies on.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

const userColumns = "id, email, google_sub, apple_sub, password_hash, nickname, avatar_index, created_at, updated_at"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// nullable maps the empty string to SQL NULL so optional columns keep their
// partial-unique behavior.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var email, googleSub, appleSub, passwordHash sql.NullString

	err := row.Scan(&u.ID, &email, &googleSub, &appleSub, &passwordHash,
		&u.Nickname, &u.AvatarIndex, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.Email = email.String
	u.GoogleSub = googleSub.String
	u.AppleSub = appleSub.String
	u.PasswordHash = passwordHash.String
	return u, nil
}

// Create inserts a new user. The insert races against the unique constraints
// on email and the provider-subject columns: when another transaction created
// the same identity first, no row is inserted and common.ErrorAlreadyExists
// is returned so the caller can fall back to a lookup.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, email, google_sub, apple_sub, password_hash, nickname, avatar_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT DO NOTHING
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, nullable(user.Email), nullable(user.GoogleSub), nullable(user.AppleSub),
		nullable(user.PasswordHash), user.Nickname, user.AvatarIndex).
		Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByProviderSub(ctx context.Context, provider models.Provider, sub string) (*models.User, error) {
	column, ok := provider.Column()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	return scanUser(r.db.QueryRowContext(ctx, query, sub))
}

// LinkProvider sets the provider-subject column on an existing user, the
// account-linking step of identity resolution.
func (r *PostgresRepository) LinkProvider(ctx context.Context, userID string, provider models.Provider, sub string) error {
	column, ok := provider.Column()
	if !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}

	query := fmt.Sprintf(`UPDATE users SET %s = $1, updated_at = now() WHERE id = $2`, column)
	res, err := r.db.ExecContext(ctx, query, sub, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// UpdateProfile applies the provided fields; nil pointers leave the column
// untouched.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID string, nickname *string, avatarIndex *int) error {
	updates := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if nickname != nil {
		args = append(args, *nickname)
		updates = append(updates, fmt.Sprintf("nickname = $%d", len(args)))
	}
	if avatarIndex != nil {
		args = append(args, *avatarIndex)
		updates = append(updates, fmt.Sprintf("avatar_index = $%d", len(args)))
	}
	if len(updates) == 0 {
		return common.ErrorValidation
	}

	updates = append(updates, "updated_at = now()")
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(updates, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
