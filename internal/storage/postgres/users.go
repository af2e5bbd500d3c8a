package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

type userRow struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	AuthToken string    `db:"auth_token"`
	CreatedAt time.Time `db:"created_at"`
}

const userColumns = `id::text AS id, username, COALESCE(email, '') AS email,
	password, auth_token, created_at`

func (r userRow) user() storage.User {
	return storage.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.Password,
		AuthToken:    r.AuthToken,
		CreatedAt:    r.CreatedAt,
	}
}

// CreateUser inserts an account. A taken username or token surfaces as
// storage.ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, u storage.User) (storage.User, error) {
	row, err := queryOne[userRow](ctx, db.Pool,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@username, @email, @password, @token)
		 RETURNING `+userColumns,
		pgx.NamedArgs{
			"username": u.Username, "email": nullIfEmpty(u.Email),
			"password": u.PasswordHash, "token": u.AuthToken,
		})
	if err != nil {
		return storage.User{}, err
	}
	return row.user(), nil
}

// UserByUsername looks an account up for login.
func (db *DB) UserByUsername(ctx context.Context, username string) (storage.User, error) {
	row, err := queryOne[userRow](ctx, db.Pool,
		`SELECT `+userColumns+` FROM users WHERE username = @username`,
		pgx.NamedArgs{"username": username})
	if err != nil {
		return storage.User{}, err
	}
	return row.user(), nil
}

// UserByToken resolves a bearer token.
func (db *DB) UserByToken(ctx context.Context, token string) (storage.User, error) {
	row, err := queryOne[userRow](ctx, db.Pool,
		`SELECT `+userColumns+` FROM users WHERE auth_token = @token`,
		pgx.NamedArgs{"token": token})
	if err != nil {
		return storage.User{}, err
	}
	return row.user(), nil
}

// RotateToken replaces the stored bearer token, invalidating the old one.
func (db *DB) RotateToken(ctx context.Context, userID, token string) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE users SET auth_token = $1 WHERE id = $2", token, userID)
	if err != nil {
		return mapErr(err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
