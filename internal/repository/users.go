package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reeltrack/reeltrack/internal/model"
)

const userColumns = `user_id, COALESCE(username, ''), email, created_at`

// GetUser retrieves a user by id.
func (r *Repository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUserIfAbsent inserts user unless the id is already taken.
func (r *Repository) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	query := `
		INSERT INTO users (user_id, username, email, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, user.UserID, user.Username, user.Email, user.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PutUser inserts or replaces user.
func (r *Repository) PutUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (user_id, username, email, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    email = EXCLUDED.email,
		    created_at = EXCLUDED.created_at
	`

	if _, err := r.pool.Exec(ctx, query, user.UserID, user.Username, user.Email, user.CreatedAt); err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

// ScanUsers returns every user ordered by creation time.
func (r *Repository) ScanUsers(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, user_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(&user.UserID, &user.Username, &user.Email, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
