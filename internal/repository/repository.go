// Package repository defines the user and list store contracts and provides
// the PostgreSQL implementation.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeltrack/reeltrack/internal/model"
)

// Errors shared by every store backend.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrListExists   = errors.New("list already exists")
)

// UserStore persists user records keyed by userId.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	// CreateUserIfAbsent writes user only when no record with its id exists.
	// It reports whether this call created the record.
	CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error)
	// PutUser writes user unconditionally.
	PutUser(ctx context.Context, user *model.User) error
	ScanUsers(ctx context.Context) ([]*model.User, error)
}

// ListStore persists lists and serves them by owner.
type ListStore interface {
	CreateList(ctx context.Context, list *model.List) error
	// ListListsByOwner returns lists ordered by createdAt, then listId.
	ListListsByOwner(ctx context.Context, ownerID string) ([]*model.List, error)
}

// Store is a complete storage backend.
type Store interface {
	UserStore
	ListStore
	Ping(ctx context.Context) error
}

// Repository provides PostgreSQL access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
