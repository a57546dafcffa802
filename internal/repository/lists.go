package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reeltrack/reeltrack/internal/model"
)

// CreateList inserts a new list.
func (r *Repository) CreateList(ctx context.Context, list *model.List) error {
	query := `
		INSERT INTO lists (list_id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, list.ListID, list.OwnerID, list.Name, list.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrListExists
		}
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// ListListsByOwner reads through lists_owner_id_created_at_idx.
func (r *Repository) ListListsByOwner(ctx context.Context, ownerID string) ([]*model.List, error) {
	query := `
		SELECT list_id, owner_id, name, created_at
		FROM lists
		WHERE owner_id = $1
		ORDER BY created_at, list_id
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.List, error) {
		var l model.List
		if err := row.Scan(&l.ListID, &l.OwnerID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.CreatedAt = l.CreatedAt.UTC()
		return &l, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect lists: %w", err)
	}
	return lists, nil
}
