package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/model"
	"github.com/reeltrack/reeltrack/internal/repository"
)

// ListService handles list business logic.
type ListService struct {
	store   repository.ListStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewListService creates a new ListService.
func NewListService(store repository.ListStore, recorder metrics.Recorder) *ListService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ListService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// Create stores a new list owned by ownerID. The name is trimmed before
// validation.
func (s *ListService) Create(ctx context.Context, ownerID, name string) (*model.List, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	name, err := NormalizeListName(name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	list := &model.List{
		ListID:    ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.metrics.IncListCreated()
	return list, nil
}

// NormalizeListName trims name and checks it is non-empty and at most
// model.MaxListNameLength runes.
func NormalizeListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrListNameRequired
	}
	if utf8.RuneCountInString(name) > model.MaxListNameLength {
		return "", ErrListNameTooLong
	}
	return name, nil
}

// ListByOwner returns the owner's lists ordered by createdAt, then listId.
// The result is never nil.
func (s *ListService) ListByOwner(ctx context.Context, ownerID string) ([]*model.List, error) {
	lists, err := s.store.ListListsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	if lists == nil {
		lists = []*model.List{}
	}
	return lists, nil
}
