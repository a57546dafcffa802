package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/model"
	"github.com/reeltrack/reeltrack/internal/repository"
)

// UserService handles the user directory.
type UserService struct {
	store   repository.UserStore
	metrics metrics.Recorder
	now     func() time.Time
	newID   func() string
}

// NewUserService creates a new UserService.
func NewUserService(store repository.UserStore, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// GetOrCreate returns the user keyed by subjectID, creating it on first sight.
// Concurrent first calls for the same subject converge on a single record:
// the write is conditional and the loser re-reads the winner's record.
func (s *UserService) GetOrCreate(ctx context.Context, subjectID, email string) (*model.User, error) {
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}

	user, err := s.store.GetUser(ctx, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	candidate := &model.User{
		UserID:    subjectID,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.store.CreateUserIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if created {
		s.metrics.IncUserCreated(metrics.SourceLogin)
		return candidate, nil
	}

	user, err = s.store.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("re-read user: %w", err)
	}
	return user, nil
}

// Create stores a user under a fresh random id. It does not deduplicate.
func (s *UserService) Create(ctx context.Context, username, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}

	user := &model.User{
		UserID:    s.newID(),
		Username:  username,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("put user: %w", err)
	}

	s.metrics.IncUserCreated(metrics.SourceLegacy)
	return user, nil
}

// GetByID returns ErrUserNotFound when no record exists.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ScanUsers returns every stored user.
func (s *UserService) ScanUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ScanUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}
