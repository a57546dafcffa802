// Package contracttest holds behavioral contracts every store backend must pass.
package contracttest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeltrack/reeltrack/internal/model"
	"github.com/reeltrack/reeltrack/internal/repository"
)

type CleanupFunc = func()

type StoreFactory func(t *testing.T) (repository.Store, CleanupFunc)

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// ts returns a timestamp every backend round-trips exactly.
func ts(offset time.Duration) time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Add(offset)
}

func RunUserStore(t *testing.T, newStore StoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t.Run("get missing user", func(t *testing.T) {
		_, err := store.GetUser(ctx, newID("missing"))
		require.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	t.Run("create if absent only writes once", func(t *testing.T) {
		id := newID("uid")
		first := &model.User{UserID: id, Email: "first@example.com", CreatedAt: ts(0)}
		second := &model.User{UserID: id, Email: "second@example.com", CreatedAt: ts(time.Hour)}

		created, err := store.CreateUserIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.CreateUserIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)

		got, err := store.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "first@example.com", got.Email)
		assert.True(t, got.CreatedAt.Equal(ts(0)), "createdAt = %v", got.CreatedAt)
		assert.Empty(t, got.Username)
	})

	t.Run("concurrent create if absent has one winner", func(t *testing.T) {
		id := newID("race")
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := store.CreateUserIfAbsent(ctx, &model.User{UserID: id, Email: "race@example.com", CreatedAt: ts(0)})
				if err != nil {
					t.Errorf("CreateUserIfAbsent: %v", err)
					return
				}
				if created {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("put user overwrites", func(t *testing.T) {
		id := newID("legacy")
		require.NoError(t, store.PutUser(ctx, &model.User{UserID: id, Username: "ada", Email: "ada@example.com", CreatedAt: ts(0)}))
		require.NoError(t, store.PutUser(ctx, &model.User{UserID: id, Username: "ada2", Email: "ada2@example.com", CreatedAt: ts(time.Minute)}))

		got, err := store.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ada2", got.Username)
		assert.Equal(t, "ada2@example.com", got.Email)
	})

	t.Run("scan includes written users", func(t *testing.T) {
		id := newID("scan")
		require.NoError(t, store.PutUser(ctx, &model.User{UserID: id, Username: "scan", Email: "scan@example.com", CreatedAt: ts(0)}))

		users, err := store.ScanUsers(ctx)
		require.NoError(t, err)

		var found int
		for _, u := range users {
			if u.UserID == id {
				found++
			}
		}
		assert.Equal(t, 1, found)
	})
}

func RunListStore(t *testing.T, newStore StoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t.Run("list by owner is ordered and isolated", func(t *testing.T) {
		owner := newID("owner")
		other := newID("other")

		lists := []*model.List{
			{ListID: "01HZ0000000000000000000003", OwnerID: owner, Name: "Later", CreatedAt: ts(2 * time.Minute)},
			{ListID: "01HZ0000000000000000000002", OwnerID: owner, Name: "Tie B", CreatedAt: ts(time.Minute)},
			{ListID: "01HZ0000000000000000000001", OwnerID: owner, Name: "Tie A", CreatedAt: ts(time.Minute)},
			{ListID: newID("theirs"), OwnerID: other, Name: "Theirs", CreatedAt: ts(0)},
		}
		// Postgres and DynamoDB share list ids across runs.
		for _, l := range lists[:3] {
			l.ListID = l.ListID + "-" + owner
		}
		for _, l := range lists {
			require.NoError(t, store.CreateList(ctx, l))
		}

		got, err := store.ListListsByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Tie A", got[0].Name)
		assert.Equal(t, "Tie B", got[1].Name)
		assert.Equal(t, "Later", got[2].Name)
		for _, l := range got {
			assert.Equal(t, owner, l.OwnerID)
		}
	})

	t.Run("owner without lists", func(t *testing.T) {
		got, err := store.ListListsByOwner(ctx, newID("nobody"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duplicate list id", func(t *testing.T) {
		l := &model.List{ListID: newID("dup"), OwnerID: newID("owner"), Name: "Dup", CreatedAt: ts(0)}
		require.NoError(t, store.CreateList(ctx, l))
		require.ErrorIs(t, store.CreateList(ctx, l), repository.ErrListExists)

		got, err := store.ListListsByOwner(ctx, l.OwnerID)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
