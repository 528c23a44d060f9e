package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/peek-service/internal/core"
	"github.com/duynhne/peek-service/internal/core/domain"
)

func openStore(t *testing.T) *core.Store {
	t.Helper()
	db, err := core.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := core.NewSQLiteStore(db)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

var base = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func seedSession(t *testing.T, store *core.Store, id, owner string, ideas ...string) {
	t.Helper()
	require.NoError(t, store.Sessions.Create(context.Background(), &domain.Session{
		ID:        id,
		Title:     "Title " + id,
		Ideas:     ideas,
		OwnerID:   owner,
		CreatedAt: base,
		UpdatedAt: base,
	}))
}

func TestSessions_IncrementPeekConcurrent(t *testing.T) {
	store := openStore(t)
	seedSession(t, store, "s1", "u1", "a", "b")
	ctx := context.Background()

	const n = 50
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = make(map[int64]int)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := store.Sessions.IncrementPeek(ctx, "s1", "u1", base.Add(time.Duration(i)*time.Second))
			if !assert.NoError(t, err) || !assert.NotNil(t, c) {
				return
			}
			mu.Lock()
			counts[c.PeekCount]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, counts, n)
	for i := int64(1); i <= n; i++ {
		assert.Equal(t, 1, counts[i], "count %d", i)
	}

	s, err := store.Sessions.GetOwned(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), s.PeekCount)
	require.NotNil(t, s.LastPeekedAt)
	assert.True(t, s.LastPeekedAt.Equal(base.Add((n-1)*time.Second)))
}

func TestSessions_LastPeekedAtNeverMovesBack(t *testing.T) {
	store := openStore(t)
	seedSession(t, store, "s1", "u1", "a")
	ctx := context.Background()

	_, err := store.Sessions.IncrementPeek(ctx, "s1", "u1", base.Add(time.Hour))
	require.NoError(t, err)
	c, err := store.Sessions.IncrementPeek(ctx, "s1", "u1", base)
	require.NoError(t, err)

	assert.Equal(t, int64(2), c.PeekCount)
	assert.True(t, c.LastPeekedAt.Equal(base.Add(time.Hour)))
}

func TestSessions_OwnerScoping(t *testing.T) {
	store := openStore(t)
	seedSession(t, store, "s1", "u1", "a")
	ctx := context.Background()

	s, err := store.Sessions.GetOwned(ctx, "s1", "u2")
	require.NoError(t, err)
	assert.Nil(t, s)

	c, err := store.Sessions.IncrementPeek(ctx, "s1", "u2", base)
	require.NoError(t, err)
	assert.Nil(t, c)

	upd, err := store.Sessions.Update(ctx, &domain.Session{ID: "s1", OwnerID: "u2", Title: "x", UpdatedAt: base})
	require.NoError(t, err)
	assert.Nil(t, upd)

	ok, err := store.Sessions.Delete(ctx, "s1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	s, err = store.Sessions.GetOwned(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.PeekCount)
	assert.Equal(t, []string{"a"}, s.Ideas)
}

func TestSessions_UpdateKeepsCounter(t *testing.T) {
	store := openStore(t)
	seedSession(t, store, "s1", "u1", "a")
	ctx := context.Background()
	_, err := store.Sessions.IncrementPeek(ctx, "s1", "u1", base)
	require.NoError(t, err)

	upd, err := store.Sessions.Update(ctx, &domain.Session{
		ID: "s1", OwnerID: "u1", Title: "New", Description: "d", Ideas: []string{"x", "y"}, UpdatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)
	require.NotNil(t, upd)
	assert.Equal(t, "New", upd.Title)
	assert.Equal(t, []string{"x", "y"}, upd.Ideas)
	assert.Equal(t, int64(1), upd.PeekCount)
}

func TestSessions_ListSearch(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i, s := range []domain.Session{
		{ID: "s1", Title: "Weekend Trips", Ideas: []string{"beach"}},
		{ID: "s2", Title: "Dinner", Description: "weeknight meals", Ideas: []string{"Pasta"}},
		{ID: "s3", Title: "Books", Ideas: []string{"100% fiction"}},
	} {
		s.OwnerID = "u1"
		s.CreatedAt = base
		s.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Sessions.Create(ctx, &s))
	}
	seedSession(t, store, "other", "u2", "pasta")

	ids := func(search string) []string {
		list, err := store.Sessions.ListOwned(ctx, "u1", search)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{"s3", "s2", "s1"}, ids(""))
	assert.Equal(t, []string{"s2", "s1"}, ids("WEEK"))
	assert.Equal(t, []string{"s2"}, ids("pasta"))
	assert.Equal(t, []string{"s3"}, ids("0%"))
	assert.Empty(t, ids("%%"))
}

func TestPeekRecords_AppendIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	rec := &domain.PeekRecord{ID: "r1", SessionID: "s1", SessionTitle: "T", UserID: "u1", UserEmail: "a@b.c", SelectedIdea: "x", CreatedAt: base}

	require.NoError(t, store.PeekRecords.Append(ctx, rec))
	require.NoError(t, store.PeekRecords.Append(ctx, rec))

	n, err := store.PeekRecords.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPeekRecords_Queries(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i := range 12 {
		require.NoError(t, store.PeekRecords.Append(ctx, &domain.PeekRecord{
			ID:           fmt.Sprintf("r%02d", i),
			SelectedIdea: "x",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	n, err := store.PeekRecords.CountBetween(ctx, base.Add(2*time.Hour), base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recent, err := store.PeekRecords.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, "r11", recent[0].ID)
	assert.Equal(t, "r02", recent[9].ID)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(11*time.Hour)))
}

func TestUsersAndTokens(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, store.Users.Create(ctx, &domain.UserRow{
			ID:           fmt.Sprintf("u%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			Name:         "User",
			PasswordHash: "hash",
			CreatedAt:    base.AddDate(0, 0, i*5),
		}))
	}

	u, err := store.Users.GetByEmail(ctx, "user1@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)

	u, err = store.Users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)

	exists, err := store.Users.ExistsByEmail(ctx, "user2@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.Users.CountCreatedSince(ctx, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err := store.Users.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "u2", recent[0].ID)

	expires := base.Add(24 * time.Hour)
	require.NoError(t, store.Tokens.Create(ctx, "u1", "tok", expires))
	row, err := store.Tokens.GetUserByToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, "user1@example.com", row.Email)
	assert.True(t, row.ExpiresAt.Equal(expires))

	row, err = store.Tokens.GetUserByToken(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, row)
}
