package v1

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/peek-service/internal/core/domain"
)

var alice = domain.Actor{ID: "u-alice", Email: "alice@example.com"}

func abcSession(count int64) *domain.Session {
	return &domain.Session{
		ID:        "s-1",
		Title:     "Dinner",
		Ideas:     []string{"A", "B", "C"},
		OwnerID:   alice.ID,
		PeekCount: count,
	}
}

type peekFixture struct {
	sessions *memSessions
	records  *memRecords
	journal  *memJournal
	metrics  *countingRecorder
	svc      *PeekService
}

func newPeekFixture(sessions ...*domain.Session) *peekFixture {
	f := &peekFixture{
		sessions: newMemSessions(sessions...),
		records:  &memRecords{},
		journal:  &memJournal{},
		metrics:  newCountingRecorder(),
	}
	audit := NewAuditLogger(f.records, f.journal, f.metrics, fastRetry())
	f.svc = NewPeekService(f.sessions, nil, audit, f.metrics)
	return f
}

func TestPeek_SingleIncrement(t *testing.T) {
	f := newPeekFixture(abcSession(0))

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)

	assert.Contains(t, []string{"A", "B", "C"}, res.SelectedIdea)
	assert.Equal(t, int64(1), res.PeekCount)
	assert.Equal(t, OutcomeCommittedLogged, res.Outcome)

	recs := f.records.all()
	require.Len(t, recs, 1)
	assert.Equal(t, res.SelectedIdea, recs[0].SelectedIdea)
	assert.Equal(t, res.RecordID, recs[0].ID)
	assert.Equal(t, "s-1", recs[0].SessionID)
	assert.Equal(t, "Dinner", recs[0].SessionTitle)
	assert.Equal(t, alice.ID, recs[0].UserID)
	assert.Equal(t, alice.Email, recs[0].UserEmail)

	stored := f.sessions.get("s-1")
	assert.Equal(t, int64(1), stored.PeekCount)
	require.NotNil(t, stored.LastPeekedAt)
	assert.Equal(t, 1, f.metrics.peeks[string(OutcomeCommittedLogged)])
}

func TestPeek_ReturnsCommittedCount(t *testing.T) {
	f := newPeekFixture(abcSession(41))

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.PeekCount)
}

func TestPeek_UsesSelector(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	f.svc.selector = SelectorFunc(func(n int) int { return n - 1 })

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)
	assert.Equal(t, "C", res.SelectedIdea)
}

func TestPeek_LastPeekedAtAdvances(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return t0 }

	first, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return t0.Add(time.Minute) }
	second, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)

	assert.True(t, second.LastPeekedAt.After(first.LastPeekedAt))
	assert.Equal(t, int64(2), second.PeekCount)
}

func TestPeek_EmptyIdeas(t *testing.T) {
	s := abcSession(3)
	s.Ideas = nil
	f := newPeekFixture(s)

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoIdeas)
	assert.Equal(t, 0, f.sessions.incCalls)
	assert.Equal(t, int64(3), f.sessions.get("s-1").PeekCount)
	assert.Empty(t, f.records.all())
}

func TestPeek_NotOwner(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	mallory := domain.Actor{ID: "u-mallory", Email: "mallory@example.com"}

	res, err := f.svc.Peek(context.Background(), "s-1", mallory)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, int64(0), f.sessions.get("s-1").PeekCount)
	assert.Empty(t, f.records.all())
}

func TestPeek_Missing(t *testing.T) {
	f := newPeekFixture()

	_, err := f.svc.Peek(context.Background(), "nope", alice)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPeek_LoadFailure(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	f.sessions.failGet = true

	_, err := f.svc.Peek(context.Background(), "s-1", alice)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestPeek_CounterFailureReturnsNoIdea(t *testing.T) {
	f := newPeekFixture(abcSession(5))
	f.sessions.failInc = true

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, f.records.all())
	assert.Zero(t, f.journal.len())
	assert.Empty(t, f.metrics.peeks)
}

func TestPeek_SessionVanishedBeforeIncrement(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	f.sessions.vanishOnInc = true

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, f.records.all())
}

func TestPeek_AuditFailureStillCommits(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	f.records.failAll = true

	res, err := f.svc.Peek(context.Background(), "s-1", alice)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommittedUnlogged, res.Outcome)
	assert.Equal(t, int64(1), res.PeekCount)
	assert.NotEmpty(t, res.RecordID)
	assert.Equal(t, 1, f.journal.len())
	assert.Equal(t, 1, f.metrics.peeks[string(OutcomeCommittedUnlogged)])
	assert.Equal(t, 1, f.metrics.deadLetters)
}

func TestPeek_CanceledContextAfterLoadStillAudits(t *testing.T) {
	f := newPeekFixture(abcSession(0))
	ctx, cancel := context.WithCancel(context.Background())
	// The first append fails, so the audit retry runs after the caller is gone.
	f.records.failures = 1
	cancel()

	res, err := f.svc.Peek(ctx, "s-1", alice)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommittedLogged, res.Outcome)
	assert.Len(t, f.records.all(), 1)
}

func TestPeek_Concurrent(t *testing.T) {
	const (
		start = 7
		n     = 50
	)
	f := newPeekFixture(abcSession(start))

	var wg sync.WaitGroup
	errs := make(chan error, n)
	counts := make(chan int64, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Peek(context.Background(), "s-1", alice)
			if err != nil {
				errs <- err
				return
			}
			counts <- res.PeekCount
		}()
	}
	wg.Wait()
	close(errs)
	close(counts)

	for err := range errs {
		t.Fatalf("peek failed: %v", err)
	}

	seen := make(map[int64]bool, n)
	for c := range counts {
		assert.False(t, seen[c], "count %d returned twice", c)
		seen[c] = true
	}
	for i := int64(start + 1); i <= start+n; i++ {
		assert.True(t, seen[i], fmt.Sprintf("count %d never returned", i))
	}

	assert.Equal(t, int64(start+n), f.sessions.get("s-1").PeekCount)

	ids := make(map[string]bool, n)
	for _, r := range f.records.all() {
		ids[r.ID] = true
	}
	assert.Len(t, ids, n)
}
