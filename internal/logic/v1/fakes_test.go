package v1

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/duynhne/peek-service/internal/core/domain"
)

var errStoreDown = errors.New("store down")

// memSessions is an in-memory SessionRepository. Its mutex plays the role of
// the store's atomic update.
type memSessions struct {
	mu          sync.Mutex
	rows        map[string]*domain.Session
	failGet     bool
	failInc     bool
	vanishOnInc bool
	incCalls    int
}

func newMemSessions(sessions ...*domain.Session) *memSessions {
	m := &memSessions{rows: map[string]*domain.Session{}}
	for _, s := range sessions {
		m.rows[s.ID] = s
	}
	return m
}

func (m *memSessions) get(id string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memSessions) GetOwned(_ context.Context, id, ownerID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errStoreDown
	}
	s, ok := m.rows[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	cp := *s
	cp.Ideas = slices.Clone(s.Ideas)
	return &cp, nil
}

func (m *memSessions) IncrementPeek(_ context.Context, id, ownerID string, at time.Time) (*domain.PeekCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incCalls++
	if m.failInc {
		return nil, errStoreDown
	}
	if m.vanishOnInc {
		delete(m.rows, id)
	}
	s, ok := m.rows[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	s.PeekCount++
	if s.LastPeekedAt == nil || at.After(*s.LastPeekedAt) {
		t := at
		s.LastPeekedAt = &t
	}
	return &domain.PeekCounter{PeekCount: s.PeekCount, LastPeekedAt: *s.LastPeekedAt}, nil
}

func (m *memSessions) ListOwned(_ context.Context, ownerID, search string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.rows {
		if s.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b domain.Session) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (m *memSessions) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSessions) Update(_ context.Context, s *domain.Session) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[s.ID]
	if !ok || row.OwnerID != s.OwnerID {
		return nil, nil
	}
	row.Title, row.Description, row.Ideas, row.UpdatedAt = s.Title, s.Description, s.Ideas, s.UpdatedAt
	cp := *row
	return &cp, nil
}

func (m *memSessions) Delete(_ context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.OwnerID != ownerID {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// memRecords is an in-memory PeekRecordRepository. failures makes the next
// n Append calls fail.
type memRecords struct {
	mu       sync.Mutex
	rows     []domain.PeekRecord
	failures int
	calls    int
	failAll  bool
}

func (m *memRecords) Append(_ context.Context, rec *domain.PeekRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll {
		return errStoreDown
	}
	if m.failures > 0 {
		m.failures--
		return errStoreDown
	}
	for _, r := range m.rows {
		if r.ID == rec.ID {
			return nil
		}
	}
	m.rows = append(m.rows, *rec)
	return nil
}

func (m *memRecords) all() []domain.PeekRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}

func (m *memRecords) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return 0, errStoreDown
	}
	return int64(len(m.rows)), nil
}

func (m *memRecords) CountBetween(_ context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *memRecords) Recent(_ context.Context, limit int) ([]domain.PeekRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.rows)
	slices.SortStableFunc(out, func(a, b domain.PeekRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows []domain.UserRow
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := m.GetByEmail(ctx, email)
	return u != nil, err
}

func (m *memUsers) Create(_ context.Context, row *domain.UserRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *row)
	return nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memUsers) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.rows {
		if !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) Recent(_ context.Context, limit int) ([]domain.UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.rows)
	slices.SortStableFunc(out, func(a, b domain.UserRow) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTokens struct {
	mu    sync.Mutex
	users *memUsers
	rows  map[string]tokenEntry
	fail  bool
}

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

func newMemTokens(users *memUsers) *memTokens {
	return &memTokens{users: users, rows: map[string]tokenEntry{}}
}

func (m *memTokens) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.rows[token] = tokenEntry{userID, expiresAt}
	return nil
}

func (m *memTokens) GetUserByToken(ctx context.Context, token string) (*domain.TokenRow, error) {
	m.mu.Lock()
	e, ok := m.rows[token]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	u, err := m.users.GetByID(ctx, e.userID)
	if err != nil || u == nil {
		return nil, err
	}
	return &domain.TokenRow{UserID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt, ExpiresAt: e.expiresAt}, nil
}

// memJournal is an in-memory DeadLetterJournal.
type memJournal struct {
	mu   sync.Mutex
	recs []domain.PeekRecord
}

func (j *memJournal) Append(rec *domain.PeekRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, *rec)
	return nil
}

func (j *memJournal) Replay(ctx context.Context, fn func(context.Context, *domain.PeekRecord) error) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var (
		kept []domain.PeekRecord
		errs []error
		n    int
	)
	for i := range j.recs {
		if err := fn(ctx, &j.recs[i]); err != nil {
			kept = append(kept, j.recs[i])
			errs = append(errs, err)
			continue
		}
		n++
	}
	j.recs = kept
	return n, errors.Join(errs...)
}

func (j *memJournal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.recs)
}

type countingRecorder struct {
	mu          sync.Mutex
	peeks       map[string]int
	retries     int
	deadLetters int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{peeks: map[string]int{}}
}

func (c *countingRecorder) IncRequestsTotal(_, _ string, _ int)                 {}
func (c *countingRecorder) ObserveRequestDuration(_, _ string, _ time.Duration) {}
func (c *countingRecorder) IncIdempotentReplay()                                {}

func (c *countingRecorder) IncPeek(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peeks[outcome]++
}

func (c *countingRecorder) IncAuditRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func (c *countingRecorder) IncAuditDeadLetter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadLetters++
}

func fastRetry() AuditOption {
	return WithRetry(3, time.Millisecond, time.Second)
}
