package v1

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/peek-service/internal/core/domain"
)

var analyticsNow = time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)

func newAnalytics(users *memUsers, records *memRecords, loc *time.Location) *AnalyticsService {
	s := NewAnalyticsService(users, records, loc)
	s.now = func() time.Time { return analyticsNow }
	return s
}

func seedPeeks(records *memRecords, n int, start time.Time, step time.Duration) {
	for i := range n {
		records.rows = append(records.rows, domain.PeekRecord{
			ID:           fmt.Sprintf("p-%02d", i),
			SessionTitle: fmt.Sprintf("Session %d", i),
			UserEmail:    "alice@example.com",
			SelectedIdea: "A",
			CreatedAt:    start.Add(time.Duration(i) * step),
		})
	}
}

func seedUsers(users *memUsers, n int, start time.Time, step time.Duration) {
	for i := range n {
		users.rows = append(users.rows, domain.UserRow{
			ID:        fmt.Sprintf("u-%02d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			CreatedAt: start.Add(time.Duration(i) * step),
		})
	}
}

func TestRecentActivity_MergesAndSorts(t *testing.T) {
	users, records := &memUsers{}, &memRecords{}
	seedPeeks(records, 15, analyticsNow.Add(-15*time.Minute), time.Minute)
	seedUsers(users, 3, analyticsNow.Add(-90*time.Second), 7*time.Minute)

	items, err := newAnalytics(users, records, time.UTC).RecentActivity(context.Background(), 20)
	require.NoError(t, err)

	// 10 peeks (capped) + 3 signups.
	require.Len(t, items, 13)
	var peeks, signups int
	for i, it := range items {
		if i > 0 {
			assert.True(t, items[i-1].Timestamp.After(it.Timestamp), "item %d out of order", i)
		}
		switch it.Type {
		case domain.ActivityPeek:
			peeks++
			assert.NotEmpty(t, it.SessionTitle)
		case domain.ActivitySignup:
			signups++
			assert.Empty(t, it.SessionTitle)
		}
	}
	assert.Equal(t, 10, peeks)
	assert.Equal(t, 3, signups)
}

func TestRecentActivity_FullFeedStrictlyDescending(t *testing.T) {
	users, records := &memUsers{}, &memRecords{}
	seedPeeks(records, 10, analyticsNow.Add(-time.Hour), 2*time.Minute)
	seedUsers(users, 8, analyticsNow.Add(-time.Hour).Add(time.Minute), 2*time.Minute)

	items, err := newAnalytics(users, records, time.UTC).RecentActivity(context.Background(), 20)
	require.NoError(t, err)

	require.Len(t, items, 18)
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].Timestamp.After(items[i].Timestamp))
	}
}

func TestRecentActivity_Limit(t *testing.T) {
	users, records := &memUsers{}, &memRecords{}
	seedPeeks(records, 12, analyticsNow.Add(-time.Hour), time.Minute)
	seedUsers(users, 12, analyticsNow.Add(-2*time.Hour), time.Minute)

	svc := newAnalytics(users, records, time.UTC)

	items, err := svc.RecentActivity(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 5)
	for _, it := range items {
		assert.Equal(t, domain.ActivityPeek, it.Type)
	}

	items, err = svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

func TestRecentActivity_Empty(t *testing.T) {
	items, err := newAnalytics(&memUsers{}, &memRecords{}, time.UTC).RecentActivity(context.Background(), 20)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPeeksToday_DayBoundary(t *testing.T) {
	records := &memRecords{}
	midnight := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{
		midnight.Add(-time.Nanosecond),
		midnight,
		midnight.Add(13 * time.Hour),
		midnight.Add(24*time.Hour - time.Nanosecond),
		midnight.Add(24 * time.Hour),
	} {
		records.rows = append(records.rows, domain.PeekRecord{ID: fmt.Sprint(i), CreatedAt: at})
	}

	n, err := newAnalytics(&memUsers{}, records, time.UTC).PeeksToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPeeksToday_UsesLocation(t *testing.T) {
	// 14:00 UTC is 00:00 next day at UTC+10.
	loc := time.FixedZone("UTC+10", 10*3600)
	records := &memRecords{rows: []domain.PeekRecord{
		{ID: "yesterday-local", CreatedAt: analyticsNow.Add(-time.Minute)},
		{ID: "today-local", CreatedAt: analyticsNow},
	}}

	n, err := newAnalytics(&memUsers{}, records, loc).PeeksToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecentSignups_Window(t *testing.T) {
	users := &memUsers{rows: []domain.UserRow{
		{ID: "old", CreatedAt: analyticsNow.AddDate(0, 0, -7).Add(-time.Second)},
		{ID: "edge", CreatedAt: analyticsNow.AddDate(0, 0, -7)},
		{ID: "new", CreatedAt: analyticsNow.Add(-time.Hour)},
	}}
	svc := newAnalytics(users, &memRecords{}, time.UTC)

	n, err := svc.RecentSignups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.RecentSignups(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStats(t *testing.T) {
	users, records := &memUsers{}, &memRecords{}
	seedPeeks(records, 4, analyticsNow.Add(-time.Hour), time.Minute)
	seedUsers(users, 2, analyticsNow.AddDate(0, 0, -30), 24*time.Hour)

	stats, err := newAnalytics(users, records, time.UTC).Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.TotalPeeks)
	assert.Equal(t, int64(0), stats.RecentSignups)
	assert.Equal(t, int64(4), stats.PeeksToday)
	assert.Len(t, stats.RecentActivity, 6)
}

func TestStats_StorageError(t *testing.T) {
	records := &memRecords{failAll: true}

	_, err := newAnalytics(&memUsers{}, records, time.UTC).Stats(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
}
