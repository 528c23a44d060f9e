package v1

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/middleware"
)

const (
	// DefaultSignupWindowDays is the RecentSignups look-back window.
	DefaultSignupWindowDays = 7
	// DefaultActivityLimit is the RecentActivity feed length.
	DefaultActivityLimit = 20
	// activityPerSource caps how many items each source contributes to the
	// feed before merging, so the feed never holds more than 2*activityPerSource.
	activityPerSource = 10
)

// AnalyticsService computes admin read models over the audit log and the
// user registry. Nothing is cached; every call reads the store.
type AnalyticsService struct {
	users   domain.UserRepository
	records domain.PeekRecordRepository
	now     func() time.Time
	loc     *time.Location
}

// NewAnalyticsService creates an AnalyticsService. loc defines "today" for
// PeeksToday; nil means time.Local.
func NewAnalyticsService(users domain.UserRepository, records domain.PeekRecordRepository, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{
		users:   users,
		records: records,
		now:     time.Now,
		loc:     loc,
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}

// TotalUsers returns the number of registered users.
func (s *AnalyticsService) TotalUsers(ctx context.Context) (int64, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}

// TotalPeeks returns the number of audit records.
func (s *AnalyticsService) TotalPeeks(ctx context.Context) (int64, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return 0, storageErr("count peeks", err)
	}
	return n, nil
}

// RecentSignups counts users created within the last windowDays days.
// A non-positive window uses DefaultSignupWindowDays.
func (s *AnalyticsService) RecentSignups(ctx context.Context, windowDays int) (int64, error) {
	if windowDays <= 0 {
		windowDays = DefaultSignupWindowDays
	}
	since := s.now().AddDate(0, 0, -windowDays)
	n, err := s.users.CountCreatedSince(ctx, since.UTC())
	if err != nil {
		return 0, storageErr("count recent signups", err)
	}
	return n, nil
}

// PeeksToday counts records created since local midnight, up to but not
// including the next midnight.
func (s *AnalyticsService) PeeksToday(ctx context.Context) (int64, error) {
	from, to := s.today()
	n, err := s.records.CountBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return 0, storageErr("count peeks today", err)
	}
	return n, nil
}

func (s *AnalyticsService) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, 1)
}

// RecentActivity merges the most recent peeks and signups into one feed,
// newest first, truncated to limit. Each source contributes at most 10 items.
// A non-positive limit uses DefaultActivityLimit.
func (s *AnalyticsService) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityItem, error) {
	ctx, span := middleware.StartSpan(ctx, "analytics.recent_activity", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	peeks, err := s.records.Recent(ctx, activityPerSource)
	if err != nil {
		span.RecordError(err)
		return nil, storageErr("load recent peeks", err)
	}
	users, err := s.users.Recent(ctx, activityPerSource)
	if err != nil {
		span.RecordError(err)
		return nil, storageErr("load recent signups", err)
	}

	items := make([]domain.ActivityItem, 0, len(peeks)+len(users))
	for _, p := range peeks {
		items = append(items, domain.ActivityItem{
			Type:         domain.ActivityPeek,
			Email:        p.UserEmail,
			Timestamp:    p.CreatedAt,
			SessionTitle: p.SessionTitle,
		})
	}
	for _, u := range users {
		items = append(items, domain.ActivityItem{
			Type:      domain.ActivitySignup,
			Email:     u.Email,
			Timestamp: u.CreatedAt,
		})
	}

	slices.SortStableFunc(items, func(a, b domain.ActivityItem) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	span.SetAttributes(attribute.Int("items", len(items)))
	return items, nil
}

// Stats gathers the dashboard counters and the activity feed concurrently.
func (s *AnalyticsService) Stats(ctx context.Context) (*domain.Stats, error) {
	ctx, span := middleware.StartSpan(ctx, "analytics.stats", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	var stats domain.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.TotalUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalPeeks, err = s.TotalPeeks(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentSignups, err = s.RecentSignups(gctx, DefaultSignupWindowDays)
		return err
	})
	g.Go(func() (err error) {
		stats.PeeksToday, err = s.PeeksToday(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentActivity, err = s.RecentActivity(gctx, DefaultActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &stats, nil
}
