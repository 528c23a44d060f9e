package di

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/peek-service/config"
	"github.com/duynhne/peek-service/internal/core"
	"github.com/duynhne/peek-service/internal/metrics"
)

func TestProvideAnalyticsService_BadTimezone(t *testing.T) {
	cfg := &config.Config{Analytics: config.AnalyticsConfig{Timezone: "Nowhere/Atlantis"}}
	_, err := ProvideAnalyticsService(cfg, &core.Store{})
	assert.Error(t, err)
}

func TestProvideIdempotency_FollowsConfig(t *testing.T) {
	ok := func() (int, []byte) { return http.StatusOK, []byte(`{}`) }

	on := ProvideIdempotency(&config.Config{Idempotency: config.IdempotencyConfig{
		Enabled: true, SizeMB: 1, TTL: time.Minute,
	}}, metrics.Noop{})
	on.Do("k", ok)
	_, _, replayed := on.Do("k", ok)
	assert.True(t, replayed)

	off := ProvideIdempotency(&config.Config{}, metrics.Noop{})
	off.Do("k", ok)
	_, _, replayed = off.Do("k", ok)
	assert.False(t, replayed)
}

func TestProvideJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlq.zst")
	j, cleanup, err := ProvideJournal(&config.Config{Audit: config.AuditConfig{DeadLetterPath: path}})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	assert.Equal(t, path, j.Path())
}
