package v1

import (
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/duynhne/peek-service/config"
	"github.com/duynhne/peek-service/internal/metrics"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"
)

// ResponseCache stores encoded responses by key.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// NewResponseCache returns a bounded freecache-backed cache, or a cache that
// never hits when idempotency is disabled.
func NewResponseCache(cfg config.IdempotencyConfig) ResponseCache {
	if !cfg.Enabled || cfg.SizeMB <= 0 {
		return noopCache{}
	}
	return &freeCache{
		cache: freecache.NewCache(cfg.SizeMB * 1024 * 1024),
		ttl:   max(int(cfg.TTL/time.Second), 1),
	}
}

type freeCache struct {
	cache *freecache.Cache
	ttl   int
}

// keyBytes views s as bytes without copying; freecache copies keys internally.
func keyBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *freeCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *freeCache) Set(key string, value []byte) {
	_ = c.cache.Set(keyBytes(key), value, c.ttl)
}

type noopCache struct{}

func (noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (noopCache) Set(_ string, _ []byte)      {}

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Idempotency replays the first successful response for a key. Concurrent
// requests with the same key share one execution; only 2xx responses are
// stored, so failed attempts can be retried with the same key.
type Idempotency struct {
	cache   ResponseCache
	group   singleflight.Group
	metrics metrics.Recorder
}

// NewIdempotency creates an Idempotency layer over cache.
func NewIdempotency(cache ResponseCache, rec metrics.Recorder) *Idempotency {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Idempotency{cache: cache, metrics: rec}
}

// Do returns the stored response for key, or runs fn and stores its result.
// replayed reports whether the response came from the store or from another
// caller's concurrent execution of fn.
func (i *Idempotency) Do(key string, fn func() (int, []byte)) (status int, body []byte, replayed bool) {
	if r, ok := i.lookup(key); ok {
		i.metrics.IncIdempotentReplay()
		return r.Status, r.Body, true
	}

	ran := false
	v, _, _ := i.group.Do(key, func() (any, error) {
		if r, ok := i.lookup(key); ok {
			return result{storedResponse: r, replayed: true}, nil
		}
		ran = true
		status, body := fn()
		r := storedResponse{Status: status, Body: body}
		if status >= 200 && status < 300 {
			if raw, err := json.Marshal(r); err == nil {
				i.cache.Set(key, raw)
			}
		}
		return result{storedResponse: r}, nil
	})

	res := v.(result)
	replayed = res.replayed || !ran
	if replayed {
		i.metrics.IncIdempotentReplay()
	}
	return res.Status, res.Body, replayed
}

// IdempotencyKey joins parts into a cache key. Each part is length-prefixed so
// parts containing the separator cannot collide.
func IdempotencyKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

type result struct {
	storedResponse
	replayed bool
}

func (i *Idempotency) lookup(key string) (storedResponse, bool) {
	raw, ok := i.cache.Get(key)
	if !ok {
		return storedResponse{}, false
	}
	var r storedResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return storedResponse{}, false
	}
	return r, true
}
