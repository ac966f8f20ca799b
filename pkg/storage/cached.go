package storage

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// CachedKV decorates a KV backend with a last-known-value cache. When the
// backend fails, reads are served from cache so the decision path keeps
// producing decisions; writes update the cache even when the backend write
// is lost. Lost writes are tolerated, a blocked user must always get some
// decision.
type CachedKV struct {
	backend KV
	cache   *gocache.Cache
}

// NewCachedKV wraps backend with a fallback cache. Cached values live for
// ttl; a zero ttl keeps them for an hour.
func NewCachedKV(backend KV, ttl time.Duration) *CachedKV {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedKV{
		backend: backend,
		cache:   gocache.New(ttl, 2*ttl),
	}
}

func cacheKey(userID, field string) string {
	return userID + "\x00" + field
}

// Get implements KV. On backend failure it serves whatever fields are cached
// and reports success; missing fields then default like any absent field.
func (s *CachedKV) Get(ctx context.Context, userID string, fields ...string) (Record, error) {
	rec, err := s.backend.Get(ctx, userID, fields...)
	if err == nil {
		for f, v := range rec {
			s.cache.SetDefault(cacheKey(userID, f), v)
		}
		return rec, nil
	}

	logrus.Warnf("storage read failed for user %s, serving cached values: %v", userID, err)
	rec = make(Record, len(fields))
	for _, f := range fields {
		if v, ok := s.cache.Get(cacheKey(userID, f)); ok {
			rec[f] = v.(json.RawMessage)
		}
	}
	return rec, nil
}

// Set implements KV. The cache is updated first so local reads observe the
// patch even when the backend write fails.
func (s *CachedKV) Set(ctx context.Context, userID string, patch Record) error {
	for f, v := range patch {
		s.cache.SetDefault(cacheKey(userID, f), v)
	}

	if err := s.backend.Set(ctx, userID, patch); err != nil {
		logrus.Warnf("storage write failed for user %s (cached locally): %v", userID, err)
		return err
	}
	return nil
}

// Subscribe implements KV by delegating to the backend.
func (s *CachedKV) Subscribe(ctx context.Context, userID string, fn func(Record)) (func(), error) {
	return s.backend.Subscribe(ctx, userID, fn)
}
