package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/mediaplatform/internal/cache"
	"github.com/charlesng35/mediaplatform/pkg/logger"
	"github.com/charlesng35/mediaplatform/pkg/metrics"
)

const cacheKeyPrefix = "directory:person:"

// Cached memoises successful lookups of another Directory in a cache.Store.
// Cache failures degrade to a direct lookup.
type Cached struct {
	next  Directory
	store cache.Store
	ttl   time.Duration
}

// NewCached wraps next. A nil store disables caching.
func NewCached(next Directory, store cache.Store, ttl time.Duration) Directory {
	if store == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, store: store, ttl: ttl}
}

// Name reports the wrapped backend.
func (c *Cached) Name() string { return c.next.Name() }

// LookupPerson implements Directory.
func (c *Cached) LookupPerson(ctx context.Context, crsid string) (*Person, error) {
	key := cacheKeyPrefix + crsid

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.WithModule("directory").Debug("cache read failed", zap.String("crsid", crsid), zap.Error(err))
	} else if ok {
		var person Person
		if err := json.Unmarshal(raw, &person); err == nil {
			metrics.DirectoryLookups.WithLabelValues(c.next.Name(), "cached").Inc()
			return &person, nil
		}
	}

	person, err := c.next.LookupPerson(ctx, crsid)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(person); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
			logger.WithModule("directory").Debug("cache write failed", zap.String("crsid", crsid), zap.Error(err))
		}
	}
	return person, nil
}

// Invalidate drops the cached entry for crsid.
func (c *Cached) Invalidate(ctx context.Context, crsid string) error {
	if c == nil {
		return errors.New("directory: cache not configured")
	}
	return c.store.Delete(ctx, cacheKeyPrefix+crsid)
}
