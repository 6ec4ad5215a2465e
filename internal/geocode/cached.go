package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/normalize"
)

// Cached memoizes successful resolutions of another Geocoder.
// Addresses that differ only in case, accents or punctuation share an entry.
// Failures are never cached.
type Cached struct {
	next  Geocoder
	cache *ristretto.Cache[string, domain.Location]
	ttl   time.Duration
}

// NewCached wraps next with a cache holding up to size entries for ttl.
func NewCached(next Geocoder, size int64, ttl time.Duration) (*Cached, error) {
	if size <= 0 {
		size = 1
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, domain.Location]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}

	return &Cached{next: next, cache: cache, ttl: ttl}, nil
}

// Resolve implements Geocoder.
func (c *Cached) Resolve(ctx context.Context, address string) (domain.Location, error) {
	key := normalize.AddressKey(address)
	if key != "" {
		if loc, ok := c.cache.Get(key); ok {
			return loc, nil
		}
	}

	loc, err := c.next.Resolve(ctx, address)
	if err != nil {
		return domain.Location{}, err
	}

	if key != "" {
		c.cache.SetWithTTL(key, loc, 1, c.ttl)
	}
	return loc, nil
}

// Wait blocks until pending cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *Cached) Close() {
	c.cache.Close()
}
