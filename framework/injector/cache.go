package injector

import (
	gocache "github.com/patrickmn/go-cache"
)

// resolutionCache memoizes resolved values. Entries never expire; a key
// only counts as resolved while its value is non-empty.
type resolutionCache struct {
	store *gocache.Cache
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{store: gocache.New(gocache.NoExpiration, 0)}
}

// lookup returns the memoized value for key when it is non-empty.
func (c *resolutionCache) lookup(key string) (any, bool) {
	v, found := c.store.Get(key)
	if !found || isEmpty(v) {
		return nil, false
	}
	return v, true
}

func (c *resolutionCache) put(key string, value any) {
	c.store.Set(key, value, gocache.NoExpiration)
}
