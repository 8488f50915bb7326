package gallery

import "sync"

// Cache is a lazily-populated, directory-keyed metadata cache shared by
// concurrent requests. Entries never expire; the only eviction trigger
// is an explicit Invalidate after a caption mutation.
type Cache struct {
	mu        sync.RWMutex
	galleries map[string]*Gallery
}

// NewCache returns an empty cache. The cache is constructed by the
// server's composition root and passed by handle into the dispatcher.
func NewCache() *Cache {
	return &Cache{galleries: map[string]*Gallery{}}
}

// GetOrLoad returns the cached gallery for dir, loading it from the
// persisted metadata file on first access. A missing metadata file
// propagates as the error from Load.
func (c *Cache) GetOrLoad(dir string) (*Gallery, error) {
	c.mu.RLock()
	g := c.galleries[dir]
	c.mu.RUnlock()
	if g != nil {
		return g, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have loaded it while we waited for the lock.
	if g := c.galleries[dir]; g != nil {
		return g, nil
	}

	g, err := Load(dir)
	if err != nil {
		return nil, err
	}
	c.galleries[dir] = g
	return g, nil
}

// Invalidate removes the cached entry for dir, forcing a reload from
// disk on the next access.
func (c *Cache) Invalidate(dir string) {
	c.mu.Lock()
	delete(c.galleries, dir)
	c.mu.Unlock()
}
