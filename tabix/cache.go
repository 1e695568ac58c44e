package tabix

import "sync"

// Cache is a read-through cache of open track file handles keyed by
// path.  Caching is safe because track files are immutable once
// registered and a File's parsed index supports concurrent queries.
type Cache struct {
	opener Opener

	mu    sync.Mutex
	files map[string]*File
}

// NewCache returns an empty cache that opens files with opener (nil
// means the local filesystem).
func NewCache(opener Opener) *Cache {
	return &Cache{opener: opener, files: make(map[string]*File)}
}

// Open returns the cached handle for path, opening and parsing the
// index on first use.
func (c *Cache) Open(path string) (*File, error) {
	c.mu.Lock()
	if f, ok := c.files[path]; ok {
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	// The index parse happens outside the lock so one slow open does
	// not stall queries against other files.
	f, err := Open(path, c.opener)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.files[path]; ok {
		return existing, nil
	}
	c.files[path] = f
	return f, nil
}
