package security

// cacheKey is the normalized identity triple.
type cacheKey struct {
	profile string
	user    string
	action  string
}

// Cache memoizes permission decisions for the lifetime of one session.
// Entries never expire. Scoped to a single session; not safe for
// concurrent use.
type Cache struct {
	entries map[cacheKey]bool
}

// NewCache creates an empty permission cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]bool)}
}

// Get returns the cached decision for the normalized triple, if present.
func (c *Cache) Get(profile, user, action string) (bool, bool) {
	v, ok := c.entries[cacheKey{profile, user, action}]
	return v, ok
}

// Put records a decision for the normalized triple.
func (c *Cache) Put(profile, user, action string, allowed bool) {
	c.entries[cacheKey{profile, user, action}] = allowed
}

// Len returns the number of cached decisions.
func (c *Cache) Len() int {
	return len(c.entries)
}
