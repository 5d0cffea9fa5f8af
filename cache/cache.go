// Package cache deduplicates translation requests within one run.
//
// Entries are keyed by the exact (text, language, context) triple; there is
// no normalization and nothing is persisted. A Cache is created per run and
// handed to the components that need it.
package cache

// Key identifies one translation request.
type Key struct {
	Text    string
	Lang    string
	Context string
}

// Cache is an in-memory translation cache. It is not safe for concurrent
// use; a run drives it from a single goroutine.
type Cache struct {
	entries map[Key]string
	hits    int
	misses  int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]string)}
}

// Get returns the cached translation for the triple.
func (c *Cache) Get(text, lang, context string) (string, bool) {
	v, ok := c.entries[Key{Text: text, Lang: lang, Context: context}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores a translation for the triple.
func (c *Cache) Put(text, lang, context, translation string) {
	c.entries[Key{Text: text, Lang: lang, Context: context}] = translation
}

// Len returns the number of cached translations.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Hits returns the number of successful lookups.
func (c *Cache) Hits() int {
	return c.hits
}

// Misses returns the number of failed lookups.
func (c *Cache) Misses() int {
	return c.misses
}
