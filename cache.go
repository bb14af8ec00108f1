package main

// ListingStatus is the fetch state of one container's listing.
type ListingStatus int

const (
	ListingNotLoaded ListingStatus = iota
	ListingLoading
	ListingLoaded
	ListingFailed
)

// Listing holds the cached page state for one container. Items accumulate
// across pages in arrival order; the remote API guarantees non-overlapping
// pages for a stable cursor, so the cache never reorders or deduplicates.
type Listing struct {
	Status    ListingStatus
	Items     []Entry
	NextToken string
	HasMore   bool
	Err       error

	// gen is the staleness token: only completions carrying the current
	// generation are applied. It is monotonic for the lifetime of the
	// cache entry and survives Invalidate, so a stale in-flight request
	// can never match a fresh load.
	gen int
}

// ListingCache owns per-container listing state. It is owned exclusively
// by the update loop and is therefore unsynchronized; asynchronous tasks
// never touch it directly.
type ListingCache struct {
	entries map[string]*Listing
}

// NewListingCache creates an empty cache.
func NewListingCache() *ListingCache {
	return &ListingCache{entries: make(map[string]*Listing)}
}

// Get returns the listing for key. Never blocks; unknown keys read as a
// NotLoaded listing.
func (c *ListingCache) Get(key string) *Listing {
	if l, ok := c.entries[key]; ok {
		return l
	}
	return &Listing{Status: ListingNotLoaded}
}

// BeginLoad marks key as Loading and returns the request token that a
// completion must present. Items already loaded are kept, so a load-more
// request extends the listing instead of replacing it.
func (c *ListingCache) BeginLoad(key string) int {
	l, ok := c.entries[key]
	if !ok {
		l = &Listing{}
		c.entries[key] = l
	}
	l.gen++
	l.Status = ListingLoading
	l.Err = nil
	return l.gen
}

// AppendPage applies a completed page. A stale token is silently ignored
// and false is returned.
func (c *ListingCache) AppendPage(key string, token int, items []Entry, nextToken string, hasMore bool) bool {
	l, ok := c.entries[key]
	if !ok || l.gen != token {
		return false
	}
	l.Items = append(l.Items, items...)
	l.NextToken = nextToken
	l.HasMore = hasMore
	l.Status = ListingLoaded
	l.Err = nil
	return true
}

// MarkFailed records a failed load under the same staleness guard.
func (c *ListingCache) MarkFailed(key string, token int, err error) bool {
	l, ok := c.entries[key]
	if !ok || l.gen != token {
		return false
	}
	l.Status = ListingFailed
	l.Err = err
	return true
}

// Invalidate resets key to NotLoaded, dropping its items. The generation
// counter is preserved so that results of superseded requests stay stale.
func (c *ListingCache) Invalidate(key string) {
	l, ok := c.entries[key]
	if !ok {
		return
	}
	l.Status = ListingNotLoaded
	l.Items = nil
	l.NextToken = ""
	l.HasMore = false
	l.Err = nil
}

// Clear drops every cached listing. Bound to the explicit cache-clear
// command; listings otherwise live until process exit. Entries are reset
// rather than evicted so generation counters survive and completions of
// requests issued before the clear stay stale.
func (c *ListingCache) Clear() {
	for key := range c.entries {
		c.Invalidate(key)
	}
}
