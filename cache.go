package folio

import (
	"sync"
	"time"
)

// HomeCache is an in-memory TTL cache of the published posts and featured
// projects the home page renders on every hit.
type HomeCache struct {
	mu       sync.RWMutex
	posts    []BlogPost
	projects []Project
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewHomeCache creates a HomeCache backed by the given Store.
func NewHomeCache(s *Store, ttl time.Duration) *HomeCache {
	return &HomeCache{store: s, ttl: ttl}
}

func (c *HomeCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *HomeCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.projects = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached data after refreshing it if stale. It tries a
// read lock first; only takes a write lock when a reload is needed.
func (c *HomeCache) ensureLoaded() ([]BlogPost, []Project, error) {
	c.mu.RLock()
	if c.valid() {
		posts, projects := c.posts, c.projects
		c.mu.RUnlock()
		return posts, projects, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, c.projects, nil
	}
	posts, err := c.store.HomepageBlogPosts()
	if err != nil {
		return nil, nil, err
	}
	projects, err := c.store.FeaturedProjects()
	if err != nil {
		return nil, nil, err
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	c.posts = posts
	c.projects = projects
	c.fetched = time.Now()
	return c.posts, c.projects, nil
}

// Posts returns the published blog posts for the home page.
func (c *HomeCache) Posts() ([]BlogPost, error) {
	posts, _, err := c.ensureLoaded()
	return posts, err
}

// Projects returns the up-to-3 featured projects for the home page.
func (c *HomeCache) Projects() ([]Project, error) {
	_, projects, err := c.ensureLoaded()
	return projects, err
}
