package domain

import (
	"sync"
	"time"
)

// Registry is a thread-safe host -> *Controller map. Lookups and inserts
// are synchronized here; once obtained, a Controller is accessed without
// holding the registry lock (spec.md §5 "Domain controller map").
type Registry struct {
	mu                sync.Mutex
	controllers       map[string]*Controller
	maxConcurrent     int
	defaultCrawlDelay time.Duration
}

// NewRegistry creates an empty Registry. maxConcurrent and defaultCrawlDelay
// configure every Controller lazily created by GetOrCreate.
func NewRegistry(maxConcurrent int, defaultCrawlDelay time.Duration) *Registry {
	return &Registry{
		controllers:       make(map[string]*Controller),
		maxConcurrent:     maxConcurrent,
		defaultCrawlDelay: defaultCrawlDelay,
	}
}

// GetOrCreate returns the Controller for host, creating and registering a
// fresh one on first sighting.
func (r *Registry) GetOrCreate(host string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[host]
	if ok {
		return c, false
	}
	c = NewController(host, r.maxConcurrent, r.defaultCrawlDelay)
	r.controllers[host] = c
	return c, true
}
