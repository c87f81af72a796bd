// Package domain implements the per-domain politeness controller and robots
// cache described by the teacher's CrawlingRules, generalized to track an
// explicit per-domain concurrency semaphore alongside the politeness mutex
// and the robots.txt group, and keyed by host rather than by a single base
// domain per crawl.
package domain

import (
	"net/http"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Fetcher is the subset of crawler fetching behavior the robots-cache needs:
// a single GET that returns the raw *http.Response together with elapsed
// time, mirroring fetch.Fetcher.Fetch.
type Fetcher interface {
	Fetch(url string) (time.Duration, *http.Response, error)
}

// robotsTxtPath is the well-known path robots rules are served from.
const robotsTxtPath = "/robots.txt"

// Controller holds the politeness state for a single domain: parsed robots
// rules, a mutex gating request spacing, a semaphore gating concurrency, and
// the timestamp of the last request allowed through.
type Controller struct {
	host string

	mu              sync.Mutex
	robots          *robotstxt.Group
	unfetchable     bool
	lastRequestTime time.Time

	sem chan struct{}

	defaultDelay time.Duration
}

// NewController creates a Controller for a host, sized to allow
// maxConcurrent in-flight requests for that domain.
func NewController(host string, maxConcurrent int, defaultDelay time.Duration) *Controller {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Controller{
		host:         host,
		sem:          make(chan struct{}, maxConcurrent),
		defaultDelay: defaultDelay,
	}
}

// FetchRobots attempts to fetch and parse http://<host>/robots.txt using the
// supplied Fetcher. On any failure the domain is marked unfetchable: all of
// its URLs must subsequently be dropped by the caller (spec.md §4.2, §7).
func (c *Controller) FetchRobots(f Fetcher, userAgent string) bool {
	_, resp, err := f.Fetch("http://" + c.host + robotsTxtPath)
	if err != nil {
		c.markUnfetchable()
		return false
	}
	if resp.StatusCode == http.StatusNotFound {
		// No robots.txt: full access assumed, domain remains fetchable.
		return true
	}
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.markUnfetchable()
		return false
	}
	c.mu.Lock()
	c.robots = data.FindGroup(userAgent)
	c.mu.Unlock()
	return true
}

func (c *Controller) markUnfetchable() {
	c.mu.Lock()
	c.unfetchable = true
	c.mu.Unlock()
}

// Unfetchable reports whether the robots.txt fetch for this domain failed.
func (c *Controller) Unfetchable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unfetchable
}

// CanFetch reports whether path is allowed by the cached robots group. A nil
// group (no robots.txt present) allows everything.
func (c *Controller) CanFetch(path string) bool {
	c.mu.Lock()
	g := c.robots
	c.mu.Unlock()
	if g == nil {
		return true
	}
	return g.Test(path)
}

// AwaitPoliteness blocks, inside the politeness mutex, until the per-domain
// crawl-delay has elapsed since the last request, then stamps the current
// time as the new last-request time. This guarantees a minimum inter-arrival
// of CrawlDelay across requests to this domain (spec.md §4.2), independent
// of how many requests are concurrently in flight (that's sem's job).
func (c *Controller) AwaitPoliteness() {
	c.mu.Lock()
	defer c.mu.Unlock()
	delay := c.crawlDelayLocked()
	now := time.Now()
	elapsed := now.Sub(c.lastRequestTime)
	if c.lastRequestTime.IsZero() {
		elapsed = delay
	}
	if elapsed < delay {
		time.Sleep(delay - elapsed)
	}
	c.lastRequestTime = time.Now()
}

func (c *Controller) crawlDelayLocked() time.Duration {
	if c.robots != nil && c.robots.CrawlDelay > 0 {
		return c.robots.CrawlDelay
	}
	return c.defaultDelay
}

// Acquire blocks until a per-domain concurrency permit is available.
func (c *Controller) Acquire() { c.sem <- struct{}{} }

// Release returns a per-domain concurrency permit.
func (c *Controller) Release() { <-c.sem }
