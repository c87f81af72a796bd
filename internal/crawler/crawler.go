// Package crawler implements the polite, concurrent WARC-producing
// crawler: seed ingestion, dispatch loop, worker pool, link extraction,
// duplicate suppression, and page-quota termination (spec.md §4.3). The
// dispatch/worker-pool shape and option pattern are carried over from the
// teacher's crawler.WebCrawler, generalized from the teacher's per-root
// depth-limited walk to the spec's frontier-driven, page-quota-bounded
// engine.
package crawler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codepr/searchengine/internal/crawler/domain"
	"github.com/codepr/searchengine/internal/crawler/fetch"
	"github.com/codepr/searchengine/internal/crawler/frontier"
	"github.com/codepr/searchengine/internal/crawler/parse"
	"github.com/codepr/searchengine/internal/crawler/warc"
	"github.com/codepr/searchengine/internal/env"
	"github.com/codepr/searchengine/internal/metrics"
)

const (
	// DefaultUserAgent is the user agent used by the crawler binary.
	DefaultUserAgent = "SimpleCrawler/1.0.0"

	defaultMaxPageCount       = 1000
	defaultConcurrency        = 8
	defaultDomainConcurrency  = 2
	defaultCrawlDelay         = 500 * time.Millisecond
	defaultSaveInterval       = 1000
	defaultFetchTimeout       = 5 * time.Second
)

// Settings configures a Crawler's behavior.
type Settings struct {
	SeedFile          string
	CorpusDir         string
	MaxPageCount      int
	Concurrency       int
	DomainConcurrency int
	CrawlDelay        time.Duration
	SaveInterval      int
	UserAgent         string
	Debug             bool
	ShowProgress      bool
	CheckpointPath    string
	MakeCheckpoints   bool
}

// Opt is a functional option for Settings.
type Opt func(*Settings)

func defaultSettings() *Settings {
	return &Settings{
		CorpusDir:         "corpus",
		MaxPageCount:      defaultMaxPageCount,
		Concurrency:       defaultConcurrency,
		DomainConcurrency: defaultDomainConcurrency,
		CrawlDelay:        defaultCrawlDelay,
		SaveInterval:      defaultSaveInterval,
		UserAgent:         DefaultUserAgent,
	}
}

// WithMaxPageCount overrides the page quota.
func WithMaxPageCount(n int) Opt { return func(s *Settings) { s.MaxPageCount = n } }

// WithConcurrency overrides the global concurrency cap.
func WithConcurrency(n int) Opt { return func(s *Settings) { s.Concurrency = n } }

// WithDomainConcurrency overrides the per-domain concurrency cap.
func WithDomainConcurrency(n int) Opt { return func(s *Settings) { s.DomainConcurrency = n } }

// WithCrawlDelay overrides the default (non-robots.txt) crawl delay.
func WithCrawlDelay(d time.Duration) Opt { return func(s *Settings) { s.CrawlDelay = d } }

// WithSaveInterval overrides the WARC rotation interval.
func WithSaveInterval(n int) Opt { return func(s *Settings) { s.SaveInterval = n } }

// WithDebug toggles per-page debug JSON output.
func WithDebug(v bool) Opt { return func(s *Settings) { s.Debug = v } }

// WithShowProgress toggles progress line output.
func WithShowProgress(v bool) Opt { return func(s *Settings) { s.ShowProgress = v } }

// WithCorpusDir overrides the WARC output directory.
func WithCorpusDir(dir string) Opt { return func(s *Settings) { s.CorpusDir = dir } }

// WithCheckpoint enables checkpointing to path on close.
func WithCheckpoint(path string) Opt {
	return func(s *Settings) { s.CheckpointPath = path; s.MakeCheckpoints = true }
}

// Crawler is the top-level engine tying the frontier, domain registry,
// fetcher, parser, and WARC writer together.
type Crawler struct {
	logger   *log.Logger
	settings *Settings

	frontier *frontier.Frontier
	visited  *visitedSet
	domains  *domain.Registry
	fetcher  *fetch.Fetcher
	parser   parse.Parser
	writer   *warc.Writer

	sem chan struct{}

	count int32
	run   int32 // atomic bool: 1 = running, 0 = stopped
}

// New creates a Crawler ready to run against the given Settings (or
// defaults mixed with opts).
func New(seedFile string, opts ...Opt) (*Crawler, error) {
	settings := defaultSettings()
	settings.SeedFile = seedFile
	for _, opt := range opts {
		opt(settings)
	}

	writer, err := warc.New(settings.CorpusDir, settings.SaveInterval)
	if err != nil {
		return nil, err
	}

	visited := newVisitedSet()
	if settings.MakeCheckpoints {
		visited = newTrackedVisitedSet()
	}

	return &Crawler{
		logger:   log.New(os.Stderr, "crawler: ", log.LstdFlags),
		settings: settings,
		frontier: frontier.New(),
		visited:  visited,
		domains:  domain.NewRegistry(settings.DomainConcurrency, settings.CrawlDelay),
		fetcher:  fetch.New(settings.UserAgent, defaultFetchTimeout),
		parser:   parse.New(),
		writer:   writer,
		sem:      make(chan struct{}, settings.Concurrency),
		run:      1,
	}, nil
}

// NewFromEnv creates a Crawler reading defaults from environment variables,
// mirroring the teacher's NewFromEnv.
func NewFromEnv(seedFile string, opts ...Opt) (*Crawler, error) {
	base := []Opt{
		WithMaxPageCount(env.GetEnvAsInt("MAX_PAGE_COUNT", defaultMaxPageCount)),
		WithConcurrency(env.GetEnvAsInt("CONCURRENCY", defaultConcurrency)),
		WithDomainConcurrency(env.GetEnvAsInt("DOMAIN_CONCURRENCY", defaultDomainConcurrency)),
		WithCrawlDelay(env.GetEnvAsDuration("CRAWL_DELAY", defaultCrawlDelay)),
		WithSaveInterval(env.GetEnvAsInt("SAVE_INTERVAL", defaultSaveInterval)),
		WithDebug(env.GetEnvAsBool("DEBUG", false)),
		WithShowProgress(env.GetEnvAsBool("SHOW_PROGRESS", false)),
	}
	return New(seedFile, append(base, opts...)...)
}

// loadSeeds reads the seed file: one URL per line, trailing whitespace
// stripped, blank lines ignored (spec.md §6).
func loadSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("crawler: opening seed file %s: %w", path, err)
	}
	defer f.Close()
	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("crawler: reading seed file %s: %w", path, err)
	}
	return seeds, nil
}

// loadCheckpointIfPresent restores a prior run's frontier and visited set
// from c.settings.CheckpointPath, if that path exists. A missing checkpoint
// file is not an error: checkpointing is advisory and best-effort (spec.md
// §6), so a fresh run simply starts empty.
func (c *Crawler) loadCheckpointIfPresent() (Checkpoint, bool) {
	if _, err := os.Stat(c.settings.CheckpointPath); err != nil {
		return Checkpoint{}, false
	}
	cp, err := LoadCheckpoint(c.settings.CheckpointPath)
	if err != nil {
		c.logger.Println("checkpoint load failed:", err)
		return Checkpoint{}, false
	}
	return cp, true
}

// Run ingests seeds and drives the dispatch loop until the page quota is
// reached or ctx is cancelled. It is the engine's entry point (spec.md
// §4.3 start/fetch_page).
func (c *Crawler) Run(ctx context.Context) error {
	seeds, err := loadSeeds(c.settings.SeedFile)
	if err != nil {
		return err
	}

	if c.settings.MakeCheckpoints {
		if cp, ok := c.loadCheckpointIfPresent(); ok {
			c.visited.Load(cp.Visited)
			c.frontier.Load(cp.Frontier)
			atomic.StoreInt32(&c.count, int32(cp.Count))
		}
	}
	c.frontier.Load(seeds)

	var wg sync.WaitGroup
	for atomic.LoadInt32(&c.run) == 1 {
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&c.run, 0)
		default:
		}
		u, ok := c.frontier.TryGet()
		if !ok {
			if atomic.LoadInt32(&c.run) == 0 {
				break
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		// Claim the URL before dispatch so a duplicate still in the
		// frontier cannot be fetched while the first fetch is in flight.
		if !c.visited.MarkVisited(u) {
			continue
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			c.fetchPage(ctx, u)
		}(u)
	}
	wg.Wait()

	if c.settings.MakeCheckpoints {
		cp := Checkpoint{
			FileIndex: c.writer.FileIndex(),
			Count:     int(atomic.LoadInt32(&c.count)),
			Frontier:  c.frontier.Snapshot(),
			Visited:   c.visited.Snapshot(),
		}
		if err := SaveCheckpoint(c.settings.CheckpointPath, cp); err != nil {
			c.logger.Println("checkpoint save failed:", err)
		}
	}
	return c.writer.Close()
}

// fetchPage fetches a single URL, respecting robots and politeness,
// extracts links, enqueues unseen ones, writes a WARC record, and marks the
// URL visited (spec.md §4.3).
func (c *Crawler) fetchPage(ctx context.Context, rawURL string) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return // malformed host extraction: drop silently
	}
	host := parsed.Host

	ctrl, created := c.domains.GetOrCreate(host)
	if created {
		c.logger.Printf("fetching robots.txt for %s", host)
		ctrl.FetchRobots(c.fetcher, c.settings.UserAgent)
	}
	if ctrl.Unfetchable() {
		return
	}

	ctrl.AwaitPoliteness()

	if !ctrl.CanFetch(parsed.RequestURI()) {
		return
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	ctrl.Acquire()
	defer func() {
		ctrl.Release()
		<-c.sem
	}()

	_, resp, err := c.fetcher.Fetch(rawURL)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	page, err := c.parser.Parse(rawURL, bytes.NewReader(body))
	if err != nil {
		return // content-parse failure: drop page, do not enqueue outlinks
	}

	if c.settings.Debug {
		c.printDebug(rawURL, page)
	}

	for _, link := range page.Links {
		linkStr := link.String()
		if strings.HasPrefix(linkStr, "http") && !c.visited.Contains(linkStr) {
			c.frontier.Put(linkStr)
		}
	}

	if err := c.writer.Write(rawURL, resp, body); err != nil {
		c.logger.Println("warc write failed:", err)
	}

	c.visited.MarkVisited(rawURL)
	metrics.PagesCrawled.Inc()

	n := atomic.AddInt32(&c.count, 1)
	if c.settings.ShowProgress {
		fmt.Printf("%d of %d\n", n, c.settings.MaxPageCount)
	}
	if int(n) >= c.settings.MaxPageCount {
		atomic.StoreInt32(&c.run, 0)
	}
}

func (c *Crawler) printDebug(url string, page *parse.Page) {
	words := strings.Fields(page.Text)
	if len(words) > 20 {
		words = words[:20]
	}
	summary := struct {
		Title     string `json:"Title"`
		URL       string `json:"URL"`
		Text      string `json:"Text"`
		Timestamp int64  `json:"Timestamp"`
	}{
		Title:     page.Title,
		URL:       url,
		Text:      strings.Join(words, " "),
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	fmt.Println(string(data))
}
