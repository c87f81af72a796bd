// Package fetch implements the downloading half of the crawler: a retrying
// HTTP client derived from the teacher's fetcher.stdHttpFetcher, stripped of
// the HTML parsing responsibility (which moves to package parse) so it can
// be reused unchanged by the robots-cache fetch in package domain.
package fetch

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// Fetcher performs a single timed HTTP GET.
type Fetcher struct {
	userAgent string
	client    *http.Client
}

// New creates a Fetcher with the given user agent and total request timeout
// (spec.md §4.3: 5-second timeout for page fetches). It retries temporary
// transport errors with an exponential jitter backoff, exactly as the
// teacher's fetcher.New does.
func New(userAgent string, timeout time.Duration) *Fetcher {
	transport := rehttp.NewTransport(
		&http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1, 10*time.Second),
	)
	return &Fetcher{
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Fetch issues a GET request to url with the configured User-Agent header,
// returning the elapsed time, the raw response, and any error encountered.
func (f *Fetcher) Fetch(url string) (time.Duration, *http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	start := time.Now()
	res, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, nil, err
	}
	return elapsed, res, nil
}
