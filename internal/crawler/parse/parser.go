// Package parse extracts outbound links and page text from an HTML
// document, built on github.com/PuerkitoBio/goquery exactly as the
// teacher's fetcher.GoqueryParser does. It additionally strips
// <script>/<style>/<noscript> content and extracts the title and visible
// text, since SPEC_FULL.md's crawler writes JSONL-ready page records
// alongside raw WARC payloads (crawler/main.py's debug branch and the
// indexer's expectation of {id,title,text} records).
package parse

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the result of parsing a single fetched HTML document.
type Page struct {
	Title string
	Text  string
	Links []*url.URL
}

// Parser extracts a Page from raw HTML relative to baseURL.
type Parser struct{}

// New creates a Parser.
func New() Parser { return Parser{} }

// Parse reads HTML from r and extracts the title, stripped body text, and
// every absolute http(s) anchor link. Only hrefs that already begin with
// "http" make it into the result (spec.md §4.3: "relative links are not
// followed").
func (Parser) Parse(baseURL string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find("script,style,noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.TrimSpace(doc.Text())

	links := extractLinks(doc, baseURL)
	return &Page{Title: title, Text: text, Links: links}, nil
}

// extractLinks collects every <a href> whose value is already an absolute
// http(s) URL; relative hrefs are skipped.
func extractLinks(doc *goquery.Document, baseURL string) []*url.URL {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	found := []*url.URL{}
	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return
		}
		resolved, ok := resolve(base, href)
		if !ok || !strings.HasPrefix(resolved.String(), "http") {
			return
		}
		if seen[resolved.String()] {
			return
		}
		seen[resolved.String()] = true
		found = append(found, resolved)
	})
	return found
}

func resolve(base *url.URL, href string) (*url.URL, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return base.ResolveReference(u), true
}
