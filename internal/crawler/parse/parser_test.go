package parse

import (
	"strings"
	"testing"
)

func TestParserExtractsLinksAndStripsScripts(t *testing.T) {
	p := New()
	content := strings.NewReader(`
		<html>
		<head><title> Hello World </title></head>
		<body>
			<script>var x = 1;</script>
			<style>.a{color:red}</style>
			<noscript>fallback</noscript>
			<p>Some visible text.</p>
			<a href="/foo/bar">link</a>
			<a href="https://other.com/page">absolute</a>
			<a href="ftp://nope.com/x">ignored</a>
		</body>
		</html>`)
	page, err := p.Parse("http://example.com", content)
	if err != nil {
		t.Fatalf("Parser#Parse failed: %v", err)
	}
	if page.Title != "Hello World" {
		t.Errorf("Parser#Parse failed: expected title 'Hello World' got %q", page.Title)
	}
	if strings.Contains(page.Text, "var x") || strings.Contains(page.Text, "color:red") {
		t.Errorf("Parser#Parse failed: script/style content leaked into text: %q", page.Text)
	}
	if !strings.Contains(page.Text, "Some visible text.") {
		t.Errorf("Parser#Parse failed: expected visible text preserved")
	}
	if len(page.Links) != 1 {
		t.Errorf("Parser#Parse failed: expected 1 absolute http(s) link got %d", len(page.Links))
	}
}

func TestParserMalformedHTML(t *testing.T) {
	p := New()
	_, err := p.Parse("http://example.com", strings.NewReader("<<<not html"))
	if err != nil {
		t.Errorf("Parser#Parse failed: goquery tolerates malformed html, got error %v", err)
	}
}
