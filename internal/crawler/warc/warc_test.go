package warc

import (
	"bufio"
	"compress/gzip"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeResponse() *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: 200,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
	}
}

func countRecords(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gr.Close()
	scanner := bufio.NewScanner(gr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	count := 0
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "WARC/1.0") {
			count++
		}
	}
	return count
}

func TestWriterRotation(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	w, err := New(corpus, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Write("http://example.com/"+string(rune('a'+i)), fakeResponse(), []byte("<html>body</html>")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := countRecords(t, filepath.Join(corpus, "crawl_1.warc")); got != 2 {
		t.Errorf("crawl_1.warc: expected 2 records got %d", got)
	}
	if got := countRecords(t, filepath.Join(corpus, "crawl_2.warc")); got != 2 {
		t.Errorf("crawl_2.warc: expected 2 records got %d", got)
	}
	if got := countRecords(t, filepath.Join(corpus, "crawl_3.warc")); got != 1 {
		t.Errorf("crawl_3.warc: expected 1 record got %d", got)
	}
}

func TestWriterWipesExistingDir(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	if err := os.MkdirAll(corpus, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(corpus, "stale.txt")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := New(corpus, 1000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()
	if _, err := os.Stat(stale); err == nil {
		t.Errorf("New failed: expected stale file removed")
	}
}
