// Package tokenize implements the pure record -> token-list function
// described by spec.md §4.5, grounded on the Python original's
// record_parser.RecordParser: lowercase, extract \b\w+\b tokens, drop a
// fixed English stopword set, stem survivors with Snowball-English. The
// teacher (codepr/webcrawler) lists github.com/kljensen/snowball in its
// go.mod without ever importing it; this is where it is finally exercised.
package tokenize

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/english"
)

var tokenPattern = regexp.MustCompile(`\b\w+\b`)

// Record is the minimal shape the tokenizer needs from a corpus entry.
type Record struct {
	Title string
	Text  string
}

// Tokens lowercases title+" "+text, extracts word tokens, drops stopwords,
// and stems survivors, preserving input order (spec.md §4.5: "needed so the
// indexer can derive in-document frequencies"). Determinism: identical
// input always yields an identical token slice.
func Tokens(r Record) []string {
	combined := strings.ToLower(r.Title + " " + r.Text)
	raw := tokenPattern.FindAllString(combined, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if IsStopword(tok) {
			continue
		}
		out = append(out, english.Stem(tok, true))
	}
	return out
}
