package corpus

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	body := ""
	for _, l := range lines {
		body += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReaderReadsAllRecords(t *testing.T) {
	path := writeCorpus(t,
		`{"id":1,"title":"Dogs","text":"dogs are great"}`,
		`{"id":2,"title":"Cats","text":"cats are great too"}`,
	)
	r, err := New(path)
	require.NoError(t, err)
	defer r.Close()

	var got []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].ID)
	require.Equal(t, "Dogs", got[0].Title)
}

func TestReaderSkipsBlankLines(t *testing.T) {
	path := writeCorpus(t, `{"id":1,"title":"A","text":"b"}`, "", `{"id":2,"title":"C","text":"d"}`)
	r, err := New(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 2, count)
}

func TestReaderIgnoresUnknownFields(t *testing.T) {
	path := writeCorpus(t, `{"id":1,"title":"A","text":"b","url":"http://example.com"}`)
	r, err := New(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 1, rec.ID)
	require.Equal(t, "A", rec.Title)
	require.Equal(t, "b", rec.Text)
}
