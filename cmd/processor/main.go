// Command processor answers top-k ranked queries against a built index
// (spec.md §6 "CLI surface (processor)").
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codepr/searchengine/internal/metrics"
	"github.com/codepr/searchengine/internal/query"
)

var (
	queriesPath string
	indexDir    string
	ranker      string
	topK        int
	metricsAddr string
)

// queryOutput is one line of processor output, mirroring the original
// implementation's {"Query": ..., "Results": [...]} shape.
type queryOutput struct {
	Query   string          `json:"Query"`
	Results []query.Result `json:"Results"`
}

var rootCmd = &cobra.Command{
	Use:   "processor",
	Short: "Answer top-k ranked queries against a built inverted index.",
	Long: `processor loads a term lexicon and document index into memory, opens
the inverted index for random line access, and answers each query in
--queries with a WAND top-k disjunctive search, printing one JSON line of
results per query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if queriesPath == "" {
			return fmt.Errorf("--queries is required")
		}
		if indexDir == "" {
			return fmt.Errorf("--index is required")
		}

		if metricsAddr != "" {
			go func() {
				if err := metrics.Serve(metricsAddr); err != nil {
					fmt.Fprintln(os.Stderr, "metrics server:", err)
				}
			}()
		}

		p, err := query.New(indexDir, ranker)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer p.Close()

		qf, err := os.Open(queriesPath)
		if err != nil {
			return fmt.Errorf("opening queries file: %w", err)
		}
		defer qf.Close()

		enc := json.NewEncoder(os.Stdout)
		scanner := bufio.NewScanner(qf)
		for scanner.Scan() {
			q := strings.TrimSpace(scanner.Text())
			if q == "" {
				continue
			}
			start := time.Now()
			results, err := p.Query(q, topK)
			metrics.QueryLatency.Observe(time.Since(start).Seconds())
			if err != nil {
				fmt.Fprintf(os.Stderr, "querying %q: %v\n", q, err)
				continue
			}
			if err := enc.Encode(queryOutput{Query: q, Results: results}); err != nil {
				return fmt.Errorf("encoding results for %q: %w", q, err)
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.Flags().StringVar(&queriesPath, "queries", "", "path to a file of newline-delimited queries (required)")
	rootCmd.Flags().StringVar(&indexDir, "index", "index", "directory containing the built index")
	rootCmd.Flags().StringVar(&ranker, "ranker", "BM25", "scoring function: TFIDF or BM25")
	rootCmd.Flags().IntVar(&topK, "top", 10, "number of results to return per query")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
