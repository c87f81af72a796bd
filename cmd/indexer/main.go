// Command indexer drives a full external-memory index build from a JSONL
// corpus (spec.md §6 "CLI surface (indexer)").
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codepr/searchengine/internal/index"
	"github.com/codepr/searchengine/internal/index/corpus"
	"github.com/codepr/searchengine/internal/metrics"
)

var (
	corpusPath  string
	indexDir    string
	memoryMB    int
	workers     int
	batchSize   int
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build an external-memory inverted index from a JSONL corpus.",
	Long: `indexer streams a JSONL corpus, tokenizes documents across a worker
pool, accumulates postings in memory, spills sorted partial runs under
memory pressure, and merges everything into a final inverted index,
term lexicon, and document index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusPath == "" {
			return fmt.Errorf("--corpus is required")
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

		reader, err := corpus.New(corpusPath)
		if err != nil {
			return fmt.Errorf("opening corpus: %w", err)
		}
		defer reader.Close()

		ix := index.NewIndexer(reader, indexDir, memoryMB, workers, batchSize)
		n, err := ix.Build()
		if err != nil {
			return fmt.Errorf("building index: %w", err)
		}

		stats, err := ix.Stats()
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}
		report, err := json.MarshalIndent(map[string]interface{}{
			"Index Size":        float64(stats.IndexSize) / (1024 * 1024),
			"Elapsed Time":      stats.ElapsedTime.Seconds(),
			"Number of Lists":   stats.NumberOfLists,
			"Average List Size": stats.AverageListSize,
			"Documents Indexed": n,
		}, "", "\t")
		if err != nil {
			return fmt.Errorf("marshaling stats: %w", err)
		}
		fmt.Println(string(report))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&corpusPath, "corpus", "", "path to the JSONL corpus (required)")
	rootCmd.Flags().StringVar(&indexDir, "index", "index", "output directory for the built index")
	rootCmd.Flags().IntVar(&memoryMB, "memory", 512, "memory budget in megabytes driving the spill heuristic")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "number of parallel tokenization workers")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 1000, "number of documents tokenized per batch")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
