// Command crawler runs the polite, concurrent WARC-producing web crawler
// (spec.md §6 "CLI surface (crawler)").
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codepr/searchengine/internal/crawler"
	"github.com/codepr/searchengine/internal/metrics"
)

var (
	seedsPath         string
	corpusDir         string
	metricsAddr       string
	number            int
	concurrency       int
	domainConcurrency int
	crawlDelay        time.Duration
	saveInterval      int
	debug             bool
	showProgress      bool
	checkpointPath    string
)

var rootCmd = &cobra.Command{
	Use:   "crawler",
	Short: "A polite, concurrent WARC-producing web crawler.",
	Long: `crawler reads seed URLs from a file, crawls them in the order drawn by a
randomized-priority frontier, respects robots.txt and per-domain crawl
delays, and writes fetched pages to a rotating gzip-compressed WARC
corpus.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedsPath == "" {
			return fmt.Errorf("--seeds is required")
		}

		// Only flags the user actually set override the environment-sourced
		// defaults NewFromEnv reads (MAX_PAGE_COUNT, CONCURRENCY, ...); an
		// unset flag leaves the env/default value alone.
		var opts []crawler.Opt
		flags := cmd.Flags()
		if flags.Changed("corpus") {
			opts = append(opts, crawler.WithCorpusDir(corpusDir))
		}
		if flags.Changed("number") {
			opts = append(opts, crawler.WithMaxPageCount(number))
		}
		if flags.Changed("concurrency") {
			opts = append(opts, crawler.WithConcurrency(concurrency))
		}
		if flags.Changed("domain-concurrency") {
			opts = append(opts, crawler.WithDomainConcurrency(domainConcurrency))
		}
		if flags.Changed("craw-delay") {
			opts = append(opts, crawler.WithCrawlDelay(crawlDelay))
		}
		if flags.Changed("save-interval") {
			opts = append(opts, crawler.WithSaveInterval(saveInterval))
		}
		if flags.Changed("debug") {
			opts = append(opts, crawler.WithDebug(debug))
		}
		if flags.Changed("show-progress") {
			opts = append(opts, crawler.WithShowProgress(showProgress))
		}
		if checkpointPath != "" {
			opts = append(opts, crawler.WithCheckpoint(checkpointPath))
		}

		c, err := crawler.NewFromEnv(seedsPath, opts...)
		if err != nil {
			return fmt.Errorf("initializing crawler: %w", err)
		}

		if metricsAddr != "" {
			go func() {
				if err := metrics.Serve(metricsAddr); err != nil {
					fmt.Fprintln(os.Stderr, "metrics server:", err)
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return c.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&seedsPath, "seeds", "", "path to a file of newline-delimited seed URLs (required)")
	rootCmd.Flags().StringVar(&corpusDir, "corpus", "corpus", "output directory for the WARC corpus")
	rootCmd.Flags().IntVar(&number, "number", 1000, "maximum number of pages to fetch")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 8, "global fetch concurrency")
	rootCmd.Flags().IntVar(&domainConcurrency, "domain-concurrency", 2, "per-domain fetch concurrency")
	rootCmd.Flags().DurationVar(&crawlDelay, "craw-delay", 500*time.Millisecond, "default crawl delay when robots.txt specifies none")
	rootCmd.Flags().IntVar(&saveInterval, "save-interval", 1000, "WARC records per file before rotation")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "print a per-page debug JSON summary")
	rootCmd.Flags().BoolVar(&showProgress, "show-progress", false, "print a running progress line")
	rootCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "path to write a resumable checkpoint on exit")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
