package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/upworkmkd/msd-seo-audit/analyzer"
	"github.com/upworkmkd/msd-seo-audit/crawler"
	"github.com/upworkmkd/msd-seo-audit/fetcher"
)

var (
	auditPages      int
	auditCheckLinks bool
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a domain once and print the JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		maxPages := cfg.Crawler.MaxPages
		if auditPages > 0 {
			maxPages = auditPages
		}

		client := fetcher.New(fetcher.Options{
			UserAgent:   cfg.Crawler.UserAgent,
			PageTimeout: cfg.Crawler.PageTimeout,
			RawTimeout:  cfg.Crawler.SitemapTimeout,
		})
		seoAnalyzer := analyzer.New(client, analyzer.Options{
			PageTimeout:    cfg.Crawler.PageTimeout,
			SitemapTimeout: cfg.Crawler.SitemapTimeout,
			CheckLinks:     auditCheckLinks || cfg.Crawler.CheckLinks,
			MaxImages:      cfg.Crawler.MaxImages,
			CacheTTL:       cfg.Crawler.CacheTTL,
		}, logger)

		runner := crawler.New(seoAnalyzer, crawler.Options{
			MaxPages:       maxPages,
			RequestsPerSec: cfg.Crawler.RequestsPerSec,
		}, logger)

		report, err := runner.Run(context.Background(), args[0])
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditPages, "pages", 0, "maximum pages to crawl (0 uses the configured default)")
	auditCmd.Flags().BoolVar(&auditCheckLinks, "check-links", false, "probe link liveness during analysis")
}
