// Package crawler walks a domain breadth-first from a start URL, analyzing
// each page and reducing the run into a domain report.
package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/upworkmkd/msd-seo-audit/analyzer"
	"github.com/upworkmkd/msd-seo-audit/fetcher"
)

// Options bounds a crawl run.
type Options struct {
	MaxPages       int
	RequestsPerSec float64
	CertTimeout    time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxPages:       10,
		RequestsPerSec: 2,
		CertTimeout:    10 * time.Second,
	}
}

// Crawler drives the analyzer over a domain.
type Crawler struct {
	analyzer *analyzer.Analyzer
	limiter  *rate.Limiter
	log      *logrus.Logger
	opts     Options
}

// New creates a Crawler pacing page fetches at opts.RequestsPerSec.
func New(a *analyzer.Analyzer, opts Options, log *logrus.Logger) *Crawler {
	if log == nil {
		log = logrus.New()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultOptions().MaxPages
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = DefaultOptions().RequestsPerSec
	}
	return &Crawler{
		analyzer: a,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		log:      log,
		opts:     opts,
	}
}

// Run crawls breadth-first from startURL, staying on the start host, and
// returns the per-page results plus the aggregated domain summary. The page
// budget counts analyzed pages, successful or not.
func (c *Crawler) Run(ctx context.Context, startURL string) (*analyzer.DomainReport, error) {
	start, err := url.Parse(analyzer.Normalize(startURL))
	if err != nil || start.Host == "" {
		return nil, &InvalidStartURLError{URL: startURL}
	}
	host := strings.ToLower(start.Hostname())

	queue := []string{start.String()}
	visited := map[string]bool{start.String(): true}
	pages := make([]*analyzer.PageResult, 0, c.opts.MaxPages)

	for len(queue) > 0 && len(pages) < c.opts.MaxPages {
		current := queue[0]
		queue = queue[1:]

		if err := c.limiter.Wait(ctx); err != nil {
			break
		}

		c.log.WithFields(logrus.Fields{"url": current, "page": len(pages) + 1}).Info("analyzing page")
		result := c.analyzer.AnalyzePage(ctx, current)
		pages = append(pages, result)

		for _, link := range result.Links {
			if link.Type != analyzer.LinkTypeInternal {
				continue
			}
			normalized := analyzer.Normalize(link.URL)
			if visited[normalized] || !sameHost(normalized, host) {
				continue
			}
			visited[normalized] = true
			queue = append(queue, normalized)
		}
	}

	sitemap := c.analyzer.AnalyzeDomainSitemaps(ctx, start.String())
	if len(pages) > 0 {
		// Page results come from a shared cache; attach the sitemap to a
		// copy so records already handed to other callers never change.
		root := *pages[0]
		root.Sitemap = sitemap
		pages[0] = &root
	}

	var cert *analyzer.CertificateInfo
	if start.Scheme == "https" {
		cert = certInfo(fetcher.ProbeCertificate(start.Hostname(), c.opts.CertTimeout))
	}

	return &analyzer.DomainReport{
		Domain:  host,
		Pages:   pages,
		Summary: analyzer.Aggregate(pages, sitemap, cert),
	}, nil
}

func sameHost(rawURL, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), host)
}

func certInfo(cert *fetcher.Certificate) *analyzer.CertificateInfo {
	info := &analyzer.CertificateInfo{
		SubjectCN:    cert.SubjectCN,
		IssuerCN:     cert.IssuerCN,
		SerialNumber: cert.SerialNumber,
		Fingerprint:  cert.Fingerprint,
		Valid:        cert.Valid,
		Error:        cert.Error,
	}
	if !cert.ValidTo.IsZero() {
		info.ValidTo = cert.ValidTo.Format(time.RFC3339)
	}
	return info
}

// InvalidStartURLError reports a start URL that cannot anchor a crawl.
type InvalidStartURLError struct {
	URL string
}

func (e *InvalidStartURLError) Error() string {
	return "invalid start URL: " + e.URL
}
