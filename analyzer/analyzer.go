// Package analyzer implements the SEO analysis pipeline: feature
// extraction, link and image classification, sitemap traversal, scoring
// and domain aggregation.
package analyzer

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// PageFetcher retrieves a page. Statuses below 500 are results, not errors;
// only transport-level failures return a non-nil error, alongside a
// best-effort mapped status code.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (statusCode int, body []byte, headers http.Header, finalURL string, err error)
}

// Fetcher bundles every network collaborator the analyzer needs.
type Fetcher interface {
	PageFetcher
	RawFetcher
	ImageProber
	LinkProber
}

// Options controls a single Analyzer instance.
type Options struct {
	PageTimeout    time.Duration
	SitemapTimeout time.Duration
	CheckLinks     bool
	MaxImages      int
	CacheTTL       time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		PageTimeout:    30 * time.Second,
		SitemapTimeout: 10 * time.Second,
		CheckLinks:     false,
		MaxImages:      50,
		CacheTTL:       30 * time.Minute,
	}
}

// Analyzer runs the full per-page pipeline and caches results by
// normalized URL.
type Analyzer struct {
	fetcher  Fetcher
	liveness *LivenessChecker
	walker   *SitemapWalker
	cache    *cache.Cache
	log      *logrus.Logger
	opts     Options
}

// New creates an Analyzer using the given fetcher for all network access.
func New(fetcher Fetcher, opts Options, log *logrus.Logger) *Analyzer {
	if log == nil {
		log = logrus.New()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	return &Analyzer{
		fetcher:  fetcher,
		liveness: NewLivenessChecker(fetcher, log),
		walker:   NewSitemapWalker(fetcher, log),
		cache:    cache.New(opts.CacheTTL, 10*time.Minute),
		log:      log,
		opts:     opts,
	}
}

// IsCached reports whether a fresh result exists for the URL.
func (a *Analyzer) IsCached(rawURL string) bool {
	_, found := a.cache.Get(Normalize(rawURL))
	return found
}

// AnalyzePage fetches and analyzes a single URL. Transport failures yield
// an error result carrying a mapped status code rather than an error
// return: partial results always beat aborting a crawl.
func (a *Analyzer) AnalyzePage(ctx context.Context, rawURL string) *PageResult {
	normalized := Normalize(rawURL)
	if cached, found := a.cache.Get(normalized); found {
		return cached.(*PageResult)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.opts.PageTimeout)
	defer cancel()

	status, body, headers, finalURL, err := a.fetcher.FetchPage(fetchCtx, rawURL)
	if err != nil {
		a.log.WithFields(logrus.Fields{"url": rawURL, "status": status, "error": err}).Warn("page fetch failed")
		return errorResult(normalized, status, err.Error())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		a.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Warn("HTML parse failed")
		return errorResult(normalized, status, "failed to parse HTML: "+err.Error())
	}

	features := ExtractPageFeatures(doc, string(body), finalURL, status, headers)

	classification := ClassifyLinks(doc, finalURL)
	if a.opts.CheckLinks {
		a.liveness.CheckLinks(ctx, classification.Links)
	}
	ApplyLinkSummary(features, classification)

	ApplyImageSummary(features, InventoryImages(ctx, doc, finalURL, a.opts.MaxImages, a.fetcher))

	result := &PageResult{
		PageFeatures: *features,
		ScoreResult:  Score(features),
	}
	a.cache.Set(normalized, result, cache.DefaultExpiration)
	return result
}

// AnalyzeDomainSitemaps walks the domain's sitemap tree.
func (a *Analyzer) AnalyzeDomainSitemaps(ctx context.Context, domainURL string) *SitemapSummary {
	walkCtx, cancel := context.WithTimeout(ctx, 6*a.opts.SitemapTimeout)
	defer cancel()
	return a.walker.AnalyzeDomainSitemaps(walkCtx, domainURL)
}

// errorResult builds the page record for an unreachable or unparseable
// page. It is not scored: the grade reflects failure, not page quality.
func errorResult(normalizedURL string, status int, message string) *PageResult {
	return &PageResult{
		PageFeatures: PageFeatures{
			URL:                 normalizedURL,
			StatusCode:          status,
			HeadingQualityScore: HeadingScoreUnknown,
			Error:               message,
		},
		ScoreResult: ScoreResult{
			Score:    0,
			Grade:    "F",
			Category: "Poor",
			Notes:    "Issues: page could not be analyzed",
		},
	}
}
