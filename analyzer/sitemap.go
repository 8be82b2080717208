package analyzer

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

const sitemapMaxDepth = 10

// RawFetcher retrieves a raw document, following up to 5 redirects manually
// so the final canonical URL is reported.
type RawFetcher interface {
	FetchRaw(ctx context.Context, rawURL string) (statusCode int, body []byte, finalURL string, err error)
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"sitemap"`
}

// SitemapWalker resolves a domain's sitemap tree: a urlset is counted
// directly, a sitemap index is walked recursively with a visited set and a
// depth bound, and robots.txt Sitemap directives serve as the fallback when
// /sitemap.xml cannot be fetched.
type SitemapWalker struct {
	fetcher RawFetcher
	log     *logrus.Logger
}

func NewSitemapWalker(fetcher RawFetcher, log *logrus.Logger) *SitemapWalker {
	return &SitemapWalker{fetcher: fetcher, log: log}
}

// walkResult carries the outcome of classifying one sitemap document.
type walkResult struct {
	finalURL  string
	docType   string
	size      int
	total     int
	childURLs []string
	lastMod   string
	err       error
}

// AnalyzeDomainSitemaps probes {domain}/sitemap.xml and walks whatever tree
// it finds. Failures on nested sitemaps are swallowed so partial totals are
// still reported; the summary carries an error only when every path failed.
func (w *SitemapWalker) AnalyzeDomainSitemaps(ctx context.Context, domainURL string) *SitemapSummary {
	summary := &SitemapSummary{ChildURLs: []string{}}

	base, err := url.Parse(domainURL)
	if err != nil || base.Host == "" {
		summary.Error = fmt.Sprintf("invalid domain URL: %s", domainURL)
		return summary
	}
	root := base.Scheme + "://" + base.Host

	visited := make(map[string]bool)
	result := w.walk(ctx, root+"/sitemap.xml", 0, visited)
	if result.err == nil {
		summary.SitemapURL = result.finalURL
		summary.HasSitemap = true
		summary.Type = result.docType
		summary.Size = result.size
		summary.ChildURLs = result.childURLs
		summary.TotalURLs = result.total
		summary.LastModified = result.lastMod
		return summary
	}

	w.log.WithFields(logrus.Fields{"domain": root, "error": result.err}).Debug("direct sitemap probe failed, trying robots.txt")
	return w.analyzeFromRobots(ctx, root, visited, summary)
}

// analyzeFromRobots scans robots.txt for Sitemap directives and walks each
// discovered URL as a fresh sitemap root, summing totals.
func (w *SitemapWalker) analyzeFromRobots(ctx context.Context, root string, visited map[string]bool, summary *SitemapSummary) *SitemapSummary {
	status, body, _, err := w.fetcher.FetchRaw(ctx, root+"/robots.txt")
	if err != nil || status >= 400 {
		summary.Error = "no sitemap found: sitemap.xml unavailable and robots.txt unreadable"
		return summary
	}

	robots, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil || len(robots.Sitemaps) == 0 {
		summary.Error = "no sitemap found: robots.txt has no sitemap directives"
		return summary
	}

	found := false
	for _, sitemapURL := range robots.Sitemaps {
		result := w.walk(ctx, strings.TrimSpace(sitemapURL), 0, visited)
		if result.err != nil {
			w.log.WithFields(logrus.Fields{"sitemap": sitemapURL, "error": result.err}).Debug("robots-referenced sitemap failed")
			continue
		}
		found = true
		if summary.SitemapURL == "" {
			summary.SitemapURL = result.finalURL
			summary.Size = result.size
			summary.LastModified = result.lastMod
		}
		summary.ChildURLs = append(summary.ChildURLs, result.childURLs...)
		summary.TotalURLs += result.total
	}

	if !found {
		summary.Error = "no sitemap found: every robots.txt sitemap reference failed"
		return summary
	}

	summary.HasSitemap = true
	summary.Type = SitemapTypeRobotsRef
	return summary
}

// walk fetches and classifies one sitemap document, recursing into index
// children. The visited set guards against self-referencing or circular
// trees; depth is bounded so adversarial nesting terminates.
func (w *SitemapWalker) walk(ctx context.Context, sitemapURL string, depth int, visited map[string]bool) walkResult {
	if depth >= sitemapMaxDepth {
		return walkResult{err: fmt.Errorf("sitemap depth bound %d reached at %s", sitemapMaxDepth, sitemapURL)}
	}
	if visited[sitemapURL] {
		return walkResult{err: fmt.Errorf("sitemap already visited: %s", sitemapURL)}
	}

	status, body, finalURL, err := w.fetcher.FetchRaw(ctx, sitemapURL)
	if err != nil {
		return walkResult{err: fmt.Errorf("fetch %s: %w", sitemapURL, err)}
	}
	if status >= 400 {
		return walkResult{err: fmt.Errorf("fetch %s: HTTP %d", sitemapURL, status)}
	}

	if visited[finalURL] {
		return walkResult{err: fmt.Errorf("sitemap already visited: %s", finalURL)}
	}
	visited[sitemapURL] = true
	visited[finalURL] = true

	content := string(body)
	switch {
	case strings.Contains(content, "<sitemapindex"):
		return w.walkIndex(ctx, body, finalURL, depth, visited)
	case strings.Contains(content, "<urlset"):
		return walkURLSet(body, finalURL)
	default:
		return walkResult{err: fmt.Errorf("unrecognized sitemap format at %s", finalURL)}
	}
}

func (w *SitemapWalker) walkIndex(ctx context.Context, body []byte, finalURL string, depth int, visited map[string]bool) walkResult {
	var index xmlSitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return walkResult{err: fmt.Errorf("parse sitemap index %s: %w", finalURL, err)}
	}

	result := walkResult{
		finalURL:  finalURL,
		docType:   SitemapTypeIndex,
		size:      len(index.Sitemaps),
		childURLs: make([]string, 0, len(index.Sitemaps)),
	}

	for _, child := range index.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}
		result.childURLs = append(result.childURLs, loc)

		sub := w.walk(ctx, loc, depth+1, visited)
		if sub.err != nil {
			// Partial totals beat aborting the whole walk.
			w.log.WithFields(logrus.Fields{"sitemap": loc, "error": sub.err}).Debug("nested sitemap skipped")
			continue
		}
		result.total += sub.total
	}

	return result
}

func walkURLSet(body []byte, finalURL string) walkResult {
	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return walkResult{err: fmt.Errorf("parse urlset %s: %w", finalURL, err)}
	}

	result := walkResult{
		finalURL:  finalURL,
		docType:   SitemapTypeURLSet,
		size:      len(urlset.URLs),
		total:     len(urlset.URLs),
		childURLs: []string{},
	}
	for _, u := range urlset.URLs {
		if u.LastMod != "" {
			result.lastMod = u.LastMod
			break
		}
	}
	return result
}
