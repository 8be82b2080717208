package analyzer

import (
	"context"
	"math"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// socialDomains are hosts whose outbound links carry no SEO weight: social
// networks and URL shorteners. Matched exactly or as a parent of a subdomain.
var socialDomains = map[string]bool{
	"facebook.com":  true,
	"twitter.com":   true,
	"x.com":         true,
	"instagram.com": true,
	"linkedin.com":  true,
	"youtube.com":   true,
	"pinterest.com": true,
	"tiktok.com":    true,
	"snapchat.com":  true,
	"whatsapp.com":  true,
	"wa.me":         true,
	"t.me":          true,
	"telegram.me":   true,
	"t.co":          true,
	"bit.ly":        true,
	"goo.gl":        true,
	"tinyurl.com":   true,
	"ow.ly":         true,
}

// messagingSchemes are link schemes treated as always valid by the liveness
// check; they cannot be probed over HTTP.
var messagingSchemes = map[string]bool{
	"tel":      true,
	"sms":      true,
	"whatsapp": true,
	"skype":    true,
	"viber":    true,
	"tg":       true,
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// LinkClassification is the output of ClassifyLinks.
type LinkClassification struct {
	Links                   []LinkRecord
	InternalCount           int
	ExternalCount           int
	AverageAnchorTextLength int
}

// ClassifyLinks partitions a page's anchors into internal, external and
// excluded links. Same-page fragment links are dropped entirely and social
// or shortener hosts are excluded from both counts. The average anchor text
// length is computed over every anchor examined, including dropped ones.
func ClassifyLinks(doc *goquery.Document, baseURL string) LinkClassification {
	result := LinkClassification{Links: make([]LinkRecord, 0, 16)}

	base, err := url.Parse(baseURL)
	if err != nil {
		return result
	}
	baseHost := strings.ToLower(base.Hostname())

	anchorCount := 0
	anchorTextSum := 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}

		anchorText := strings.TrimSpace(s.Text())
		anchorCount++
		anchorTextSum += len(anchorText)

		parsed, err := url.Parse(href)
		if err != nil {
			// Malformed href: skip this link, never abort the page.
			return
		}

		resolved := base.ResolveReference(parsed)
		if isFragmentLink(href, resolved, base) {
			return
		}

		record := LinkRecord{
			URL:        resolved.String(),
			AnchorText: anchorText,
			Target:     s.AttrOr("target", ""),
		}

		scheme := strings.ToLower(resolved.Scheme)
		if scheme != "http" && scheme != "https" {
			record.Type = LinkTypeOther
			result.Links = append(result.Links, record)
			return
		}

		host := strings.ToLower(resolved.Hostname())
		switch {
		case host == baseHost:
			record.Type = LinkTypeInternal
			result.InternalCount++
			result.Links = append(result.Links, record)
		case isSocialHost(host):
			// Excluded entirely: not a meaningful external SEO link.
		default:
			record.Type = LinkTypeExternal
			result.ExternalCount++
			result.Links = append(result.Links, record)
		}
	})

	if anchorCount > 0 {
		result.AverageAnchorTextLength = int(math.Round(float64(anchorTextSum) / float64(anchorCount)))
	}

	return result
}

// isFragmentLink reports whether a link points back to the page it is on,
// differing only by a hash (or being a bare "#"). Empty paths read as the
// root path, so "https://host#x" matches a base of "https://host/".
func isFragmentLink(href string, resolved, base *url.URL) bool {
	if href == "#" {
		return true
	}
	if resolved.Fragment == "" && !strings.HasSuffix(href, "#") {
		return false
	}
	return resolved.Scheme == base.Scheme &&
		strings.EqualFold(resolved.Host, base.Host) &&
		pathOrRoot(resolved.Path) == pathOrRoot(base.Path) &&
		resolved.RawQuery == base.RawQuery
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func isSocialHost(host string) bool {
	if socialDomains[host] {
		return true
	}
	for domain := range socialDomains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// LinkProber issues a HEAD-equivalent request and returns the status code.
// Implementations must follow at most 5 redirects and apply a 10s timeout.
type LinkProber interface {
	Head(ctx context.Context, rawURL string) (int, error)
}

const livenessBatchSize = 5

// LivenessChecker annotates link records with reachability, probing in
// bounded batches so a page full of links does not hammer remote hosts.
type LivenessChecker struct {
	prober  LinkProber
	limiter *rate.Limiter
	cache   *cache.Cache
	log     *logrus.Logger
}

// NewLivenessChecker creates a checker pacing batches roughly 100ms apart.
func NewLivenessChecker(prober LinkProber, log *logrus.Logger) *LivenessChecker {
	return &LivenessChecker{
		prober:  prober,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		cache:   cache.New(10*time.Minute, 5*time.Minute),
		log:     log,
	}
}

// CheckLinks probes every record in place, batch by batch. A status >= 400 or
// a transport failure marks the link broken; mailto and messaging links are
// validated without touching the network.
func (c *LivenessChecker) CheckLinks(ctx context.Context, links []LinkRecord) {
	for start := 0; start < len(links); start += livenessBatchSize {
		end := start + livenessBatchSize
		if end > len(links) {
			end = len(links)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(rec *LinkRecord) {
				defer wg.Done()
				c.checkOne(ctx, rec)
			}(&links[i])
		}
		wg.Wait()

		if end < len(links) {
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
		}
	}
}

func (c *LivenessChecker) checkOne(ctx context.Context, rec *LinkRecord) {
	parsed, err := url.Parse(rec.URL)
	if err != nil {
		rec.IsBroken = true
		return
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "mailto" {
		rec.IsBroken = !emailPattern.MatchString(parsed.Opaque)
		return
	}
	if messagingSchemes[scheme] {
		rec.IsBroken = false
		return
	}

	if cached, found := c.cache.Get(rec.URL); found {
		status := cached.(int)
		rec.StatusCode = status
		rec.IsBroken = status == 0 || status >= 400
		return
	}

	status, err := c.prober.Head(ctx, rec.URL)
	if err != nil {
		c.log.WithFields(logrus.Fields{"url": rec.URL, "error": err}).Debug("link probe failed")
		rec.IsBroken = true
		c.cache.Set(rec.URL, 0, cache.DefaultExpiration)
		return
	}

	rec.StatusCode = status
	rec.IsBroken = status >= 400
	c.cache.Set(rec.URL, status, cache.DefaultExpiration)
}
