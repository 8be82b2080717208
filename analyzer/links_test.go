package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromString(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestClassifyLinks(t *testing.T) {
	markup := `<html><body>
		<a href="#">top</a>
		<a href="https://samehost.com/#section">section</a>
		<a href="https://samehost.com/other">other page</a>
		<a href="https://facebook.com/page">follow us</a>
		<a href="https://other.com">elsewhere</a>
	</body></html>`
	doc := docFromString(t, markup)

	result := ClassifyLinks(doc, "https://samehost.com/")

	assert.Equal(t, 1, result.InternalCount)
	assert.Equal(t, 1, result.ExternalCount)
	require.Len(t, result.Links, 2)
	assert.Equal(t, "https://samehost.com/other", result.Links[0].URL)
	assert.Equal(t, LinkTypeInternal, result.Links[0].Type)
	assert.Equal(t, "https://other.com", result.Links[1].URL)
	assert.Equal(t, LinkTypeExternal, result.Links[1].Type)

	// (3+7+10+9+9)/5 = 7.6 rounded to 8; dropped anchors still count.
	assert.Equal(t, 8, result.AverageAnchorTextLength)
}

func TestClassifyLinksFragmentWithoutSlash(t *testing.T) {
	markup := `<html><body>
		<a href="https://samehost.com#section">jump</a>
		<a href="#top">top</a>
	</body></html>`
	doc := docFromString(t, markup)

	// A bare-host fragment resolves with an empty path; it still points at
	// the page itself and must be dropped like any other fragment link.
	result := ClassifyLinks(doc, "https://samehost.com/")

	assert.Empty(t, result.Links)
	assert.Equal(t, 0, result.InternalCount)
}

func TestClassifyLinksNonHTTPSchemes(t *testing.T) {
	markup := `<html><body>
		<a href="mailto:hello@example.com">mail</a>
		<a href="tel:+123456789">call</a>
		<a href="/contact">contact</a>
	</body></html>`
	doc := docFromString(t, markup)

	result := ClassifyLinks(doc, "https://example.com/")

	assert.Equal(t, 1, result.InternalCount)
	assert.Equal(t, 0, result.ExternalCount)
	require.Len(t, result.Links, 3)
	assert.Equal(t, LinkTypeOther, result.Links[0].Type)
	assert.Equal(t, LinkTypeOther, result.Links[1].Type)
	assert.Equal(t, "https://example.com/contact", result.Links[2].URL)
}

func TestClassifyLinksSocialSubdomains(t *testing.T) {
	markup := `<html><body>
		<a href="https://www.facebook.com/page">fb</a>
		<a href="https://business.linkedin.com/x">li</a>
	</body></html>`
	doc := docFromString(t, markup)

	result := ClassifyLinks(doc, "https://example.com/")
	assert.Empty(t, result.Links)
	assert.Equal(t, 0, result.ExternalCount)
}

type fakeProber struct {
	mu       sync.Mutex
	statuses map[string]int
	calls    map[string]int
}

func (p *fakeProber) Head(_ context.Context, rawURL string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[rawURL]++
	status, ok := p.statuses[rawURL]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return status, nil
}

func TestLivenessChecker(t *testing.T) {
	prober := &fakeProber{statuses: map[string]int{
		"https://ok.com/page":   200,
		"https://gone.com/page": 404,
	}}
	checker := NewLivenessChecker(prober, logrus.New())

	links := []LinkRecord{
		{URL: "https://ok.com/page", Type: LinkTypeExternal},
		{URL: "https://gone.com/page", Type: LinkTypeExternal},
		{URL: "https://down.com/page", Type: LinkTypeExternal},
		{URL: "mailto:valid@example.com", Type: LinkTypeOther},
		{URL: "mailto:not-an-email", Type: LinkTypeOther},
		{URL: "tel:+123456789", Type: LinkTypeOther},
	}

	checker.CheckLinks(context.Background(), links)

	assert.False(t, links[0].IsBroken)
	assert.Equal(t, 200, links[0].StatusCode)
	assert.True(t, links[1].IsBroken)
	assert.Equal(t, 404, links[1].StatusCode)
	assert.True(t, links[2].IsBroken)
	assert.False(t, links[3].IsBroken)
	assert.True(t, links[4].IsBroken)
	assert.False(t, links[5].IsBroken)
}

func TestLivenessCheckerCachesStatuses(t *testing.T) {
	prober := &fakeProber{statuses: map[string]int{"https://ok.com/": 200}}
	checker := NewLivenessChecker(prober, logrus.New())

	links := []LinkRecord{{URL: "https://ok.com/"}}
	checker.CheckLinks(context.Background(), links)
	checker.CheckLinks(context.Background(), []LinkRecord{{URL: "https://ok.com/"}})

	assert.Equal(t, 1, prober.calls["https://ok.com/"])
}
