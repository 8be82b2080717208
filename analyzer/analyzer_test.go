package analyzer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages      map[string]string
	fetchCalls int
}

func (f *fakeFetcher) FetchPage(_ context.Context, rawURL string) (int, []byte, http.Header, string, error) {
	f.fetchCalls++
	body, ok := f.pages[rawURL]
	if !ok {
		return http.StatusNotFound, nil, nil, rawURL, errors.New("lookup failed: no such host")
	}
	return 200, []byte(body), http.Header{}, rawURL, nil
}

func (f *fakeFetcher) FetchRaw(_ context.Context, rawURL string) (int, []byte, string, error) {
	return 404, nil, rawURL, errors.New("not found")
}

func (f *fakeFetcher) Head(_ context.Context, rawURL string) (int, error) {
	return 200, nil
}

func (f *fakeFetcher) ProbeImage(_ context.Context, rawURL string) (string, int64, error) {
	return "image/png", 1024, nil
}

const samplePage = `<html>
<head>
	<title>Handcrafted Ceramic Mugs For Every Kitchen</title>
	<meta name="description" content="Browse our collection of handcrafted ceramic mugs, made in small batches by independent potters and shipped worldwide with full tracking included.">
	<meta name="viewport" content="width=device-width">
	<link rel="icon" href="/favicon.ico">
	<meta property="og:title" content="Ceramic Mugs">
</head>
<body>
	<h1>Handcrafted Ceramic Mugs</h1>
	<h2>Our Collection</h2>
	<p>Every <strong>mug</strong> is thrown by hand.</p>
	<a href="/shop">Shop</a>
	<a href="https://pottery-news.com">Pottery news</a>
	<img src="/mug.png" alt="A mug">
</body>
</html>`

func newTestAnalyzer(fetcher Fetcher, opts Options) *Analyzer {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(fetcher, opts, log)
}

func TestAnalyzePage(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://mugs.example.com/": samplePage,
	}}
	a := newTestAnalyzer(fetcher, DefaultOptions())

	result := a.AnalyzePage(context.Background(), "https://mugs.example.com/")
	require.NotNil(t, result)
	require.Empty(t, result.Error)

	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "Handcrafted Ceramic Mugs For Every Kitchen", result.Title)
	assert.Equal(t, 1, result.H1Count)
	assert.Equal(t, 1, result.H2Count)
	assert.True(t, result.HTTPS)
	assert.True(t, result.HasFavicon)
	assert.True(t, result.HasOpenGraph)
	assert.True(t, result.HasViewport)
	assert.Equal(t, 1, result.InternalLinks)
	assert.Equal(t, 1, result.ExternalLinks)
	assert.Equal(t, 1, result.ImagesCount)
	assert.Equal(t, 0, result.ImagesWithoutAlt)
	assert.Equal(t, "image/png", result.Images[0].ContentType)

	assert.Greater(t, result.Score, 0)
	assert.NotEmpty(t, result.Grade)
	assert.NotEmpty(t, result.Notes)
}

func TestAnalyzePageCaches(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://mugs.example.com/": samplePage,
	}}
	a := newTestAnalyzer(fetcher, DefaultOptions())

	first := a.AnalyzePage(context.Background(), "https://mugs.example.com/")
	second := a.AnalyzePage(context.Background(), "https://mugs.example.com/#reviews")

	// The fragment variant normalizes to the same key, so no second fetch.
	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.fetchCalls)
	assert.True(t, a.IsCached("https://mugs.example.com/"))
}

func TestAnalyzePageTransportFailure(t *testing.T) {
	a := newTestAnalyzer(&fakeFetcher{pages: map[string]string{}}, DefaultOptions())

	result := a.AnalyzePage(context.Background(), "https://missing.example.com/")

	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, "F", result.Grade)
}

func TestAnalyzeDomainSitemapsUnavailable(t *testing.T) {
	a := newTestAnalyzer(&fakeFetcher{}, DefaultOptions())

	summary := a.AnalyzeDomainSitemaps(context.Background(), "https://mugs.example.com")
	require.NotNil(t, summary)
	assert.False(t, summary.HasSitemap)
	assert.NotEmpty(t, summary.Error)
}
