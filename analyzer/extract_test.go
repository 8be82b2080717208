package analyzer

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPageFeaturesTechnicalFlags(t *testing.T) {
	markup := `<html><head>
		<title>Flags</title>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width">
		<meta name="robots" content="index, follow">
		<link rel="apple-touch-icon" href="/touch.png">
		<link rel="shortcut icon" href="/favicon.ico">
		<link rel="canonical" href="https://example.com/flags">
		<link rel="alternate" hreflang="de" href="https://example.com/de/flags">
		<link rel="stylesheet" href="/a.css">
		<link rel="stylesheet" href="/b.css">
		<script type="application/ld+json">{"@type":"WebPage"}</script>
		<meta property="og:title" content="Flags">
		<meta name="twitter:card" content="summary">
	</head><body>
		<div itemscope itemtype="https://schema.org/Product">x</div>
		<script src="/app.js"></script>
		<p><strong>bold</strong> and <b>bolder</b></p>
	</body></html>`
	doc := docFromString(t, markup)

	headers := http.Header{}
	headers.Set("X-Robots-Tag", "noarchive")

	f := ExtractPageFeatures(doc, markup, "https://example.com/flags", 200, headers)

	assert.True(t, f.HTTPS)
	assert.True(t, f.HasFavicon)
	assert.True(t, f.HasAppleTouchIcon)
	assert.True(t, f.HasViewport)
	assert.True(t, f.HasCharset)
	assert.True(t, f.HasCanonical)
	assert.Equal(t, "https://example.com/flags", f.CanonicalURL)
	assert.True(t, f.HasHreflang)
	assert.True(t, f.HasJSONLD)
	assert.True(t, f.HasSchemaMarkup)
	assert.True(t, f.HasOpenGraph)
	assert.True(t, f.HasTwitterCard)
	assert.Equal(t, "index, follow", f.RobotsMeta)
	assert.Equal(t, "noarchive", f.RobotsHeader)
	assert.Equal(t, 2, f.StylesheetCount)
	assert.Equal(t, 1, f.ScriptCount)
	assert.Equal(t, 2, f.EmphasisCount)
	assert.Equal(t, len("Flags"), f.TitleLength)
}

func TestExtractPageFeaturesCountsRunes(t *testing.T) {
	title := strings.Repeat("п", 35)
	desc := strings.Repeat("ü", 130)
	markup := `<html><head><title>` + title + `</title>` +
		`<meta name="description" content="` + desc + `"></head><body></body></html>`
	doc := docFromString(t, markup)

	f := ExtractPageFeatures(doc, markup, "https://example.com/", 200, nil)

	assert.Equal(t, 35, f.TitleLength)
	assert.Equal(t, 130, f.DescriptionLength)
}

func TestApplyLinkSummary(t *testing.T) {
	f := &PageFeatures{}
	ApplyLinkSummary(f, LinkClassification{
		Links: []LinkRecord{
			{Type: LinkTypeInternal, IsBroken: true},
			{Type: LinkTypeInternal},
			{Type: LinkTypeExternal, IsBroken: true},
			{Type: LinkTypeOther, IsBroken: true},
		},
		InternalCount:           2,
		ExternalCount:           1,
		AverageAnchorTextLength: 9,
	})

	assert.Equal(t, 2, f.InternalLinks)
	assert.Equal(t, 1, f.ExternalLinks)
	assert.Equal(t, 9, f.AverageAnchorTextLength)
	assert.Equal(t, 1, f.BrokenInternalLinks)
	assert.Equal(t, 1, f.BrokenExternalLinks)
	assert.Len(t, f.Links, 4)
}
