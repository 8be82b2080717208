package analyzer

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPageFeatures builds the feature record for one fetched page from
// its parsed document, raw markup and response headers. Link and image
// summaries are filled in separately by ClassifyLinks and InventoryImages.
func ExtractPageFeatures(doc *goquery.Document, rawHTML, pageURL string, statusCode int, headers http.Header) *PageFeatures {
	features := &PageFeatures{
		URL:                 Normalize(pageURL),
		StatusCode:          statusCode,
		HeadingQualityScore: HeadingScoreUnknown,
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		features.HTTPS = strings.EqualFold(parsed.Scheme, "https")
	}

	// Lengths are character counts, not bytes: multi-byte titles must not
	// trip the length thresholds early.
	features.Title = strings.TrimSpace(doc.Find("title").First().Text())
	features.TitleLength = utf8.RuneCountInString(features.Title)
	features.Description = strings.TrimSpace(doc.Find("meta[name='description']").First().AttrOr("content", ""))
	features.DescriptionLength = utf8.RuneCountInString(features.Description)

	features.WordCount, features.WordCountContentOnly, features.WordCountVisible = WordCounts(doc, rawHTML)

	visible := VisibleText(doc)
	features.HasLoremIpsum = HasLoremIpsum(visible)

	levels, positions := ExtractHeadings(doc)
	features.H1, features.H2, features.H3 = levels[0], levels[1], levels[2]
	features.H4, features.H5, features.H6 = levels[3], levels[4], levels[5]
	features.H1Count, features.H2Count, features.H3Count = len(levels[0]), len(levels[1]), len(levels[2])
	features.H4Count, features.H5Count, features.H6Count = len(levels[3]), len(levels[4]), len(levels[5])
	features.HeadingPositions = positions
	features.HeadingQualityScore = HeadingQualityScore(positions, features.Title)

	extractTechnicalFlags(doc, headers, features)

	return features
}

func extractTechnicalFlags(doc *goquery.Document, headers http.Header, features *PageFeatures) {
	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		switch {
		case strings.Contains(rel, "apple-touch-icon"):
			features.HasAppleTouchIcon = true
		case strings.Contains(rel, "icon"):
			features.HasFavicon = true
		case rel == "canonical":
			if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
				features.HasCanonical = true
				features.CanonicalURL = href
			}
		case rel == "alternate":
			if s.AttrOr("hreflang", "") != "" {
				features.HasHreflang = true
			}
		case rel == "stylesheet":
			features.StylesheetCount++
		}
	})

	features.HasViewport = doc.Find("meta[name='viewport']").Length() > 0
	features.HasCharset = doc.Find("meta[charset]").Length() > 0 ||
		doc.Find("meta[http-equiv='Content-Type']").Length() > 0

	features.RobotsMeta = strings.TrimSpace(doc.Find("meta[name='robots']").First().AttrOr("content", ""))
	if headers != nil {
		features.RobotsHeader = headers.Get("X-Robots-Tag")
	}

	features.HasJSONLD = doc.Find("script[type='application/ld+json']").Length() > 0
	features.HasSchemaMarkup = doc.Find("[itemscope], [itemtype]").Length() > 0
	features.HasOpenGraph = doc.Find("meta[property^='og:']").Length() > 0
	features.HasTwitterCard = doc.Find("meta[name^='twitter:']").Length() > 0

	features.ScriptCount = doc.Find("script[src]").Length()
	features.EmphasisCount = doc.Find("strong, b").Length()
}

// ApplyLinkSummary merges a link classification and any liveness results
// into the feature record.
func ApplyLinkSummary(features *PageFeatures, classification LinkClassification) {
	features.Links = classification.Links
	features.InternalLinks = classification.InternalCount
	features.ExternalLinks = classification.ExternalCount
	features.AverageAnchorTextLength = classification.AverageAnchorTextLength

	for _, link := range classification.Links {
		if !link.IsBroken {
			continue
		}
		switch link.Type {
		case LinkTypeInternal:
			features.BrokenInternalLinks++
		case LinkTypeExternal:
			features.BrokenExternalLinks++
		}
	}
}

// ApplyImageSummary merges the image inventory into the feature record.
func ApplyImageSummary(features *PageFeatures, images []ImageRecord) {
	features.Images = images
	features.ImagesCount = len(images)
	for _, img := range images {
		if img.Alt == "" {
			features.ImagesWithoutAlt++
		}
	}
}
