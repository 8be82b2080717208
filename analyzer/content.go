package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var loremIpsumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lorem\s+ipsum`),
	regexp.MustCompile(`(?i)dolor\s+sit\s+amet`),
	regexp.MustCompile(`(?i)consectetur\s+adipiscing`),
	regexp.MustCompile(`(?i)sed\s+do\s+eiusmod`),
}

// chromeSubstrings flag structural page chrome by class or id; sidebar, menu
// and nav chrome is matched by tag only. Best-effort heuristic: sites with
// unconventional markup will be misclassified.
var chromeSubstrings = []string{"header", "footer"}

var chromeTags = map[string]bool{
	"header":   true,
	"footer":   true,
	"nav":      true,
	"aside":    true,
	"menu":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
}

var scriptStyleTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// CountWords tokenizes text on whitespace runs, discarding empty tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// WordCounts computes the three word-count variants over the same parsed
// tree: total over the raw serialized markup, content-only excluding page
// chrome, and visible excluding only scripts and styles. Each variant is an
// independent read-only traversal; the document is never mutated.
func WordCounts(doc *goquery.Document, rawHTML string) (total, contentOnly, visible int) {
	total = CountWords(rawHTML)

	root := documentRoot(doc)
	if root == nil {
		return total, 0, 0
	}

	var contentText, visibleText strings.Builder
	collectText(root, isChromeNode, &contentText)
	collectText(root, isScriptOrStyle, &visibleText)

	return total, CountWords(contentText.String()), CountWords(visibleText.String())
}

// VisibleText returns the page text with scripts and styles stripped.
func VisibleText(doc *goquery.Document) string {
	root := documentRoot(doc)
	if root == nil {
		return ""
	}
	var sb strings.Builder
	collectText(root, isScriptOrStyle, &sb)
	return sb.String()
}

func documentRoot(doc *goquery.Document) *html.Node {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil
	}
	return doc.Nodes[0]
}

// collectText walks the tree appending text node data, pruning any subtree
// for which excluded returns true.
func collectText(n *html.Node, excluded func(*html.Node) bool, sb *strings.Builder) {
	if n.Type == html.ElementNode && excluded(n) {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, excluded, sb)
	}
}

func isScriptOrStyle(n *html.Node) bool {
	return scriptStyleTags[n.Data]
}

func isChromeNode(n *html.Node) bool {
	if chromeTags[n.Data] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" && attr.Key != "id" {
			continue
		}
		value := strings.ToLower(attr.Val)
		for _, marker := range chromeSubstrings {
			if strings.Contains(value, marker) {
				return true
			}
		}
	}
	return false
}

// HasLoremIpsum reports whether any placeholder-text phrase occurs in the
// visible page text.
func HasLoremIpsum(visibleText string) bool {
	for _, pattern := range loremIpsumPatterns {
		if pattern.MatchString(visibleText) {
			return true
		}
	}
	return false
}

// ExtractHeadings collects trimmed, non-empty heading text per level plus a
// positional list in document order.
func ExtractHeadings(doc *goquery.Document) (levels [6][]string, positions []HeadingPosition) {
	for i := range levels {
		levels[i] = make([]string, 0, 4)
	}

	position := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		tag := goquery.NodeName(s)
		level := int(tag[1] - '0')
		position++

		levels[level-1] = append(levels[level-1], text)
		positions = append(positions, HeadingPosition{
			Tag:      tag,
			Level:    level,
			Text:     text,
			Position: position,
		})
	})

	return levels, positions
}

// HeadingQualityScore rates a page's heading structure 0-100 from four
// components: a single-H1 check, hierarchy sanity (no skipped levels, no
// long same-level runs), title relevance, and content distribution.
func HeadingQualityScore(positions []HeadingPosition, title string) int {
	score := 0

	h1Count := 0
	h2Count := 0
	h3Count := 0
	for _, p := range positions {
		switch p.Level {
		case 1:
			h1Count++
		case 2:
			h2Count++
		case 3:
			h3Count++
		}
	}

	switch {
	case h1Count == 1:
		score += 20
	case h1Count > 1:
		score += 10
	}

	// Hierarchy component, capped at 30: penalize skipped levels and more
	// than two consecutive same-level headings, add back for depth reached.
	hierarchy := 0
	deepest := 0
	prevLevel := 0
	run := 0
	for _, p := range positions {
		if p.Level > deepest {
			deepest = p.Level
		}
		if prevLevel > 0 && p.Level > prevLevel+1 {
			hierarchy -= 5 * (p.Level - prevLevel - 1)
		}
		if p.Level == prevLevel {
			run++
			if run > 2 {
				hierarchy -= 2
			}
		} else {
			run = 1
		}
		prevLevel = p.Level
	}
	hierarchy += min(20, deepest*4)
	if hierarchy < 0 {
		hierarchy = 0
	}
	if hierarchy > 30 {
		hierarchy = 30
	}
	score += hierarchy

	if titleOverlap(positions, title) {
		score += 20
	}

	distribution := 0
	if len(positions) >= 3 {
		distribution += 15
	}
	if h2Count >= 2 {
		distribution += 10
	}
	if h3Count >= 3 {
		distribution += 5
	}
	score += distribution

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// titleOverlap reports whether any heading shares at least one word with the
// page title (case-insensitive).
func titleOverlap(positions []HeadingPosition, title string) bool {
	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		titleWords[w] = true
	}
	if len(titleWords) == 0 {
		return false
	}
	for _, p := range positions {
		for _, w := range strings.Fields(strings.ToLower(p.Text)) {
			if titleWords[w] {
				return true
			}
		}
	}
	return false
}
