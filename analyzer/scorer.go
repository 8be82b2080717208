package analyzer

import (
	"fmt"
	"math"
	"strings"
)

// Score maps a feature record onto a 0-100 quality score with a letter
// grade, a category and an issue list. Pure function: the same features
// always yield the same result, and every delta below is independent.
func Score(f *PageFeatures) ScoreResult {
	raw := 100.0
	issues := make([]string, 0, 8)

	// Title.
	switch {
	case f.TitleLength < 10:
		raw -= 15
		issues = append(issues, "title missing or too short")
	case f.TitleLength > 60:
		raw -= 8
		issues = append(issues, "title too long")
	case f.TitleLength < 30:
		raw -= 5
		issues = append(issues, "title shorter than recommended")
	}

	// Meta description.
	switch {
	case f.DescriptionLength < 120:
		raw -= 12
		issues = append(issues, "meta description missing or too short")
	case f.DescriptionLength > 160:
		raw -= 6
		issues = append(issues, "meta description too long")
	}

	// Headings: use the precomputed quality score when available, mapped
	// onto a [-20, 0] contribution; otherwise count H1/H2/H3 directly.
	if f.HeadingQualityScore >= 0 {
		raw += math.Floor(float64(f.HeadingQualityScore)*0.2) - 20
		if f.HeadingQualityScore < 50 {
			issues = append(issues, "poor heading structure")
		}
	} else {
		switch {
		case f.H1Count == 0:
			raw -= 18
			issues = append(issues, "missing H1")
		case f.H1Count > 1:
			raw -= 12
			issues = append(issues, "multiple H1")
		}
		if f.H1Count == 1 && f.H2Count > 0 {
			raw += 2
		}
		if f.H2Count > 0 && f.H3Count > 0 {
			raw += 1
		}
	}

	// Technical.
	if !f.HTTPS {
		raw -= 10
		issues = append(issues, "not served over HTTPS")
	}
	robots := strings.ToLower(f.RobotsMeta + " " + f.RobotsHeader)
	if strings.Contains(robots, "noindex") {
		raw -= 15
		issues = append(issues, "noindex directive present")
	}
	if strings.Contains(robots, "nofollow") {
		raw -= 5
		issues = append(issues, "nofollow directive present")
	}
	if !f.HasFavicon {
		raw -= 3
		issues = append(issues, "no favicon")
	}
	if !f.HasOpenGraph {
		raw -= 4
		issues = append(issues, "no OpenGraph tags")
	}
	if !f.HasViewport {
		raw -= 3
		issues = append(issues, "no viewport meta tag")
	}

	// Content quality.
	words := f.WordCountContentOnly
	switch {
	case words < 150:
		raw -= 8
		issues = append(issues, "thin content")
	case words < 300:
		raw -= 5
		issues = append(issues, "content below recommended length")
	case words >= 800:
		raw += 2
	}
	if f.EmphasisCount == 0 && words > 200 {
		raw -= 2
		issues = append(issues, "no emphasized text")
	}

	// Images: penalty capped at 5, issue always reports the full count.
	if f.ImagesWithoutAlt > 0 {
		penalty := f.ImagesWithoutAlt
		if penalty > 5 {
			penalty = 5
		}
		raw -= float64(penalty)
		issues = append(issues, fmt.Sprintf("%d images missing alt text", f.ImagesWithoutAlt))
	}

	// Bonuses.
	if f.HasJSONLD || f.HasSchemaMarkup {
		raw += 2
	}
	if f.HasCanonical {
		raw += 1
	}
	if f.HasHreflang {
		raw += 1
	}
	if f.HasAppleTouchIcon {
		raw += 1
	}

	// Performance proxies.
	if f.ScriptCount > 20 {
		raw -= 3
		issues = append(issues, "too many script files")
	}
	if f.StylesheetCount > 10 {
		raw -= 2
		issues = append(issues, "too many stylesheets")
	}

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return ScoreResult{
		Score:    score,
		Grade:    gradeFor(score),
		Category: categoryFor(score),
		Issues:   issues,
		Notes:    buildNotes(f, issues),
	}
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func categoryFor(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Needs Improvement"
	default:
		return "Poor"
	}
}

// buildNotes concatenates triggered issues and positive signals into a
// single human-readable line, omitting empty sections.
func buildNotes(f *PageFeatures, issues []string) string {
	strengths := make([]string, 0, 4)
	if f.HTTPS {
		strengths = append(strengths, "HTTPS enabled")
	}
	if f.HasOpenGraph {
		strengths = append(strengths, "OpenGraph present")
	}
	if f.WordCountContentOnly >= 500 {
		strengths = append(strengths, "substantial content")
	}
	if f.H1Count == 1 {
		strengths = append(strengths, "single H1")
	}

	sections := make([]string, 0, 2)
	if len(issues) > 0 {
		sections = append(sections, "Issues: "+strings.Join(issues, ", "))
	}
	if len(strengths) > 0 {
		sections = append(sections, "Strengths: "+strings.Join(strengths, ", "))
	}
	return strings.Join(sections, " | ")
}
