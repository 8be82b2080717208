package analyzer

import "math"

// Aggregate reduces a crawl run's page results into a DomainSummary. Pure
// reduction; an empty page list yields zeros everywhere, never NaN.
func Aggregate(pages []*PageResult, sitemap *SitemapSummary, cert *CertificateInfo) DomainSummary {
	summary := DomainSummary{
		PagesCount:  len(pages),
		Sitemap:     sitemap,
		Certificate: cert,
	}
	if len(pages) == 0 {
		summary.Grade = gradeFor(0)
		return summary
	}

	var scoreSum, h1, desc, images, og, twitter int
	var s2xx, s3xx, s4xx int
	var titleLen, descLen, wordCount, internal int

	for _, page := range pages {
		scoreSum += page.Score
		if page.H1Count > 0 {
			h1++
		}
		if page.DescriptionLength > 0 {
			desc++
		}
		if page.ImagesCount > 0 {
			images++
		}
		if page.HasOpenGraph {
			og++
		}
		if page.HasTwitterCard {
			twitter++
		}

		switch {
		case page.StatusCode >= 200 && page.StatusCode < 300:
			s2xx++
		case page.StatusCode >= 300 && page.StatusCode < 400:
			s3xx++
		case page.StatusCode >= 400:
			s4xx++
		}

		titleLen += page.TitleLength
		descLen += page.DescriptionLength
		wordCount += page.WordCountContentOnly
		internal += page.InternalLinks
	}

	total := len(pages)
	summary.AverageScore = roundDiv(scoreSum, total)
	summary.Grade = gradeFor(summary.AverageScore)

	summary.PercentWithH1 = percent(h1, total)
	summary.PercentWithDescription = percent(desc, total)
	summary.PercentWithImages = percent(images, total)
	summary.PercentWithOpenGraph = percent(og, total)
	summary.PercentWithTwitterCard = percent(twitter, total)

	summary.Status2xxPercent = percent(s2xx, total)
	summary.Status3xxPercent = percent(s3xx, total)
	summary.Status4xxPercent = percent(s4xx, total)

	summary.AvgTitleLength = roundDiv(titleLen, total)
	summary.AvgDescLength = roundDiv(descLen, total)
	summary.AvgWordCount = roundDiv(wordCount, total)
	summary.AvgInternalLinks = roundDiv(internal, total)

	return summary
}

func percent(count, total int) int {
	return int(math.Round(float64(count) / float64(total) * 100))
}

func roundDiv(sum, total int) int {
	return int(math.Round(float64(sum) / float64(total)))
}
