package analyzer

// Link classification buckets.
const (
	LinkTypeInternal = "internal"
	LinkTypeExternal = "external"
	LinkTypeOther    = "other" // mailto:, tel: and similar non-http schemes
)

// Sitemap type tags.
const (
	SitemapTypeURLSet    = "urlset"
	SitemapTypeIndex     = "sitemap_index"
	SitemapTypeRobotsRef = "robots_txt_reference"
)

// HeadingScoreUnknown marks a PageFeatures record whose heading quality score
// was never computed (e.g. features rebuilt from a stored record). The scorer
// falls back to plain H1/H2/H3 counting in that case.
const HeadingScoreUnknown = -1

// LinkRecord is a single classified outbound link.
type LinkRecord struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchorText"`
	Target     string `json:"target"`
	Type       string `json:"type"`
	StatusCode int    `json:"statusCode"` // 0 until a liveness check ran
	IsBroken   bool   `json:"isBroken"`
}

// ImageRecord is a single inventoried image.
type ImageRecord struct {
	URL         string `json:"url"`
	Index       int    `json:"index"` // 1-based, document order
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"` // 0 if undeterminable
	SizeKB      int64  `json:"sizeKb"`
	Alt         string `json:"alt"`
}

// HeadingPosition records one heading in document order.
type HeadingPosition struct {
	Tag      string `json:"tag"`
	Level    int    `json:"level"`
	Text     string `json:"text"`
	Position int    `json:"position"` // 1-based
}

// SitemapSummary is the result of walking a domain's sitemap tree.
type SitemapSummary struct {
	SitemapURL   string   `json:"sitemapUrl"` // resolved URL after redirects, "" if none found
	HasSitemap   bool     `json:"hasSitemap"`
	Type         string   `json:"type"` // urlset | sitemap_index | robots_txt_reference | ""
	Size         int      `json:"size"` // entry count of the top-level document
	ChildURLs    []string `json:"childUrls"`
	TotalURLs    int      `json:"totalUrls"`
	LastModified string   `json:"lastModified"`
	Error        string   `json:"error,omitempty"`
}

// CertificateInfo describes the TLS certificate served by a host.
type CertificateInfo struct {
	SubjectCN    string `json:"subjectCN"`
	IssuerCN     string `json:"issuerCN"`
	SerialNumber string `json:"serialNumber"`
	Fingerprint  string `json:"fingerprint"`
	ValidTo      string `json:"validTo"`
	Valid        bool   `json:"valid"`
	Error        string `json:"error,omitempty"`
}

// PageFeatures holds every on-page signal extracted for a single URL.
// The JSON field names are a stable contract with downstream consumers;
// in particular wordcount/wordcountcontentonly/wordcountvisible and the
// hNCount fields must not be renamed.
type PageFeatures struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`

	Title             string `json:"title"`
	TitleLength       int    `json:"titleLength"`
	Description       string `json:"description"`
	DescriptionLength int    `json:"descriptionLength"`

	// Three word-count variants with different exclusion rules.
	WordCount            int `json:"wordcount"`            // full serialized markup
	WordCountContentOnly int `json:"wordcountcontentonly"` // chrome and scripts stripped
	WordCountVisible     int `json:"wordcountvisible"`     // only scripts/styles stripped

	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
	H4 []string `json:"h4"`
	H5 []string `json:"h5"`
	H6 []string `json:"h6"`

	H1Count int `json:"h1Count"`
	H2Count int `json:"h2Count"`
	H3Count int `json:"h3Count"`
	H4Count int `json:"h4Count"`
	H5Count int `json:"h5Count"`
	H6Count int `json:"h6Count"`

	HeadingPositions    []HeadingPosition `json:"headingPositions"`
	HeadingQualityScore int               `json:"headingQualityScore"`

	HTTPS             bool   `json:"https"`
	HasFavicon        bool   `json:"hasFavicon"`
	HasAppleTouchIcon bool   `json:"hasAppleTouchIcon"`
	HasViewport       bool   `json:"hasViewport"`
	HasCharset        bool   `json:"hasCharset"`
	HasCanonical      bool   `json:"hasCanonical"`
	CanonicalURL      string `json:"canonicalUrl"`
	HasHreflang       bool   `json:"hasHreflang"`
	RobotsMeta        string `json:"robotsMeta"`
	RobotsHeader      string `json:"robotsHeader"`
	HasJSONLD         bool   `json:"hasJsonLd"`
	HasSchemaMarkup   bool   `json:"hasSchemaMarkup"`
	HasOpenGraph      bool   `json:"hasOpenGraph"`
	HasTwitterCard    bool   `json:"hasTwitterCard"`

	InternalLinks           int          `json:"internalLinks"`
	ExternalLinks           int          `json:"externalLinks"`
	AverageAnchorTextLength int          `json:"averageAnchorTextLength"`
	BrokenInternalLinks     int          `json:"brokenInternalLinks"`
	BrokenExternalLinks     int          `json:"brokenExternalLinks"`
	Links                   []LinkRecord `json:"links"`

	ImagesCount      int           `json:"imagesCount"`
	ImagesWithoutAlt int           `json:"imagesWithoutAlt"`
	Images           []ImageRecord `json:"images"`

	ScriptCount     int  `json:"scriptCount"`
	StylesheetCount int  `json:"stylesheetCount"`
	EmphasisCount   int  `json:"emphasisCount"`
	HasLoremIpsum   bool `json:"hasLoremIpsum"`

	Sitemap *SitemapSummary `json:"sitemap,omitempty"`

	Error string `json:"error,omitempty"`
}

// ScoreResult is the output of the scorer for a single page.
type ScoreResult struct {
	Score    int      `json:"seo_page_score"`
	Grade    string   `json:"seo_grade"`
	Category string   `json:"seo_category"`
	Issues   []string `json:"seo_issues"`
	Notes    string   `json:"seo_notes"`
}

// PageResult is the merged feature + score record produced per analyzed page.
type PageResult struct {
	PageFeatures
	ScoreResult
}

// DomainSummary aggregates a full crawl run.
type DomainSummary struct {
	AverageScore int    `json:"seo_domain_score"`
	Grade        string `json:"seo_domain_grade"`
	PagesCount   int    `json:"pagesCount"`

	PercentWithH1          int `json:"percentWithH1"`
	PercentWithDescription int `json:"percentWithDescription"`
	PercentWithImages      int `json:"percentWithImages"`
	PercentWithOpenGraph   int `json:"percentWithOpenGraph"`
	PercentWithTwitterCard int `json:"percentWithTwitterCard"`

	Status2xxPercent int `json:"status2xxPercent"`
	Status3xxPercent int `json:"status3xxPercent"`
	Status4xxPercent int `json:"status4xxPercent"`

	AvgTitleLength   int `json:"avgTitleLength"`
	AvgDescLength    int `json:"avgDescriptionLength"`
	AvgWordCount     int `json:"avgWordCount"`
	AvgInternalLinks int `json:"avgInternalLinks"`

	Certificate *CertificateInfo `json:"certificate,omitempty"`
	Sitemap     *SitemapSummary  `json:"sitemap,omitempty"`
}

// DomainReport is the full output of a domain audit.
type DomainReport struct {
	Domain  string        `json:"domain"`
	Pages   []*PageResult `json:"pages"`
	Summary DomainSummary `json:"summary"`
}
