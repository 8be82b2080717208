package analyzer

import (
	"context"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// ImageCapUnlimited disables the inventory cap.
const ImageCapUnlimited = -1

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".avif": "image/avif",
	".heic": "image/heic",
	".heif": "image/heif",
}

// ImageProber reads the authoritative content type and byte size for an
// image URL, typically from response headers of a lightweight request.
type ImageProber interface {
	ProbeImage(ctx context.Context, rawURL string) (contentType string, sizeBytes int64, err error)
}

const imageProbeBatchSize = 5

// InventoryImages enumerates <img> elements with a src in document order,
// up to maxImages (ImageCapUnlimited for all). Each src is resolved against the
// base URL; the content type is guessed from the extension and refined by
// the prober when one is supplied. Probe failures degrade to the guess.
func InventoryImages(ctx context.Context, doc *goquery.Document, baseURL string, maxImages int, prober ImageProber) []ImageRecord {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	records := make([]ImageRecord, 0, 8)
	probeIdx := make([]int, 0, 8)
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxImages != ImageCapUnlimited && len(records) >= maxImages {
			return false
		}

		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return true
		}

		record := ImageRecord{
			Index: len(records) + 1,
			Alt:   strings.TrimSpace(s.AttrOr("alt", "")),
		}

		if strings.HasPrefix(src, "data:") {
			record.URL = src
			record.ContentType, record.SizeBytes = decodeDataURI(src)
			record.SizeKB = record.SizeBytes / 1024
			records = append(records, record)
			return true
		}

		parsed, err := url.Parse(src)
		if err != nil {
			// Unresolvable src: skip the image, keep the page.
			return true
		}
		resolved := base.ResolveReference(parsed)
		record.URL = resolved.String()
		record.ContentType = guessContentType(resolved.Path)

		if prober != nil {
			probeIdx = append(probeIdx, len(records))
		}
		records = append(records, record)
		return true
	})

	if len(probeIdx) > 0 {
		probeImages(ctx, records, probeIdx, prober)
	}
	return records
}

// probeImages refines content types and sizes in place, batch by batch, with
// the same bounded fan-out and inter-batch pacing as the link liveness check.
func probeImages(ctx context.Context, records []ImageRecord, indices []int, prober ImageProber) {
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	for start := 0; start < len(indices); start += imageProbeBatchSize {
		end := start + imageProbeBatchSize
		if end > len(indices) {
			end = len(indices)
		}

		var wg sync.WaitGroup
		for _, idx := range indices[start:end] {
			wg.Add(1)
			go func(rec *ImageRecord) {
				defer wg.Done()
				contentType, size, err := prober.ProbeImage(ctx, rec.URL)
				if err != nil {
					return
				}
				if contentType != "" {
					rec.ContentType = contentType
				}
				rec.SizeBytes = size
				rec.SizeKB = size / 1024
			}(&records[idx])
		}
		wg.Wait()

		if end < len(indices) {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
	}
}

func guessContentType(urlPath string) string {
	ext := strings.ToLower(path.Ext(urlPath))
	if mime, ok := imageMIMETypes[ext]; ok {
		return mime
	}
	return "unknown"
}

// decodeDataURI extracts the declared MIME type and estimates the decoded
// byte size from the encoded payload length (base64 expands 3 bytes to 4).
func decodeDataURI(uri string) (string, int64) {
	contentType := "unknown"
	payload := ""

	rest := strings.TrimPrefix(uri, "data:")
	if comma := strings.Index(rest, ","); comma != -1 {
		header := rest[:comma]
		payload = rest[comma+1:]
		if semi := strings.Index(header, ";"); semi != -1 {
			header = header[:semi]
		}
		if header != "" {
			contentType = header
		}
	}

	return contentType, int64(len(payload)) * 3 / 4
}
