package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageProber struct {
	types map[string]string
	sizes map[string]int64
}

func (p *fakeImageProber) ProbeImage(_ context.Context, rawURL string) (string, int64, error) {
	ct, ok := p.types[rawURL]
	if !ok {
		return "", 0, errors.New("unreachable")
	}
	return ct, p.sizes[rawURL], nil
}

func TestInventoryImages(t *testing.T) {
	markup := `<html><body>
		<img src="/logo.png" alt="Logo">
		<img src="https://cdn.example.com/hero.jpg">
		<img src="no-extension" alt="x">
	</body></html>`
	doc := docFromString(t, markup)

	prober := &fakeImageProber{
		types: map[string]string{"https://cdn.example.com/hero.jpg": "image/jpeg"},
		sizes: map[string]int64{"https://cdn.example.com/hero.jpg": 204800},
	}

	images := InventoryImages(context.Background(), doc, "https://example.com/page", ImageCapUnlimited, prober)
	require.Len(t, images, 3)

	assert.Equal(t, "https://example.com/logo.png", images[0].URL)
	assert.Equal(t, 1, images[0].Index)
	assert.Equal(t, "image/png", images[0].ContentType)
	assert.Equal(t, "Logo", images[0].Alt)
	// Probe failed for this one, the extension guess stands and size stays 0.
	assert.Equal(t, int64(0), images[0].SizeBytes)

	assert.Equal(t, "image/jpeg", images[1].ContentType)
	assert.Equal(t, int64(204800), images[1].SizeBytes)
	assert.Equal(t, int64(200), images[1].SizeKB)
	assert.Equal(t, "", images[1].Alt)

	assert.Equal(t, "unknown", images[2].ContentType)
}

func TestInventoryImagesCap(t *testing.T) {
	markup := `<html><body>
		<img src="/a.png"><img src="/b.png"><img src="/c.png">
	</body></html>`
	doc := docFromString(t, markup)

	images := InventoryImages(context.Background(), doc, "https://example.com/", 2, nil)
	assert.Len(t, images, 2)
}

func TestInventoryImagesDataURI(t *testing.T) {
	markup := `<html><body><img src="data:image/png;base64,AAAABBBB" alt="inline"></body></html>`
	doc := docFromString(t, markup)

	images := InventoryImages(context.Background(), doc, "https://example.com/", ImageCapUnlimited, nil)
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].ContentType)
	assert.Equal(t, int64(6), images[0].SizeBytes)
}

type countingProber struct {
	mu        sync.Mutex
	active    int
	maxActive int
	total     int
}

func (p *countingProber) ProbeImage(_ context.Context, _ string) (string, int64, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	p.mu.Lock()
	p.active--
	p.total++
	p.mu.Unlock()
	return "image/png", 2048, nil
}

func TestInventoryImagesProbesInBoundedBatches(t *testing.T) {
	var markup strings.Builder
	markup.WriteString("<html><body>")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&markup, `<img src="/img-%d.png" alt="x">`, i)
	}
	markup.WriteString("</body></html>")
	doc := docFromString(t, markup.String())

	prober := &countingProber{}
	images := InventoryImages(context.Background(), doc, "https://example.com/", ImageCapUnlimited, prober)

	require.Len(t, images, 12)
	assert.Equal(t, 12, prober.total)
	assert.LessOrEqual(t, prober.maxActive, 5)
	for _, img := range images {
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, int64(2048), img.SizeBytes)
	}
}

func TestApplyImageSummary(t *testing.T) {
	features := &PageFeatures{}
	ApplyImageSummary(features, []ImageRecord{
		{URL: "a", Alt: "described"},
		{URL: "b"},
		{URL: "c"},
	})
	assert.Equal(t, 3, features.ImagesCount)
	assert.Equal(t, 2, features.ImagesWithoutAlt)
}
