// Package goqueryextractor implements the Extractor port using goquery.
//
// Logo detection runs two strategies in priority order: explicit <img>
// tags whose src/alt/class/id name a logo or brand (including lazy-loading
// data-src/data-lazy attributes), then social-media meta images (og:image,
// twitter:image) as a fallback. Favicons come from link[rel*=icon] and
// direct favicon.ico references.
package goqueryextractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/logoscout/logoscout/internal/crawler"
)

var logoSelector = strings.Join([]string{
	`img[src*="logo"]`,
	`img[alt*="logo"]`,
	`img[class*="logo"]`,
	`img[class*="brand"]`,
	`img[id*="logo"]`,
	`img[id*="brand"]`,
	`img[data-src*="logo"]`,
	`img[data-lazy*="logo"]`,
}, ", ")

const (
	metaImageSelector = `meta[property*="image"], meta[name*="image"]`
	faviconSelector   = `link[rel*="icon"], link[href*="favicon"]`
)

// Extractor is stateless; one instance serves all workers.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract locates logo and favicon candidates in the document and resolves
// them against baseURL. Missing candidates come back as "". Malformed or
// empty markup yields an empty pair, never an error.
func (e *Extractor) Extract(baseURL string, body []byte) (string, string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}

	logoURL := ""
	if img := doc.Find(logoSelector).First(); img.Length() > 0 {
		// Priority: src (loaded) > data-src (lazy) > data-lazy (lazy).
		if src := firstAttr(img, "src", "data-src", "data-lazy"); src != "" {
			logoURL = crawler.ResolveReference(baseURL, src)
		}
	} else if meta := doc.Find(metaImageSelector).First(); meta.Length() > 0 {
		// Many sites define logos only for social sharing.
		if content, ok := meta.Attr("content"); ok && content != "" {
			logoURL = crawler.ResolveReference(baseURL, content)
		}
	}

	faviconURL := ""
	if link := doc.Find(faviconSelector).First(); link.Length() > 0 {
		if href, ok := link.Attr("href"); ok && href != "" {
			faviconURL = crawler.ResolveReference(baseURL, href)
		}
	}

	return logoURL, faviconURL
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if value, ok := sel.Attr(name); ok && value != "" {
			return value
		}
	}
	return ""
}
