// Package storefront scrapes catalog metadata from the public Steam store
// page of an app.
//
// The store markup is third-party controlled and unversioned. Every field is
// extracted independently and falls back to its own sentinel, so a layout
// change degrades one field rather than the whole record.
package storefront

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/transport"
)

// DefaultBaseURL is the public Steam store host.
const DefaultBaseURL = "https://store.steampowered.com"

// Scraper fetches and parses store pages.
type Scraper struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewScraper creates a store page scraper with the given request policy.
func NewScraper(baseURL string, policy transport.Policy, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		http:   transport.NewClient(baseURL, policy, logger),
		logger: logger,
	}
}

// CatalogMetadata fetches the store page for appID and extracts its metadata.
//
// The returned metadata is always usable. When the page cannot be fetched or
// parsed every field is provider.Unknown and the error wraps
// provider.ErrMetadataUnparseable.
func (s *Scraper) CatalogMetadata(ctx context.Context, appID int) (provider.CatalogMetadata, error) {
	path := fmt.Sprintf("/app/%d/", appID)

	res, err := s.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return provider.UnknownCatalog(), fmt.Errorf("fetch store page %d: %w: %w", appID, provider.ErrMetadataUnparseable, err)
	}
	if !res.IsSuccess() {
		return provider.UnknownCatalog(), fmt.Errorf("store page %d returned %d: %w", appID, res.StatusCode(), provider.ErrMetadataUnparseable)
	}

	return Parse(res.Body())
}

// Parse extracts catalog metadata from a store page body.
func Parse(body []byte) (meta provider.CatalogMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = provider.UnknownCatalog()
			err = fmt.Errorf("parse store page: %v: %w", r, provider.ErrMetadataUnparseable)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return provider.UnknownCatalog(), fmt.Errorf("parse store page: %w: %w", provider.ErrMetadataUnparseable, err)
	}

	return extract(doc), nil
}

// extract applies each field's sentinel at the call site; extractors only
// report whether their anchor was present.
func extract(doc *goquery.Document) provider.CatalogMetadata {
	meta := provider.CatalogMetadata{
		Price:       provider.Free,
		ReleaseDate: provider.Unknown,
		Developer:   provider.Unknown,
		Publisher:   provider.Unknown,
	}
	if v, ok := price(doc); ok {
		meta.Price = v
	}
	if v, ok := firstText(doc, "div.date"); ok {
		meta.ReleaseDate = v
	}
	if v, ok := firstText(doc, "div#developers_list"); ok {
		meta.Developer = v
	}
	if v, ok := publisher(doc); ok {
		meta.Publisher = v
	}
	meta.Genres = genres(doc)
	return meta
}

// price prefers the regular purchase price and falls back to the discounted
// one. A page with neither is a free item.
func price(doc *goquery.Document) (string, bool) {
	if v, ok := firstText(doc, "div.game_purchase_price"); ok {
		return v, true
	}
	return firstText(doc, "div.discount_final_price")
}

func firstText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// publisher scans the details blocks for the one mentioning Publisher and
// takes the text between the colon that follows the label and the next one.
func publisher(doc *goquery.Document) (string, bool) {
	var value string
	var found bool
	doc.Find("div.details_block").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		text := block.Text()
		i := strings.Index(text, "Publisher")
		if i < 0 {
			return true
		}
		value, found = afterColon(text[i:])
		return false
	})
	return value, found
}

// afterColon returns the first non-empty line between the first colon and
// the next one, trimmed.
func afterColon(text string) (string, bool) {
	_, rest, ok := strings.Cut(text, ":")
	if !ok {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, ":")
	for _, line := range strings.Split(rest, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			return v, true
		}
	}
	return "", false
}

// genres keeps one entry per tag, blank ones included, so the rendered
// field lines up with the page.
func genres(doc *goquery.Document) []string {
	var out []string
	doc.Find("a.app_tag").Each(func(_ int, tag *goquery.Selection) {
		out = append(out, strings.TrimSpace(tag.Text()))
	})
	return out
}
