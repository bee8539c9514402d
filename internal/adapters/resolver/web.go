package resolver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// DefaultUserAgent is sent when fetching pages; some sites hide OpenGraph tags from bots.
const DefaultUserAgent = "Mozilla/5.0 (compatible; spanduck/1.0; +https://spanduck.com)"

// PageMeta is the raw metadata parsed from a page before fallbacks are applied.
type PageMeta struct {
	OG        map[string]string // og:title -> "title"
	Meta      map[string]string // <title>, meta[name=...]
	Canonical string
	Images    []string
}

// WebResolver resolves web page sources by parsing their HTML metadata.
type WebResolver struct {
	http *resty.Client
}

// WebConfig configures WebResolver.
type WebConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// NewWebResolver creates a new WebResolver.
func NewWebResolver(cfg WebConfig) *WebResolver {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client := resty.New().
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &WebResolver{http: client}
}

// Resolve fetches the page and builds WebMetadata, preferring OpenGraph fields.
func (r *WebResolver) Resolve(ctx context.Context, src domain.Source) (domain.Metadata, error) {
	page, err := r.Parse(ctx, src.URL)
	if err != nil {
		return domain.Metadata{}, domain.Wrap(domain.ErrUpstream, "parse page", err)
	}
	return domain.NewWebMetadata(BuildWebMetadata(src.URL, page)), nil
}

// Parse fetches pageURL and extracts its metadata.
func (r *WebResolver) Parse(ctx context.Context, pageURL string) (*PageMeta, error) {
	resp, err := r.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	// Relative links resolve against the final URL after redirects.
	base := pageURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		base = resp.RawResponse.Request.URL.String()
	}

	page := ParseDocument(doc, base)
	log.GlobalDebugCtx(ctx, "page parsed", "url", pageURL, "og_fields", len(page.OG), "images", len(page.Images))
	return page, nil
}

// ParseDocument extracts OpenGraph, basic meta, canonical link and images from doc.
func ParseDocument(doc *goquery.Document, baseURL string) *PageMeta {
	page := &PageMeta{
		OG:   make(map[string]string),
		Meta: make(map[string]string),
	}
	base, _ := url.Parse(baseURL)

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		if prop := strings.ToLower(s.AttrOr("property", "")); strings.HasPrefix(prop, "og:") {
			setOnce(page.OG, strings.TrimPrefix(prop, "og:"), content)
			return
		}
		name := strings.ToLower(s.AttrOr("name", ""))
		switch name {
		case "description", "type", "site_name", "title":
			setOnce(page.Meta, name, content)
		case "application-name":
			setOnce(page.Meta, "site_name", content)
		case "og:title", "og:description", "og:image", "og:site_name", "og:type", "og:url":
			// some sites put OpenGraph keys in name instead of property
			setOnce(page.OG, strings.TrimPrefix(name, "og:"), content)
		}
	})

	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		page.Meta["title"] = title
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		page.Canonical = absolute(base, href)
	}
	if og, ok := page.OG["url"]; ok {
		page.OG["url"] = absolute(base, og)
	}
	if img, ok := page.OG["image"]; ok {
		page.OG["image"] = absolute(base, img)
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" && !strings.HasPrefix(src, "data:") {
			page.Images = append(page.Images, absolute(base, src))
		}
	})

	return page
}

// BuildWebMetadata applies field-wise fallbacks: each field takes the OpenGraph value,
// then the basic meta value, then "". The image falls back to the first page image.
// The URL is the canonical link, then og:url, then the requested URL, normalized.
func BuildWebMetadata(requestURL string, page *PageMeta) domain.WebMetadata {
	first := func(key string) string {
		if v := page.OG[key]; v != "" {
			return v
		}
		return page.Meta[key]
	}

	image := page.OG["image"]
	if image == "" && len(page.Images) > 0 {
		image = page.Images[0]
	}

	return domain.WebMetadata{
		URL:         canonicalURL(requestURL, page),
		Title:       first("title"),
		Description: first("description"),
		ImageURL:    image,
		SiteName:    first("site_name"),
		Type:        first("type"),
	}
}

func canonicalURL(requestURL string, page *PageMeta) string {
	for _, candidate := range []string{page.Canonical, page.OG["url"], requestURL} {
		if candidate == "" {
			continue
		}
		if normalized, err := domain.NormalizeURL(candidate); err == nil {
			return normalized
		}
	}
	return requestURL
}

func setOnce(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func absolute(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
