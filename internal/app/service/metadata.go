package service

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tinylink-dev/tinylink/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultFetchTimeout bounds the single GET against the target.
	DefaultFetchTimeout = 2 * time.Second

	// Scraping never reads more than this much of the target body.
	maxMetadataBody = 512 * 1024

	metadataCacheTTL   = 5 * time.Minute
	metadataCacheSweep = 10 * time.Minute
)

// Metadata is the best-effort title/description/image scraped from a
// target page, used for the preview page and its social tags.
type Metadata struct {
	Title       string
	Description string
	Image       string
}

// Best-effort extraction over arbitrary HTML. These are heuristics, not a
// parser; a miss degrades to the fallback values.
var (
	imageURLPattern = regexp.MustCompile(`(?i)(\.png|\.jpg|\.jpeg|\.gif|\.webp|\.bmp)(\?.*)?$`)
	titlePattern    = regexp.MustCompile(`(?i)<title>([^<]{1,200})</title>`)
	ogImagePattern  = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:image["'][^>]*content=["']([^"']+)["'][^>]*>`)
	twImagePattern  = regexp.MustCompile(`(?i)<meta[^>]*name=["']twitter:image["'][^>]*content=["']([^"']+)["'][^>]*>`)
	ogDescPattern   = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:description["'][^>]*content=["']([^"']+)["'][^>]*>`)
	descPattern     = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']+)["'][^>]*>`)
)

// MetadataFetcher retrieves preview metadata for target URLs. Fetch never
// returns an error: any failure degrades to a usable fallback, because a
// broken target page must not block the preview path.
type MetadataFetcher struct {
	client *http.Client
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewMetadataFetcher builds a fetcher with the given per-request timeout
// (DefaultFetchTimeout when zero).
func NewMetadataFetcher(timeout time.Duration, logger *zap.Logger) *MetadataFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataFetcher{
		client: &http.Client{Timeout: timeout},
		cache:  gocache.New(metadataCacheTTL, metadataCacheSweep),
		logger: logger,
	}
}

// Fetch returns best-effort metadata for targetURL. Direct image links are
// answered without a network round trip. Results are cached briefly so
// unfurler bursts don't hammer the target.
func (f *MetadataFetcher) Fetch(ctx context.Context, targetURL string) Metadata {
	if imageURLPattern.MatchString(targetURL) {
		return Metadata{Title: "Shared image", Description: targetURL, Image: targetURL}
	}

	if cached, ok := f.cache.Get(targetURL); ok {
		return cached.(Metadata)
	}

	meta := f.scrape(ctx, targetURL)
	f.cache.SetDefault(targetURL, meta)
	return meta
}

func (f *MetadataFetcher) scrape(ctx context.Context, targetURL string) Metadata {
	fallback := Metadata{
		Title:       targetURL,
		Description: "Redirects to " + targetURL,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return fallback
	}

	resp, err := f.client.Do(req)
	if err != nil {
		prometheus.MetadataFallbacks.Inc()
		f.logger.Debug("metadata fetch failed", zap.String("target", targetURL), zap.Error(err))
		return fallback
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBody))
	if err != nil {
		prometheus.MetadataFallbacks.Inc()
		f.logger.Debug("metadata read failed", zap.String("target", targetURL), zap.Error(err))
		return fallback
	}

	html := string(body)
	meta := fallback
	if m := titlePattern.FindStringSubmatch(html); m != nil {
		meta.Title = strings.TrimSpace(m[1])
	}
	if m := firstMatch(html, ogDescPattern, descPattern); m != "" {
		meta.Description = m
	}
	if m := firstMatch(html, ogImagePattern, twImagePattern); m != "" {
		meta.Image = m
	}
	return meta
}

func firstMatch(html string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
