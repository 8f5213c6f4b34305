package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romangod6/sitemapgen/internal/cache"
	"github.com/romangod6/sitemapgen/internal/output"
	"github.com/romangod6/sitemapgen/internal/sitemap"
)

// Source produces a freshly populated builder for every rendering.
type Source interface {
	Build(ctx context.Context) (*sitemap.Builder, error)
}

type Handler struct {
	source  Source
	cache   cache.Cache
	baseURL string
	limits  output.Limits
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Stats struct {
	URLs              int       `json:"urls"`
	Files             int       `json:"files"`
	Indexed           bool      `json:"indexed"`
	DefaultPriority   float64   `json:"default_priority"`
	DefaultChangeFreq string    `json:"default_change_freq"`
	GeneratedAt       time.Time `json:"generated_at"`
}

const statsKey = "stats"

var pageFilePattern = regexp.MustCompile(`^sitemap-([1-9][0-9]*)\.xml$`)

// NewHandler serves documents rendered from source. baseURL prefixes the
// index locations; when empty the request's own host is used.
func NewHandler(source Source, c cache.Cache, baseURL string, limits output.Limits) *Handler {
	if c == nil {
		c = cache.Noop{}
	}
	return &Handler{
		source:  source,
		cache:   c,
		baseURL: strings.TrimRight(baseURL, "/"),
		limits:  limits,
	}
}

// RespondXML writes a rendered sitemap document.
func RespondXML(c *gin.Context, doc string) {
	c.Data(http.StatusOK, "application/xml", []byte(doc))
}

func (h *Handler) Sitemap(c *gin.Context) {
	h.serveDocument(c, output.IndexFile)
}

// SitemapPage serves one part of a split sitemap. Cached stats decide whether
// the part exists; otherwise a single rendering answers the request.
func (h *Handler) SitemapPage(c *gin.Context) {
	file := c.Param("file")
	m := pageFilePattern.FindStringSubmatch(file)
	if m == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}
	ctx := c.Request.Context()

	if stats, ok := h.cachedStats(ctx); ok {
		n, _ := strconv.Atoi(m[1])
		if !stats.Indexed || n > stats.Files {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
			return
		}
		h.serveDocument(c, file)
		return
	}

	docs, stats, err := h.render(ctx, h.baseFor(c))
	if err != nil {
		log.Printf("Error generating sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap"})
		return
	}
	h.store(ctx, docs, stats)

	// An unsplit rendering holds only the index document.
	doc, ok := docs[file]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}
	RespondXML(c, doc)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.stats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Refresh regenerates every document regardless of what is cached.
func (h *Handler) Refresh(c *gin.Context) {
	docs, stats, err := h.render(c.Request.Context(), h.baseFor(c))
	if err != nil {
		log.Printf("Error refreshing sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap"})
		return
	}
	h.store(c.Request.Context(), docs, stats)
	c.JSON(http.StatusOK, stats)
}

// Warm renders and caches every document outside of a request. It needs a
// configured base URL since there is no request host to fall back on.
func (h *Handler) Warm(ctx context.Context) (*Stats, error) {
	if h.baseURL == "" {
		return nil, errors.New("warming the cache requires a base URL")
	}
	docs, stats, err := h.render(ctx, h.baseURL)
	if err != nil {
		return nil, err
	}
	h.store(ctx, docs, stats)
	return stats, nil
}

func (h *Handler) serveDocument(c *gin.Context, key string) {
	ctx := c.Request.Context()

	doc, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Error reading cache for %s: %v", key, err)
	}
	if ok {
		RespondXML(c, doc)
		return
	}

	docs, stats, err := h.render(ctx, h.baseFor(c))
	if err != nil {
		log.Printf("Error generating sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap"})
		return
	}
	h.store(ctx, docs, stats)

	doc, ok = docs[key]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}
	RespondXML(c, doc)
}

func (h *Handler) stats(c *gin.Context) (*Stats, error) {
	ctx := c.Request.Context()
	if stats, ok := h.cachedStats(ctx); ok {
		return stats, nil
	}

	docs, stats, err := h.render(ctx, h.baseFor(c))
	if err != nil {
		return nil, err
	}
	h.store(ctx, docs, stats)
	return stats, nil
}

func (h *Handler) cachedStats(ctx context.Context) (*Stats, bool) {
	raw, ok, err := h.cache.Get(ctx, statsKey)
	if err != nil {
		log.Printf("Error reading cache for %s: %v", statsKey, err)
	}
	if !ok {
		return nil, false
	}
	var stats Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// render builds the sitemap and returns every document keyed by file name.
func (h *Handler) render(ctx context.Context, base string) (map[string]string, *Stats, error) {
	b, err := h.source.Build(ctx)
	if err != nil {
		return nil, nil, err
	}

	urls := b.URLs()
	parts, err := sitemap.Split(urls, h.limits.MaxURLs, h.limits.MaxBytes)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		URLs:              len(urls),
		Files:             len(parts),
		DefaultPriority:   b.DefaultPriority(),
		DefaultChangeFreq: string(b.DefaultChangeFreq()),
		GeneratedAt:       time.Now().UTC(),
	}
	docs := make(map[string]string, len(parts)+1)

	if len(parts) <= 1 {
		doc, err := sitemap.Generate(urls)
		if err != nil {
			return nil, nil, err
		}
		docs[output.IndexFile] = doc
		return docs, stats, nil
	}

	base += "/sitemaps/"
	locations := make([]string, len(parts))
	for i, part := range parts {
		doc, err := sitemap.Generate(part)
		if err != nil {
			return nil, nil, err
		}
		docs[output.PageFile(i+1)] = doc
		locations[i] = base + output.PageFile(i+1)
	}

	index, err := sitemap.GenerateIndexAt(locations, stats.GeneratedAt)
	if err != nil {
		return nil, nil, err
	}
	docs[output.IndexFile] = index
	stats.Indexed = true
	return docs, stats, nil
}

func (h *Handler) store(ctx context.Context, docs map[string]string, stats *Stats) {
	for key, doc := range docs {
		if err := h.cache.Set(ctx, key, doc); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, statsKey, string(raw)); err != nil {
		log.Printf("Error caching %s: %v", statsKey, err)
	}
}

func (h *Handler) baseFor(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
