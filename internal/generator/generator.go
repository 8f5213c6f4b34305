// Package generator assembles a sitemap from every source named in the
// configuration.
package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/collection"
	"github.com/romangod6/sitemapgen/internal/crawler"
	"github.com/romangod6/sitemapgen/internal/routes"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
	"github.com/romangod6/sitemapgen/internal/utils"
)

// Logger is the subset of utils.GenerationLogger the generator writes to.
type Logger interface {
	LogInfo(format string, v ...interface{})
	LogError(format string, v ...interface{})
	LogDebug(format string, v ...interface{})
}

type Deps struct {
	Store      storage.Store        // nil when no database is configured
	Registry   *collection.Registry // built from config collections when nil
	Routes     sitemap.RouteSource  // overrides the configured route table
	HTTPClient *http.Client
	Discover   func(ctx context.Context, cfg crawler.Config) ([]sitemap.Page, error)
	Logger     Logger
}

type Generator struct {
	cfg  *config.Config
	deps Deps
}

func New(cfg *config.Config, deps Deps) *Generator {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if deps.Discover == nil {
		deps.Discover = crawler.Discover
	}
	if deps.Logger == nil {
		deps.Logger = discard{}
	}
	if deps.Registry == nil {
		deps.Registry = RegistryFor(cfg, deps.Store)
	}
	return &Generator{cfg: cfg, deps: deps}
}

// RegistryFor registers one table source per configured collection type.
// Without a store the registry stays empty and collections are skipped.
func RegistryFor(cfg *config.Config, store storage.Store) *collection.Registry {
	registry := collection.NewRegistry()
	if store == nil {
		return registry
	}
	for _, col := range cfg.Sitemap.Collections {
		table := col.Table
		if table == "" {
			table = col.Type
		}
		registry.Register(col.Type, collection.NewTableSource(store, table))
	}
	return registry
}

// RouteTable converts configured routes. A route without methods is a plain
// GET page.
func RouteTable(configured []config.Route) routes.Table {
	return routes.New(lo.Map(configured, func(r config.Route, _ int) routes.Route {
		if len(r.Methods) == 0 {
			return routes.Route{URI: r.URI, Methods: []string{http.MethodGet}}
		}
		return routes.Route{URI: r.URI, Methods: r.Methods}
	})...)
}

// NewBuilder returns an empty builder carrying the configured defaults.
func (g *Generator) NewBuilder() (*sitemap.Builder, error) {
	policy, err := sitemap.ParsePolicy(g.cfg.Site.Normalization)
	if err != nil {
		return nil, err
	}

	b := sitemap.New(
		sitemap.WithNormalization(policy, g.cfg.Site.BaseURL),
		sitemap.WithDefaultPriority(g.cfg.Sitemap.DefaultPriority),
	)
	if g.cfg.Sitemap.DefaultChangeFreq != "" {
		f, err := sitemap.ParseChangeFreq(g.cfg.Sitemap.DefaultChangeFreq)
		if err != nil {
			return nil, err
		}
		if err := b.SetDefaultChangeFreq(f); err != nil {
			return nil, err
		}
	}
	if g.cfg.Sitemap.ExcludedRoutes != nil {
		b.SetExcludedRoutes(g.cfg.Sitemap.ExcludedRoutes)
	}
	return b, nil
}

// Build adds, in order: canonical pages, static pages, routes, collections,
// crawled pages and imported sitemaps. Sources that cannot be reached are
// logged and skipped; invalid static entries fail the build.
func (g *Generator) Build(ctx context.Context) (*sitemap.Builder, error) {
	b, err := g.NewBuilder()
	if err != nil {
		return nil, err
	}
	log := g.deps.Logger

	if g.cfg.Sitemap.IncludeDefaults {
		if err := b.AddStaticPages(sitemap.CanonicalPages()); err != nil {
			return nil, err
		}
	}

	static := lo.Map(g.cfg.Sitemap.StaticPages, func(p config.StaticPage, _ int) sitemap.Page {
		return sitemap.Page(p)
	})
	if err := b.AddStaticPages(static); err != nil {
		return nil, err
	}
	log.LogInfo("Added %d static pages", len(static))

	if err := g.addRoutes(b); err != nil {
		return nil, err
	}

	for _, col := range g.cfg.Sitemap.Collections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.addCollection(ctx, b, col)
	}

	if g.cfg.Crawler.Enabled && g.cfg.Crawler.StartURL != "" {
		g.addCrawl(ctx, b)
	}

	if len(g.cfg.Sitemap.Imports) > 0 {
		g.addImports(ctx, b)
	}

	log.LogInfo("Sitemap holds %d URLs", b.Count())
	return b, nil
}

func (g *Generator) addRoutes(b *sitemap.Builder) error {
	src := g.deps.Routes
	if src == nil && len(g.cfg.Sitemap.Routes) > 0 {
		src = RouteTable(g.cfg.Sitemap.Routes)
	}
	if src == nil {
		g.deps.Logger.LogDebug("No route table configured")
		return nil
	}

	before := b.Count()
	if err := b.AddRoutes(src); err != nil {
		return err
	}
	g.deps.Logger.LogInfo("Added %d routes", b.Count()-before)
	return nil
}

func (g *Generator) addCollection(ctx context.Context, b *sitemap.Builder, col config.Collection) {
	where, err := collection.ParseWhere(col.Where)
	if err != nil {
		g.deps.Logger.LogError("Skipping collection %s: %v", col.Type, err)
		return
	}

	n, err := g.deps.Registry.AddModels(ctx, b, collection.Query{
		Type:         col.Type,
		Route:        col.Route,
		SlugField:    col.SlugField,
		UpdatedField: col.UpdatedField,
		CreatedField: col.CreatedField,
		Where:        where,
		ChangeFreq:   col.ChangeFreq,
		Priority:     col.Priority,
	})
	if err != nil {
		g.deps.Logger.LogError("Skipping collection %s: %v", col.Type, err)
		return
	}
	g.deps.Logger.LogInfo("Added %d %s records", n, col.Type)
}

func (g *Generator) addCrawl(ctx context.Context, b *sitemap.Builder) {
	pages, err := g.deps.Discover(ctx, crawler.Config{
		StartURL:   g.cfg.Crawler.StartURL,
		UserAgent:  g.cfg.Crawler.UserAgent,
		MaxDepth:   g.cfg.Crawler.MaxDepth,
		HTTPClient: g.deps.HTTPClient,
	})
	if err != nil {
		g.deps.Logger.LogError("Crawl of %s failed: %v", g.cfg.Crawler.StartURL, err)
	}
	g.addPages(b, "crawl", pages)
}

type importResult struct {
	source string
	pages  []sitemap.Page
	err    error
}

// addImports fetches every configured sitemap concurrently and adds the
// results in configuration order.
func (g *Generator) addImports(ctx context.Context, b *sitemap.Builder) {
	results := iter.Map(g.cfg.Sitemap.Imports, func(source *string) importResult {
		parsed, err := Import(ctx, g.deps.HTTPClient, *source)
		if parsed == nil {
			return importResult{source: *source, err: err}
		}
		return importResult{source: *source, pages: parsed.Pages, err: err}
	})

	for _, r := range results {
		if r.err != nil {
			g.deps.Logger.LogError("Import of %s failed: %v", r.source, r.err)
		}
		g.addPages(b, r.source, r.pages)
	}
}

// Import reads a published sitemap; an index is followed one level and the
// result carries the pages of every sub-sitemap reached.
func Import(ctx context.Context, client *http.Client, source string) (*sitemap.ParseResult, error) {
	parsed, err := Fetch(ctx, client, source)
	if err != nil {
		return nil, err
	}

	for _, sub := range parsed.SubSitemaps {
		child, err := Fetch(ctx, client, sub)
		if err != nil {
			return parsed, fmt.Errorf("sub-sitemap %s: %w", sub, err)
		}
		parsed.Pages = append(parsed.Pages, child.Pages...)
	}
	return parsed, nil
}

// Fetch downloads and parses a single sitemap or sitemap index.
func Fetch(ctx context.Context, client *http.Client, source string) (*sitemap.ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, sitemap.MaxSitemapBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > sitemap.MaxSitemapBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", sitemap.MaxSitemapBytes)
	}

	return sitemap.Parse(body)
}

// addPages adds externally discovered pages one by one, dropping the ones
// that fail validation instead of failing the whole run.
func (g *Generator) addPages(b *sitemap.Builder, source string, pages []sitemap.Page) {
	added := 0
	for _, p := range pages {
		if err := b.AddStaticPages([]sitemap.Page{p}); err != nil {
			g.deps.Logger.LogDebug("Dropping %q from %s: %v", p.URL, source, err)
			continue
		}
		added++
	}
	g.deps.Logger.LogInfo("Added %d pages from %s", added, strings.TrimSpace(source))
}

type discard struct{}

func (discard) LogInfo(string, ...interface{})  {}
func (discard) LogError(string, ...interface{}) {}
func (discard) LogDebug(string, ...interface{}) {}

var _ Logger = (*utils.GenerationLogger)(nil)
