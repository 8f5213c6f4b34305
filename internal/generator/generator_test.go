package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/crawler"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Site.Normalization = "relative"
	cfg.Sitemap.DefaultPriority = 0.5
	cfg.Sitemap.DefaultChangeFreq = "weekly"
	return cfg
}

func locs(b *sitemap.Builder) []string {
	return lo.Map(b.URLs(), func(u sitemap.URL, _ int) string { return u.Loc })
}

func TestBuild_SourceOrder(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Sitemap.IncludeDefaults = true
	cfg.Sitemap.StaticPages = []config.StaticPage{{URL: "/pricing", ChangeFreq: "monthly", Priority: lo.ToPtr(0.9)}}
	cfg.Sitemap.Routes = []config.Route{
		{URI: "blog"},
		{URI: "admin/users"},
		{URI: "posts/{id}"},
		{URI: "contact-us", Methods: []string{"POST"}},
	}

	b, err := New(cfg, Deps{}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/about", "/contact", "/pricing", "/blog"}, locs(b))
	pricing := b.URLs()[3]
	assert.Equal(t, sitemap.Monthly, pricing.ChangeFreq)
	assert.Equal(t, 0.9, *pricing.Priority)
}

func TestBuild_ConfiguredExclusionsReplaceDefaults(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Sitemap.ExcludedRoutes = []string{"blog/*"}
	cfg.Sitemap.Routes = []config.Route{{URI: "admin"}, {URI: "blog/first"}}

	b, err := New(cfg, Deps{}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/admin"}, locs(b))
}

func TestBuild_InvalidStaticPageFails(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Sitemap.StaticPages = []config.StaticPage{{URL: "/ok"}, {URL: "/bad", ChangeFreq: "sometimes"}}

	_, err := New(cfg, Deps{}).Build(context.Background())
	assert.ErrorIs(t, err, sitemap.ErrInvalidChangeFreq)
}

func TestBuild_AbsoluteNormalization(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Site.Normalization = "absolute"
	cfg.Site.BaseURL = "https://example.com/"
	cfg.Sitemap.StaticPages = []config.StaticPage{{URL: "/about"}, {URL: "https://cdn.example.com/x"}}

	b, err := New(cfg, Deps{}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/about", "https://cdn.example.com/x"}, locs(b))
}

func TestBuild_Collections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })

	draft := models.NewPage("Draft", "draft")
	draft.Published = false
	for _, p := range []*models.Page{models.NewPage("Hello", "hello"), draft} {
		require.NoError(t, store.CreatePage(ctx, p))
	}

	cfg := baseConfig()
	cfg.Sitemap.Collections = []config.Collection{
		{
			Type:       "pages",
			Route:      "/pages/{slug}",
			SlugField:  "slug",
			Where:      map[string]any{"published": true},
			ChangeFreq: "daily",
		},
		{Type: "missing", Route: "/missing/{slug}"},
	}

	b, err := New(cfg, Deps{Store: store}).Build(ctx)
	require.NoError(t, err)

	urls := b.URLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "/pages/hello", urls[0].Loc)
	assert.Equal(t, sitemap.Daily, urls[0].ChangeFreq)
	assert.NotEmpty(t, urls[0].LastMod)
}

func TestBuild_CollectionsWithoutStoreAreSkipped(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Sitemap.Collections = []config.Collection{{Type: "pages", Route: "/pages/{slug}"}}

	b, err := New(cfg, Deps{}).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestBuild_CrawlFailureIsSkipped(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Crawler.Enabled = true
	cfg.Crawler.StartURL = "https://example.com/"
	cfg.Sitemap.StaticPages = []config.StaticPage{{URL: "/kept"}}

	var got crawler.Config
	b, err := New(cfg, Deps{
		Discover: func(_ context.Context, c crawler.Config) ([]sitemap.Page, error) {
			got = c
			return []sitemap.Page{{URL: "https://example.com/found"}, {URL: ""}}, errors.New("timeout")
		},
	}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/", got.StartURL)
	assert.Equal(t, []string{"/kept", "https://example.com/found"}, locs(b))
}

func TestBuild_ImportsFollowIndexInConfigOrder(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		doc, _ := sitemap.GenerateIndex([]string{server.URL + "/sitemap-1.xml"})
		fmt.Fprint(w, doc)
	})
	mux.HandleFunc("/sitemap-1.xml", func(w http.ResponseWriter, r *http.Request) {
		doc, _ := sitemap.Generate([]sitemap.URL{{Loc: server.URL + "/from-index", ChangeFreq: sitemap.Daily}})
		fmt.Fprint(w, doc)
	})
	mux.HandleFunc("/other.xml", func(w http.ResponseWriter, r *http.Request) {
		doc, _ := sitemap.Generate([]sitemap.URL{{Loc: server.URL + "/other", Priority: lo.ToPtr(0.3)}})
		fmt.Fprint(w, doc)
	})

	cfg := baseConfig()
	cfg.Sitemap.Imports = []string{
		server.URL + "/other.xml",
		server.URL + "/missing.xml",
		server.URL + "/sitemap.xml",
	}

	b, err := New(cfg, Deps{HTTPClient: server.Client()}).Build(context.Background())
	require.NoError(t, err)

	urls := b.URLs()
	require.Len(t, urls, 2)
	assert.Equal(t, server.URL+"/other", urls[0].Loc)
	assert.Equal(t, 0.3, *urls[0].Priority)
	assert.Equal(t, server.URL+"/from-index", urls[1].Loc)
	assert.Equal(t, sitemap.Daily, urls[1].ChangeFreq)
}

func TestNewBuilder_RejectsBadSettings(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Site.Normalization = "sideways"
	_, err := New(cfg, Deps{}).NewBuilder()
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.Sitemap.DefaultChangeFreq = "fortnightly"
	_, err = New(cfg, Deps{}).NewBuilder()
	assert.ErrorIs(t, err, sitemap.ErrInvalidChangeFreq)
}

func TestRouteTable_DefaultsToGet(t *testing.T) {
	t.Parallel()
	table := RouteTable([]config.Route{
		{URI: "/pricing"},
		{URI: "/contact", Methods: []string{"POST"}},
		{URI: "/admin/users"},
	})

	uris, err := table.URIs(sitemap.DefaultExcludedRoutes)
	require.NoError(t, err)
	assert.Equal(t, []string{"/pricing"}, uris)
}
