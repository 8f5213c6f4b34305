package crawler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/samber/lo"
	"github.com/temoto/robotstxt"

	"github.com/romangod6/sitemapgen/internal/sitemap"
)

type Config struct {
	StartURL    string
	UserAgent   string
	MaxDepth    int
	Parallelism int
	Delay       time.Duration
	HTTPClient  *http.Client
}

// Discover crawls the host of cfg.StartURL and returns one page per HTML
// document reached, in discovery order.
func Discover(ctx context.Context, cfg Config) ([]sitemap.Page, error) {
	start, err := url.Parse(cfg.StartURL)
	if err != nil || start.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", cfg.StartURL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "sitemapgen/1.0"
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}

	robots := fetchRobots(ctx, cfg, start)

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.MaxDepth(cfg.MaxDepth),
		colly.AllowedDomains(lo.Uniq([]string{start.Hostname(), start.Host})...),
	)
	if cfg.HTTPClient != nil {
		c.SetClient(cfg.HTTPClient)
	}
	if cfg.Parallelism > 0 || cfg.Delay > 0 {
		c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: cfg.Parallelism,
			Delay:       cfg.Delay,
		})
	}

	var (
		mu    sync.Mutex
		seen  = map[string]bool{}
		pages []sitemap.Page
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		loc := canonical(e.DOM, e.Request.URL)
		if loc.Host != start.Host || !allowed(robots, loc, cfg.UserAgent) {
			return
		}

		page := sitemap.Page{
			URL:          loc.String(),
			LastModified: lastModified(e.DOM, e.Response.Headers),
		}

		mu.Lock()
		if !seen[page.URL] {
			seen[page.URL] = true
			pages = append(pages, page)
		}
		mu.Unlock()
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		err := e.Request.Visit(link)
		switch err {
		case nil, colly.ErrAlreadyVisited, colly.ErrForbiddenDomain, colly.ErrMaxDepth, colly.ErrMissingURL:
		default:
			log.Printf("Skipping %s: %v", link, err)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		log.Printf("Error visiting %s: %v", r.Request.URL, err)
	})

	if err := c.Visit(start.String()); err != nil {
		return nil, fmt.Errorf("visiting %s: %w", start, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return pages, err
	}
	return pages, nil
}

// canonical prefers <link rel="canonical"> over the request URL and drops
// the fragment either way.
func canonical(doc *goquery.Selection, requested *url.URL) *url.URL {
	loc := *requested
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if u, err := requested.Parse(strings.TrimSpace(href)); err == nil {
			loc = *u
		}
	}
	loc.Fragment = ""
	return &loc
}

var modifiedMeta = []string{
	`meta[property="article:modified_time"]`,
	`meta[property="og:updated_time"]`,
	`meta[name="last-modified"]`,
}

func lastModified(doc *goquery.Selection, headers *http.Header) string {
	for _, selector := range modifiedMeta {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if value := normalizeTimestamp(content); value != "" {
				return value
			}
		}
	}
	if headers != nil {
		if t, err := http.ParseTime(headers.Get("Last-Modified")); err == nil {
			return sitemap.FormatLastMod(t.UTC())
		}
	}
	return ""
}

func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if sitemap.ValidLastMod(s) {
		return s
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return sitemap.FormatLastMod(t)
		}
	}
	return ""
}

func fetchRobots(ctx context.Context, cfg Config, start *url.URL) *robotstxt.RobotsData {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	robotsURL := &url.URL{Scheme: start.Scheme, Host: start.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		// if we cant fetch robots.txt, assume everything is allowed
		return nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}

func allowed(robots *robotstxt.RobotsData, loc *url.URL, userAgent string) bool {
	if robots == nil {
		return true
	}
	path := loc.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, userAgent)
}
