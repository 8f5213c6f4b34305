// Package analyzer summarizes a published sitemap and spot-checks a few of
// the pages it lists.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html"

	"github.com/romangod6/sitemapgen/internal/generator"
	"github.com/romangod6/sitemapgen/internal/sitemap"
)

type Report struct {
	Source         string
	SubSitemaps    int
	URLs           int
	Duplicates     []string
	ChangeFreqs    map[string]int
	MissingLastMod int
	InvalidLastMod int
	MinPriority    *float64
	MaxPriority    *float64
	Samples        []Sample
}

// Sample is what a single listed page reports about itself.
type Sample struct {
	URL       string
	Status    int
	Title     string
	Robots    string
	Canonical string
	Err       error
}

// Analyze fetches source (following an index one level) and samples up to
// samples of its pages.
func Analyze(ctx context.Context, client *http.Client, source string, samples int) (*Report, error) {
	if client == nil {
		client = http.DefaultClient
	}

	parsed, err := generator.Import(ctx, client, source)
	if err != nil {
		return nil, err
	}

	report := Summarize(parsed.Pages)
	report.Source = source
	report.SubSitemaps = len(parsed.SubSitemaps)

	for _, page := range lo.Slice(parsed.Pages, 0, samples) {
		report.Samples = append(report.Samples, samplePage(ctx, client, page.URL))
	}
	return report, nil
}

// Summarize computes the document statistics of pages.
func Summarize(pages []sitemap.Page) *Report {
	report := &Report{
		URLs: len(pages),
		ChangeFreqs: lo.CountValuesBy(pages, func(p sitemap.Page) string {
			if p.ChangeFreq == "" {
				return "(none)"
			}
			return strings.ToLower(p.ChangeFreq)
		}),
		Duplicates: lo.FindDuplicates(lo.Map(pages, func(p sitemap.Page, _ int) string { return p.URL })),
	}

	for _, p := range pages {
		switch {
		case p.LastModified == "":
			report.MissingLastMod++
		case !sitemap.ValidLastMod(p.LastModified):
			report.InvalidLastMod++
		}

		if p.Priority == nil {
			continue
		}
		if report.MinPriority == nil || *p.Priority < *report.MinPriority {
			report.MinPriority = lo.ToPtr(*p.Priority)
		}
		if report.MaxPriority == nil || *p.Priority > *report.MaxPriority {
			report.MaxPriority = lo.ToPtr(*p.Priority)
		}
	}
	return report
}

func samplePage(ctx context.Context, client *http.Client, loc string) Sample {
	sample := Sample{URL: loc}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		sample.Err = err
		return sample
	}
	resp, err := client.Do(req)
	if err != nil {
		sample.Err = err
		return sample
	}
	defer resp.Body.Close()

	sample.Status = resp.StatusCode
	doc, err := html.Parse(resp.Body)
	if err != nil {
		sample.Err = err
		return sample
	}

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if sample.Title == "" {
					sample.Title = getNodeText(n)
				}
			case "meta":
				if strings.EqualFold(getAttr(n, "name"), "robots") {
					sample.Robots = getAttr(n, "content")
				}
			case "link":
				if strings.EqualFold(getAttr(n, "rel"), "canonical") {
					sample.Canonical = getAttr(n, "href")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return sample
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func getNodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text += getNodeText(c)
	}
	return strings.TrimSpace(text)
}

// Write prints the report in the plain layout of the analyze command.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintf(w, "Sitemap: %s\n", r.Source)
	if r.SubSitemaps > 0 {
		fmt.Fprintf(w, "Sub-sitemaps: %d\n", r.SubSitemaps)
	}
	fmt.Fprintf(w, "Total URLs found: %d\n", r.URLs)
	fmt.Fprintf(w, "Duplicate URLs: %d\n", len(r.Duplicates))
	fmt.Fprintf(w, "Missing lastmod: %d\n", r.MissingLastMod)
	fmt.Fprintf(w, "Invalid lastmod: %d\n", r.InvalidLastMod)
	if r.MinPriority != nil {
		fmt.Fprintf(w, "Priority range: %s - %s\n", sitemap.FormatPriority(*r.MinPriority), sitemap.FormatPriority(*r.MaxPriority))
	}

	fmt.Fprintln(w, "\n--- Change Frequencies ---")
	freqs := lo.Keys(r.ChangeFreqs)
	sort.Strings(freqs)
	for _, f := range freqs {
		fmt.Fprintf(w, "%-10s %d\n", f, r.ChangeFreqs[f])
	}

	for i, s := range r.Samples {
		fmt.Fprintf(w, "\n=== Sample %d/%d: %s ===\n", i+1, len(r.Samples), s.URL)
		if s.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", s.Err)
			continue
		}
		fmt.Fprintf(w, "Status: %d\n", s.Status)
		fmt.Fprintf(w, "Title: %s\n", s.Title)
		if s.Canonical != "" {
			fmt.Fprintf(w, "Canonical: %s\n", s.Canonical)
		}
		if s.Robots != "" {
			fmt.Fprintf(w, "Robots: %s\n", s.Robots)
		}
	}
}
