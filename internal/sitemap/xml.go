package sitemap

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
)

const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// urlSet represents the structure of an XML sitemap.
type urlSet struct {
	XMLName xml.Name  `xml:"urlset"`
	Xmlns   string    `xml:"xmlns,attr,omitempty"`
	URLs    []urlNode `xml:"url"`
}

// urlNode represents a single URL entry in the sitemap.
type urlNode struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name      `xml:"sitemapindex"`
	Xmlns    string        `xml:"xmlns,attr,omitempty"`
	Sitemaps []sitemapNode `xml:"sitemap"`
}

type sitemapNode struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// FormatPriority renders a priority with exactly one decimal place.
func FormatPriority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

func toNode(u URL) urlNode {
	n := urlNode{
		Loc:        u.Loc,
		LastMod:    u.LastMod,
		ChangeFreq: string(u.ChangeFreq),
	}
	if u.Priority != nil {
		n.Priority = FormatPriority(*u.Priority)
	}
	return n
}

// Generate renders urls as a sitemap document, one <url> per entry in the
// given order. Output depends only on the input.
func Generate(urls []URL) (string, error) {
	return encode(urlSet{
		Xmlns: Namespace,
		URLs:  lo.Map(urls, func(u URL, _ int) urlNode { return toNode(u) }),
	})
}

// GenerateIndex renders a sitemap index stamped with the current time.
func GenerateIndex(locations []string) (string, error) {
	return GenerateIndexAt(locations, time.Now())
}

func GenerateIndexAt(locations []string, at time.Time) (string, error) {
	lastMod := FormatLastMod(at)
	return encode(sitemapIndex{
		Xmlns: Namespace,
		Sitemaps: lo.Map(locations, func(loc string, _ int) sitemapNode {
			return sitemapNode{Loc: loc, LastMod: lastMod}
		}),
	})
}

func encode(v any) (string, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding sitemap: %w", err)
	}
	return xml.Header + string(body) + "\n", nil
}
