package sitemap

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// ParseResult holds the output of parsing a published sitemap document.
type ParseResult struct {
	Pages       []Page   // entries from a <urlset>
	SubSitemaps []string // locations from a <sitemapindex>
}

// Parse reads either a sitemap index or a urlset. Entries without a <loc>
// are skipped; an unparseable or non-finite <priority> is dropped rather than failing.
func Parse(data []byte) (*ParseResult, error) {
	// Try sitemap index first
	var idx sitemapIndex
	if err := xml.Unmarshal(data, &idx); err == nil && idx.XMLName.Local == "sitemapindex" {
		result := &ParseResult{}
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				result.SubSitemaps = append(result.SubSitemaps, loc)
			}
		}
		return result, nil
	}

	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		page := Page{
			URL:          loc,
			LastModified: strings.TrimSpace(u.LastMod),
			ChangeFreq:   strings.TrimSpace(u.ChangeFreq),
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(u.Priority), 64)
		if err == nil && !math.IsNaN(p) && !math.IsInf(p, 0) {
			page.Priority = &p
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}
