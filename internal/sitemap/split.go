package sitemap

import (
	"fmt"

	"github.com/samber/lo"
)

// Split partitions urls into groups that each render within the per-file
// limits. Non-positive limits fall back to the protocol maximums. Order is
// preserved across and within groups.
func Split(urls []URL, maxURLs, maxBytes int) ([][]URL, error) {
	if maxURLs <= 0 {
		maxURLs = MaxURLsPerSitemap
	}
	if maxBytes <= 0 {
		maxBytes = MaxSitemapBytes
	}
	if len(urls) == 0 {
		return nil, nil
	}

	var out [][]URL
	for _, chunk := range lo.Chunk(urls, maxURLs) {
		parts, err := splitBySize(chunk, maxBytes)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

func splitBySize(urls []URL, maxBytes int) ([][]URL, error) {
	doc, err := Generate(urls)
	if err != nil {
		return nil, err
	}
	if len(doc) <= maxBytes {
		return [][]URL{urls}, nil
	}
	if len(urls) == 1 {
		return nil, fmt.Errorf("%w: %q renders to %d bytes", ErrRecordTooLarge, urls[0].Loc, len(doc))
	}

	mid := len(urls) / 2
	left, err := splitBySize(urls[:mid], maxBytes)
	if err != nil {
		return nil, err
	}
	right, err := splitBySize(urls[mid:], maxBytes)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}
