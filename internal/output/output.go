package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/romangod6/sitemapgen/internal/sitemap"
)

// IndexFile is the name of the top-level document written by WriteSplit.
const IndexFile = "sitemap.xml"

// WriteFile writes a rendered document to path, creating parent directories.
func WriteFile(path, doc string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// Limits bounds each written file. Zero values mean the protocol maximums.
type Limits struct {
	MaxURLs  int
	MaxBytes int
}

// Result describes what WriteSplit produced.
type Result struct {
	Files   []string // every path written, index last when present
	Indexed bool
	URLs    int
}

// PageFile names the n-th (1-based) split sitemap.
func PageFile(n int) string {
	return fmt.Sprintf("sitemap-%d.xml", n)
}

// WriteSplit writes urls into dir as a single sitemap.xml when they fit in
// one file, otherwise as sitemap-N.xml pages plus a sitemap.xml index that
// points at baseURL/sitemap-N.xml.
func WriteSplit(dir, baseURL string, urls []sitemap.URL, limits Limits) (*Result, error) {
	parts, err := sitemap.Split(urls, limits.MaxURLs, limits.MaxBytes)
	if err != nil {
		return nil, err
	}

	result := &Result{URLs: len(urls)}
	if len(parts) <= 1 {
		doc, err := sitemap.Generate(urls)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, IndexFile)
		if err := WriteFile(path, doc); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
		return result, nil
	}

	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%d sitemap files need a base URL for the index", len(parts))
	}

	locations := make([]string, len(parts))
	for i, part := range parts {
		doc, err := sitemap.Generate(part)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, PageFile(i+1))
		if err := WriteFile(path, doc); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
		locations[i] = strings.TrimRight(baseURL, "/") + "/" + PageFile(i+1)
	}

	index, err := sitemap.GenerateIndex(locations)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, IndexFile)
	if err := WriteFile(path, index); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, path)
	result.Indexed = true
	return result, nil
}
