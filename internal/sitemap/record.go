// internal/sitemap/record.go
package sitemap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrEmptyLocation     = errors.New("location is empty")
	ErrInvalidChangeFreq = errors.New("invalid change frequency")
	ErrInvalidLastMod    = errors.New("invalid last modified timestamp")
	ErrInvalidPriority   = errors.New("priority is not a number")
	ErrMissingBaseURL    = errors.New("absolute normalization requires a base URL")
	ErrRecordTooLarge    = errors.New("single record exceeds sitemap size limit")
)

// ChangeFreq is the <changefreq> hint of a sitemap entry.
type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

var changeFreqs = []ChangeFreq{Always, Hourly, Daily, Weekly, Monthly, Yearly, Never}

func (f ChangeFreq) Valid() bool {
	for _, known := range changeFreqs {
		if f == known {
			return true
		}
	}
	return false
}

// ParseChangeFreq accepts any casing and surrounding whitespace.
func ParseChangeFreq(s string) (ChangeFreq, error) {
	f := ChangeFreq(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChangeFreq, s)
	}
	return f, nil
}

// URL is one <url> entry. Empty LastMod/ChangeFreq and a nil Priority are
// omitted from the generated document.
type URL struct {
	Loc        string
	LastMod    string
	ChangeFreq ChangeFreq
	Priority   *float64
}

func (u URL) clone() URL {
	if u.Priority != nil {
		p := *u.Priority
		u.Priority = &p
	}
	return u
}

// Page is the raw tuple produced by static page lists, model collections,
// crawls and imported sitemaps before normalization.
type Page struct {
	URL          string   `mapstructure:"url" json:"url"`
	LastModified string   `mapstructure:"last_modified" json:"last_modified,omitempty"`
	ChangeFreq   string   `mapstructure:"change_freq" json:"change_freq,omitempty"`
	Priority     *float64 `mapstructure:"priority" json:"priority,omitempty"`
}

// W3C datetime profile used by the sitemap protocol.
var lastModPattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2}))?)?)?$`)

// Layouts covering every shape lastModPattern admits. Fractional seconds
// are accepted by time.Parse after the seconds field.
var lastModLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

// ValidLastMod reports whether s is a W3C datetime naming a real instant.
func ValidLastMod(s string) bool {
	if !lastModPattern.MatchString(s) {
		return false
	}
	for _, layout := range lastModLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// FormatLastMod renders t the way <lastmod> expects it.
func FormatLastMod(t time.Time) string {
	return t.Format(time.RFC3339)
}

// clampPriority bounds p to [0,1]. Callers reject NaN first.
func clampPriority(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

type entry struct {
	lastMod    string
	changeFreq ChangeFreq
	priority   *float64
}

// EntryOption sets optional metadata on a single AddURL call.
type EntryOption func(*entry)

func WithLastMod(lastMod string) EntryOption {
	return func(e *entry) {
		e.lastMod = strings.TrimSpace(lastMod)
	}
}

func WithLastModTime(t time.Time) EntryOption {
	return func(e *entry) {
		e.lastMod = FormatLastMod(t)
	}
}

func WithChangeFreq(f ChangeFreq) EntryOption {
	return func(e *entry) {
		e.changeFreq = f
	}
}

// WithPriority overrides the builder default. Values outside [0,1] are clamped.
func WithPriority(p float64) EntryOption {
	return func(e *entry) {
		e.priority = &p
	}
}

// options converts a raw page into entry options, validating the change
// frequency text on the way.
func (p Page) options() ([]EntryOption, error) {
	var opts []EntryOption
	if p.LastModified != "" {
		opts = append(opts, WithLastMod(p.LastModified))
	}
	if strings.TrimSpace(p.ChangeFreq) != "" {
		f, err := ParseChangeFreq(p.ChangeFreq)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithChangeFreq(f))
	}
	if p.Priority != nil {
		opts = append(opts, WithPriority(*p.Priority))
	}
	return opts, nil
}
