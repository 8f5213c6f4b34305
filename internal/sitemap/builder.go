// internal/sitemap/builder.go
package sitemap

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

const (
	DefaultPriority   = 0.5
	DefaultChangeFreq = Weekly

	// MaxURLsPerSitemap and MaxSitemapBytes are the sitemaps.org per-file limits.
	MaxURLsPerSitemap = 50000
	MaxSitemapBytes   = 50 * 1024 * 1024
)

// DefaultExcludedRoutes are matched against route URIs without their leading slash.
var DefaultExcludedRoutes = []string{
	"admin", "admin/*",
	"api", "api/*",
	"auth/*",
	"login", "logout", "register",
	"password/*",
	"dashboard", "dashboard/*",
	"_debugbar/*", "_ignition/*",
	"telescope", "telescope/*",
	"horizon", "horizon/*",
	"sanctum/*",
	"livewire/*",
}

// RouteSource lists the route URIs that qualify for a sitemap after the
// given exclusion patterns are applied.
type RouteSource interface {
	URIs(excluded []string) ([]string, error)
}

// Builder accumulates sitemap entries in insertion order. It is not safe for
// concurrent use.
type Builder struct {
	urls              []URL
	defaultPriority   float64
	defaultChangeFreq ChangeFreq
	excludedRoutes    []string
	normalizer        Normalizer
}

type Option func(*Builder)

func WithDefaultPriority(p float64) Option {
	return func(b *Builder) {
		b.SetDefaultPriority(p)
	}
}

// WithDefaultChangeFreq ignores values outside the protocol enumeration.
func WithDefaultChangeFreq(f ChangeFreq) Option {
	return func(b *Builder) {
		if f.Valid() {
			b.defaultChangeFreq = f
		}
	}
}

func WithExcludedRoutes(patterns []string) Option {
	return func(b *Builder) {
		b.SetExcludedRoutes(patterns)
	}
}

func WithNormalization(policy Policy, baseURL string) Option {
	return func(b *Builder) {
		b.normalizer = Normalizer{Policy: policy, BaseURL: baseURL}
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{
		defaultPriority:   DefaultPriority,
		defaultChangeFreq: DefaultChangeFreq,
		excludedRoutes:    append([]string(nil), DefaultExcludedRoutes...),
		normalizer:        Normalizer{Policy: PolicyRelative},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CanonicalPages is the static page set NewDefault starts from.
func CanonicalPages() []Page {
	return []Page{
		{URL: "/", ChangeFreq: string(Daily), Priority: lo.ToPtr(1.0)},
		{URL: "/about", ChangeFreq: string(Monthly), Priority: lo.ToPtr(0.8)},
		{URL: "/contact", ChangeFreq: string(Monthly), Priority: lo.ToPtr(0.5)},
	}
}

// NewDefault returns a builder pre-populated with CanonicalPages.
func NewDefault(opts ...Option) (*Builder, error) {
	b := New(opts...)
	if err := b.AddStaticPages(CanonicalPages()); err != nil {
		return nil, err
	}
	return b, nil
}

// AddURL normalizes loc, fills in the current defaults and appends the entry.
// Nothing is appended when an error is returned.
func (b *Builder) AddURL(loc string, opts ...EntryOption) error {
	normalized, err := b.normalizer.Normalize(loc)
	if err != nil {
		return fmt.Errorf("adding %q: %w", loc, err)
	}

	e := entry{}
	for _, opt := range opts {
		opt(&e)
	}

	if e.lastMod != "" && !ValidLastMod(e.lastMod) {
		return fmt.Errorf("adding %q: %w: %q", loc, ErrInvalidLastMod, e.lastMod)
	}

	changeFreq := e.changeFreq
	if changeFreq == "" {
		changeFreq = b.defaultChangeFreq
	}
	if !changeFreq.Valid() {
		return fmt.Errorf("adding %q: %w: %q", loc, ErrInvalidChangeFreq, changeFreq)
	}

	priority := b.defaultPriority
	if e.priority != nil {
		if math.IsNaN(*e.priority) {
			return fmt.Errorf("adding %q: %w", loc, ErrInvalidPriority)
		}
		priority = clampPriority(*e.priority)
	}

	b.urls = append(b.urls, URL{
		Loc:        normalized,
		LastMod:    e.lastMod,
		ChangeFreq: changeFreq,
		Priority:   &priority,
	})
	return nil
}

// AddStaticPages adds pages in order and stops at the first invalid one.
func (b *Builder) AddStaticPages(pages []Page) error {
	for i, p := range pages {
		opts, err := p.options()
		if err != nil {
			return fmt.Errorf("static page %d (%q): %w", i, p.URL, err)
		}
		if err := b.AddURL(p.URL, opts...); err != nil {
			return fmt.Errorf("static page %d: %w", i, err)
		}
	}
	return nil
}

// AddRoutes adds every URI the source yields using the builder defaults.
// Explicit patterns replace the builder's exclusion set for this call only.
// A nil source contributes nothing.
func (b *Builder) AddRoutes(src RouteSource, excluded ...string) error {
	if src == nil {
		return nil
	}

	patterns := b.excludedRoutes
	if len(excluded) > 0 {
		patterns = excluded
	}

	uris, err := src.URIs(patterns)
	if err != nil {
		return fmt.Errorf("listing routes: %w", err)
	}
	for _, uri := range uris {
		if err := b.AddURL(uri); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaultPriority affects subsequent insertions only. NaN leaves the
// current default in place.
func (b *Builder) SetDefaultPriority(p float64) *Builder {
	if math.IsNaN(p) {
		return b
	}
	b.defaultPriority = clampPriority(p)
	return b
}

// SetDefaultChangeFreq affects subsequent insertions only.
func (b *Builder) SetDefaultChangeFreq(f ChangeFreq) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChangeFreq, f)
	}
	b.defaultChangeFreq = f
	return nil
}

func (b *Builder) SetExcludedRoutes(patterns []string) *Builder {
	b.excludedRoutes = append([]string(nil), patterns...)
	return b
}

func (b *Builder) DefaultPriority() float64 {
	return b.defaultPriority
}

func (b *Builder) DefaultChangeFreq() ChangeFreq {
	return b.defaultChangeFreq
}

func (b *Builder) ExcludedRoutes() []string {
	return append([]string(nil), b.excludedRoutes...)
}

// Clear drops all entries but keeps defaults and exclusions.
func (b *Builder) Clear() *Builder {
	b.urls = nil
	return b
}

func (b *Builder) Count() int {
	return len(b.urls)
}

func (b *Builder) IsEmpty() bool {
	return len(b.urls) == 0
}

// URLs returns a copy of the entries; mutating it does not touch the builder.
func (b *Builder) URLs() []URL {
	return lo.Map(b.urls, func(u URL, _ int) URL {
		return u.clone()
	})
}

// Pages chunks the entries into groups of at most limit. A non-positive limit
// means MaxURLsPerSitemap.
func (b *Builder) Pages(limit int) [][]URL {
	if limit <= 0 {
		limit = MaxURLsPerSitemap
	}
	if b.IsEmpty() {
		return nil
	}
	return lo.Chunk(b.URLs(), limit)
}

func (b *Builder) Generate() (string, error) {
	return Generate(b.urls)
}
