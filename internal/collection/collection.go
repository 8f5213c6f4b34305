// Package collection turns database-backed model collections into sitemap
// entries. Each collection type is registered explicitly under a tag and
// resolved through a Registry.
package collection

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

// Query selects the records of one registered collection type.
type Query struct {
	Type       string
	Route      string // location template, e.g. "/posts/{slug}"
	SlugField  string // column used as the URL segment, falls back to the id
	Where      []storage.Condition
	ChangeFreq string
	Priority   *float64

	// Timestamp columns for <lastmod>. An empty UpdatedField keeps the
	// source's column; CreatedField is only read when set.
	UpdatedField string
	CreatedField string
}

// Source produces raw sitemap pages for a query.
type Source interface {
	Pages(ctx context.Context, q Query) ([]sitemap.Page, error)
}

// Registry maps type tags to sources.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(tag string, src Source) {
	r.sources[tag] = src
}

func (r *Registry) Lookup(tag string) (Source, bool) {
	src, ok := r.sources[tag]
	return src, ok
}

// Tags lists the registered type tags in sorted order.
func (r *Registry) Tags() []string {
	tags := lo.Keys(r.sources)
	sort.Strings(tags)
	return tags
}

// AddModels queries the collection named by q.Type and adds one entry per
// record. An unregistered type contributes nothing and is not an error.
func (r *Registry) AddModels(ctx context.Context, b *sitemap.Builder, q Query) (int, error) {
	src, ok := r.Lookup(q.Type)
	if !ok {
		log.Printf("Skipping collection %q: no source registered", q.Type)
		return 0, nil
	}

	pages, err := src.Pages(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("collection %s: %w", q.Type, err)
	}
	if err := b.AddStaticPages(pages); err != nil {
		return 0, fmt.Errorf("collection %s: %w", q.Type, err)
	}
	return len(pages), nil
}

// TableSource reads a collection from one table of a storage.Store.
type TableSource struct {
	Store         storage.Store
	Table         string
	IDColumn      string
	UpdatedColumn string
	CreatedColumn string
}

// NewTableSource reads the conventional id and updated_at columns. Other
// columns are only selected when a query names them.
func NewTableSource(store storage.Store, table string) *TableSource {
	return &TableSource{
		Store:         store,
		Table:         table,
		IDColumn:      "id",
		UpdatedColumn: "updated_at",
	}
}

func (s *TableSource) Pages(ctx context.Context, q Query) ([]sitemap.Page, error) {
	rows, err := s.Store.QueryRows(ctx, storage.Selection{
		Table:         s.Table,
		IDColumn:      s.IDColumn,
		SlugColumn:    q.SlugField,
		UpdatedColumn: lo.Ternary(q.UpdatedField != "", q.UpdatedField, s.UpdatedColumn),
		CreatedColumn: lo.Ternary(q.CreatedField != "", q.CreatedField, s.CreatedColumn),
		Where:         q.Where,
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row models.Row, _ int) sitemap.Page {
		return PageFor(q, row)
	}), nil
}

// PageFor builds the sitemap page of a single record.
func PageFor(q Query, row models.Row) sitemap.Page {
	page := sitemap.Page{
		URL:        Location(q.Route, Segment(row)),
		ChangeFreq: q.ChangeFreq,
		Priority:   q.Priority,
	}
	if t := row.LastModified(); t != nil {
		page.LastModified = sitemap.FormatLastMod(*t)
	}
	return page
}

// Segment is the slug when present, otherwise the record id.
func Segment(row models.Row) string {
	if s := strings.TrimSpace(row.Slug); s != "" {
		return s
	}
	return row.ID
}

var placeholderPattern = regexp.MustCompile(`\{[^}]*\}`)

// Location fills the first {placeholder} of template with the escaped
// segment, or appends the segment when the template has none.
func Location(template, segment string) string {
	escaped := url.PathEscape(segment)
	if loc := placeholderPattern.FindStringIndex(template); loc != nil {
		return template[:loc[0]] + escaped + template[loc[1]:]
	}
	return strings.TrimRight(template, "/") + "/" + escaped
}

// ParseWhere converts configuration constraints into storage conditions.
// A plain value means equality; a map with "operator" and "value" keys
// selects another operator. Conditions are ordered by field name.
func ParseWhere(where map[string]any) ([]storage.Condition, error) {
	fields := lo.Keys(where)
	sort.Strings(fields)

	conditions := make([]storage.Condition, 0, len(fields))
	for _, field := range fields {
		cond := storage.Condition{Field: field, Operator: "=", Value: where[field]}

		if rule, ok := asMap(where[field]); ok {
			op, _ := rule["operator"].(string)
			if op == "" {
				op = "="
			}
			if !storage.ValidOperator(op) {
				return nil, fmt.Errorf("constraint on %s: unsupported operator %q", field, op)
			}
			cond.Operator = storage.NormalizeOperator(op)
			cond.Value = rule["value"]
		}

		conditions = append(conditions, cond)
	}
	return conditions, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
