package routes

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// Route is one entry of an application's route table.
type Route struct {
	URI     string
	Methods []string
}

var braceParam = regexp.MustCompile(`\{[^}]*\}`)

// HasParameters reports whether the URI needs values to be filled in, either
// as {name} placeholders or gin-style :name and *name segments.
func (r Route) HasParameters() bool {
	if braceParam.MatchString(r.URI) {
		return true
	}
	for _, segment := range strings.Split(r.URI, "/") {
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			return true
		}
	}
	return false
}

// Retrievable reports whether the route answers read-only requests.
func (r Route) Retrievable() bool {
	return lo.ContainsBy(r.Methods, func(m string) bool {
		m = strings.ToUpper(strings.TrimSpace(m))
		return m == http.MethodGet || m == http.MethodHead
	})
}

// Table is a static route table usable as a sitemap route source.
type Table struct {
	routes []Route
}

func New(routes ...Route) Table {
	return Table{routes: append([]Route(nil), routes...)}
}

// FromGin lists the routes registered on engine, merging methods per path in
// registration order.
func FromGin(engine *gin.Engine) Table {
	if engine == nil {
		return Table{}
	}

	index := map[string]int{}
	var routes []Route
	for _, info := range engine.Routes() {
		i, ok := index[info.Path]
		if !ok {
			i = len(routes)
			index[info.Path] = i
			routes = append(routes, Route{URI: info.Path})
		}
		routes[i].Methods = append(routes[i].Methods, info.Method)
	}
	return Table{routes: routes}
}

func (t Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// URIs returns the routes that accept GET or HEAD, carry no parameters and
// match none of the excluded globs, in table order.
func (t Table) URIs(excluded []string) ([]string, error) {
	matcher, err := CompileExclusions(excluded)
	if err != nil {
		return nil, err
	}

	var uris []string
	for _, r := range t.routes {
		if !r.Retrievable() || r.HasParameters() {
			continue
		}
		if matcher.Excluded(r.URI) {
			continue
		}
		uris = append(uris, r.URI)
	}
	return uris, nil
}

// Exclusions matches route URIs against shell-style globs. A '*' spans any
// characters including '/'.
type Exclusions struct {
	globs []glob.Glob
}

func CompileExclusions(patterns []string) (*Exclusions, error) {
	e := &Exclusions{}
	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling route exclusion %q: %w", p, err)
		}
		e.globs = append(e.globs, g)
	}
	return e, nil
}

// Excluded matches the URI without its leading slash; the root is matched as "/".
func (e *Exclusions) Excluded(uri string) bool {
	subject := strings.TrimPrefix(strings.TrimSpace(uri), "/")
	if subject == "" {
		subject = "/"
	}
	return lo.ContainsBy(e.globs, func(g glob.Glob) bool {
		return g.Match(subject)
	})
}
