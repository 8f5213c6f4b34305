package sitemap

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Policy selects how non-absolute locations are stored.
type Policy string

const (
	// PolicyRelative keeps root-relative paths as they are.
	PolicyRelative Policy = "relative"
	// PolicyAbsolute resolves root-relative paths against a base URL.
	PolicyAbsolute Policy = "absolute"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyRelative, nil
	case PolicyRelative, PolicyAbsolute:
		return p, nil
	default:
		return "", fmt.Errorf("unknown normalization policy %q", s)
	}
}

var absoluteURLPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// Normalizer applies the location normalization rule for one policy.
type Normalizer struct {
	Policy  Policy
	BaseURL string
}

func (n Normalizer) Normalize(loc string) (string, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", ErrEmptyLocation
	}
	if absoluteURLPattern.MatchString(loc) {
		return loc, nil
	}
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	if n.Policy != PolicyAbsolute {
		return loc, nil
	}

	base := strings.TrimRight(strings.TrimSpace(n.BaseURL), "/")
	if base == "" {
		return "", ErrMissingBaseURL
	}
	return base + loc, nil
}

// ValidateBaseURL checks a base URL before it is used for absolute locations.
func ValidateBaseURL(base string) error {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q must be absolute", base)
	}
	return nil
}
