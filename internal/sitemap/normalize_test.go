package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Relative(t *testing.T) {
	t.Parallel()
	n := Normalizer{Policy: PolicyRelative}

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "root-relative kept", in: "/about", expected: "/about"},
		{name: "bare path prefixed", in: "about/team", expected: "/about/team"},
		{name: "whitespace trimmed", in: "  /contact \n", expected: "/contact"},
		{name: "absolute kept", in: "https://example.com/x", expected: "https://example.com/x"},
		{name: "other scheme kept", in: "ftp://files.example.com/a", expected: "ftp://files.example.com/a"},
		{name: "root", in: "/", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizer_Absolute(t *testing.T) {
	t.Parallel()
	n := Normalizer{Policy: PolicyAbsolute, BaseURL: "https://example.com/"}

	tests := []struct {
		in       string
		expected string
	}{
		{in: "/about", expected: "https://example.com/about"},
		{in: "about", expected: "https://example.com/about"},
		{in: "/", expected: "https://example.com/"},
		{in: "https://cdn.example.com/a", expected: "https://cdn.example.com/a"},
	}

	for _, tt := range tests {
		got, err := n.Normalize(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestNormalizer_Errors(t *testing.T) {
	t.Parallel()

	_, err := Normalizer{}.Normalize(" ")
	assert.ErrorIs(t, err, ErrEmptyLocation)

	_, err = Normalizer{Policy: PolicyAbsolute}.Normalize("/about")
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestBuilder_AbsolutePolicy(t *testing.T) {
	t.Parallel()
	b := New(WithNormalization(PolicyAbsolute, "https://example.com"))
	require.NoError(t, b.AddURL("/about"))
	require.NoError(t, b.AddURL("https://other.example.org/"))

	urls := b.URLs()
	assert.Equal(t, "https://example.com/about", urls[0].Loc)
	assert.Equal(t, "https://other.example.org/", urls[1].Loc)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRelative, p)

	p, err = ParsePolicy(" Absolute ")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbsolute, p)

	_, err = ParsePolicy("canonical")
	assert.Error(t, err)
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateBaseURL("https://example.com"))
	assert.Error(t, ValidateBaseURL("example.com"))
	assert.Error(t, ValidateBaseURL("/relative"))
}
