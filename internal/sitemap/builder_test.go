package sitemap

import (
	"errors"
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRoutes struct {
	uris []string
	seen []string
}

func (s *staticRoutes) URIs(excluded []string) ([]string, error) {
	s.seen = excluded
	return s.uris, nil
}

type failingRoutes struct{}

func (failingRoutes) URIs([]string) ([]string, error) {
	return nil, errors.New("route table unavailable")
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	b := New()
	assert.Equal(t, 0.5, b.DefaultPriority())
	assert.Equal(t, Weekly, b.DefaultChangeFreq())
	assert.Equal(t, DefaultExcludedRoutes, b.ExcludedRoutes())
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Count())
}

func TestNewDefault_PrepopulatesCanonicalPages(t *testing.T) {
	t.Parallel()
	b, err := NewDefault()
	require.NoError(t, err)

	urls := b.URLs()
	require.Len(t, urls, 3)
	assert.Equal(t, "/", urls[0].Loc)
	assert.Equal(t, Daily, urls[0].ChangeFreq)
	assert.Equal(t, 1.0, *urls[0].Priority)
	assert.Equal(t, "/about", urls[1].Loc)
	assert.Equal(t, "/contact", urls[2].Loc)
}

func TestAddURL_ExplicitMetadata(t *testing.T) {
	t.Parallel()
	b := New()
	require.NoError(t, b.AddURL("/about", WithLastMod("2024-01-01"), WithChangeFreq(Monthly), WithPriority(0.8)))

	urls := b.URLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "/about", urls[0].Loc)
	assert.Equal(t, "2024-01-01", urls[0].LastMod)
	assert.Equal(t, Monthly, urls[0].ChangeFreq)
	assert.Equal(t, 0.8, *urls[0].Priority)
}

func TestAddURL_DefaultsResolvedAtInsertion(t *testing.T) {
	t.Parallel()
	b := New()
	b.SetDefaultPriority(0.70000001)
	require.NoError(t, b.AddURL("/x"))

	b.SetDefaultPriority(0.2)
	require.NoError(t, b.SetDefaultChangeFreq(Yearly))
	require.NoError(t, b.AddURL("/y"))

	urls := b.URLs()
	assert.Equal(t, 0.70000001, *urls[0].Priority)
	assert.Equal(t, Weekly, urls[0].ChangeFreq)
	assert.Equal(t, 0.2, *urls[1].Priority)
	assert.Equal(t, Yearly, urls[1].ChangeFreq)
}

func TestAddURL_ClampsPriority(t *testing.T) {
	t.Parallel()
	b := New()
	require.NoError(t, b.AddURL("/high", WithPriority(1.7)))
	require.NoError(t, b.AddURL("/low", WithPriority(-0.3)))
	b.SetDefaultPriority(4)

	urls := b.URLs()
	assert.Equal(t, 1.0, *urls[0].Priority)
	assert.Equal(t, 0.0, *urls[1].Priority)
	assert.Equal(t, 1.0, b.DefaultPriority())
}

func TestAddURL_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		loc  string
		opts []EntryOption
		want error
	}{
		{name: "empty location", loc: "", want: ErrEmptyLocation},
		{name: "whitespace location", loc: "   ", want: ErrEmptyLocation},
		{name: "unknown change frequency", loc: "/a", opts: []EntryOption{WithChangeFreq("fortnightly")}, want: ErrInvalidChangeFreq},
		{name: "malformed last modified", loc: "/a", opts: []EntryOption{WithLastMod("yesterday")}, want: ErrInvalidLastMod},
		{name: "impossible calendar date", loc: "/a", opts: []EntryOption{WithLastMod("2024-13-45")}, want: ErrInvalidLastMod},
		{name: "not a number priority", loc: "/a", opts: []EntryOption{WithPriority(math.NaN())}, want: ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			err := b.AddURL(tt.loc, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, b.IsEmpty())
		})
	}
}

func TestAddURL_PreservesDuplicatesAndOrder(t *testing.T) {
	t.Parallel()
	b := New()
	for _, loc := range []string{"/b", "/a", "/b"} {
		require.NoError(t, b.AddURL(loc))
	}
	assert.Equal(t, []string{"/b", "/a", "/b"}, lo.Map(b.URLs(), func(u URL, _ int) string { return u.Loc }))
}

func TestAddStaticPages_Scenario(t *testing.T) {
	t.Parallel()
	b := New()
	err := b.AddStaticPages([]Page{
		{URL: "/", Priority: lo.ToPtr(1.0), ChangeFreq: "daily"},
		{URL: "/about", Priority: lo.ToPtr(0.8), ChangeFreq: "monthly"},
	})
	require.NoError(t, err)

	urls := b.URLs()
	require.Len(t, urls, 2)
	assert.Equal(t, URL{Loc: "/", ChangeFreq: Daily, Priority: lo.ToPtr(1.0)}, urls[0])
	assert.Equal(t, URL{Loc: "/about", ChangeFreq: Monthly, Priority: lo.ToPtr(0.8)}, urls[1])
}

func TestAddStaticPages_StopsAtFirstInvalidEntry(t *testing.T) {
	t.Parallel()
	b := New()
	err := b.AddStaticPages([]Page{
		{URL: "/ok"},
		{URL: ""},
		{URL: "/never"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyLocation)
	assert.Contains(t, err.Error(), "static page 1")
	assert.Equal(t, 1, b.Count())
}

func TestAddStaticPages_InvalidChangeFreqText(t *testing.T) {
	t.Parallel()
	b := New()
	err := b.AddStaticPages([]Page{{URL: "/a", ChangeFreq: "sometimes"}})
	assert.ErrorIs(t, err, ErrInvalidChangeFreq)
	assert.True(t, b.IsEmpty())
}

func TestAddRoutes(t *testing.T) {
	t.Parallel()

	t.Run("nil source is a no-op", func(t *testing.T) {
		b := New()
		require.NoError(t, b.AddRoutes(nil))
		assert.True(t, b.IsEmpty())
	})

	t.Run("uses builder exclusions and defaults", func(t *testing.T) {
		b := New()
		b.SetDefaultPriority(0.3)
		src := &staticRoutes{uris: []string{"blog", "/pricing"}}
		require.NoError(t, b.AddRoutes(src))

		assert.Equal(t, DefaultExcludedRoutes, src.seen)
		urls := b.URLs()
		require.Len(t, urls, 2)
		assert.Equal(t, "/blog", urls[0].Loc)
		assert.Equal(t, "/pricing", urls[1].Loc)
		assert.Equal(t, 0.3, *urls[0].Priority)
		assert.Equal(t, Weekly, urls[1].ChangeFreq)
		assert.Empty(t, urls[0].LastMod)
	})

	t.Run("explicit patterns override for the call", func(t *testing.T) {
		b := New()
		src := &staticRoutes{}
		require.NoError(t, b.AddRoutes(src, "secret/*"))
		assert.Equal(t, []string{"secret/*"}, src.seen)
		assert.Equal(t, DefaultExcludedRoutes, b.ExcludedRoutes())
	})

	t.Run("source error is reported", func(t *testing.T) {
		b := New()
		assert.Error(t, b.AddRoutes(failingRoutes{}))
	})
}

func TestClear_KeepsDefaults(t *testing.T) {
	t.Parallel()
	b := New().SetDefaultPriority(0.9).SetExcludedRoutes([]string{"x/*"})
	require.NoError(t, b.AddURL("/a"))
	require.NoError(t, b.AddURL("/b"))

	b.Clear()

	assert.Equal(t, 0, b.Count())
	assert.True(t, b.IsEmpty())
	assert.Empty(t, b.URLs())
	assert.Equal(t, 0.9, b.DefaultPriority())
	assert.Equal(t, []string{"x/*"}, b.ExcludedRoutes())
}

func TestURLs_ReturnsCopy(t *testing.T) {
	t.Parallel()
	b := New()
	require.NoError(t, b.AddURL("/a", WithPriority(0.4)))

	urls := b.URLs()
	urls[0].Loc = "/mutated"
	*urls[0].Priority = 0.99

	fresh := b.URLs()
	require.Len(t, fresh, 1)
	assert.Equal(t, "/a", fresh[0].Loc)
	assert.Equal(t, 0.4, *fresh[0].Priority)
}

func TestExcludedRoutes_ReturnsCopy(t *testing.T) {
	t.Parallel()
	b := New()
	patterns := b.ExcludedRoutes()
	patterns[0] = "changed"
	assert.Equal(t, DefaultExcludedRoutes[0], b.ExcludedRoutes()[0])
}

func TestSetDefaultChangeFreq_RejectsUnknown(t *testing.T) {
	t.Parallel()
	b := New()
	assert.ErrorIs(t, b.SetDefaultChangeFreq("sometimes"), ErrInvalidChangeFreq)
	assert.Equal(t, Weekly, b.DefaultChangeFreq())
}

func TestPages_ChunksInOrder(t *testing.T) {
	t.Parallel()
	b := New()
	for _, loc := range []string{"/1", "/2", "/3", "/4", "/5"} {
		require.NoError(t, b.AddURL(loc))
	}

	pages := b.Pages(2)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 2)
	assert.Len(t, pages[2], 1)
	assert.Equal(t, "/5", pages[2][0].Loc)

	assert.Len(t, b.Pages(0), 1)
	assert.Nil(t, New().Pages(10))
}

func TestSetDefaultPriority_IgnoresNaN(t *testing.T) {
	t.Parallel()
	b := New().SetDefaultPriority(0.3).SetDefaultPriority(math.NaN())
	assert.Equal(t, 0.3, b.DefaultPriority())

	require.NoError(t, b.AddURL("/a"))
	out, err := b.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "<priority>0.3</priority>")
	assert.NotContains(t, out, "NaN")
}

func TestAddStaticPages_NaNPriority(t *testing.T) {
	t.Parallel()
	b := New()
	err := b.AddStaticPages([]Page{{URL: "/x", Priority: lo.ToPtr(math.NaN())}})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	assert.True(t, b.IsEmpty())
}
