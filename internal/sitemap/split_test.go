package sitemap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []URL {
	urls := make([]URL, n)
	for i := range urls {
		urls[i] = URL{Loc: fmt.Sprintf("/page/%d", i)}
	}
	return urls
}

func TestSplit_ByCount(t *testing.T) {
	t.Parallel()
	parts, err := Split(numbered(7), 3, 0)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 3)
	assert.Len(t, parts[1], 3)
	assert.Len(t, parts[2], 1)
	assert.Equal(t, "/page/6", parts[2][0].Loc)
}

func TestSplit_FitsInOne(t *testing.T) {
	t.Parallel()
	parts, err := Split(numbered(10), 0, 0)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Len(t, parts[0], 10)
}

func TestSplit_Empty(t *testing.T) {
	t.Parallel()
	parts, err := Split(nil, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestSplit_BySizeKeepsOrderAndLimit(t *testing.T) {
	t.Parallel()
	urls := numbered(20)
	single, err := Generate(urls[:1])
	require.NoError(t, err)
	limit := len(single) * 4

	parts, err := Split(urls, 0, limit)
	require.NoError(t, err)
	require.Greater(t, len(parts), 1)

	var flattened []string
	for _, part := range parts {
		doc, err := Generate(part)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(doc), limit)
		for _, u := range part {
			flattened = append(flattened, u.Loc)
		}
	}
	expected := make([]string, len(urls))
	for i, u := range urls {
		expected[i] = u.Loc
	}
	assert.Equal(t, expected, flattened)
}

func TestSplit_RecordTooLarge(t *testing.T) {
	t.Parallel()
	_, err := Split([]URL{{Loc: "/" + strings.Repeat("x", 500)}}, 0, 200)
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}
