package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Science Fiction", "science-fiction"},
		{"  Film-Noir  ", "film-noir"},
		{"Rock & Roll!!", "rock-roll"},
		{"Драма", "драма"},
		{"ＡＢＣ", "abc"}, // fullwidth folds under NFKC
		{"---", "genre"},
		{"", "genre"},
		{"__x__", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	s := Slugify(strings.Repeat("я", 150))
	assert.Equal(t, maxSlugLen, utf8.RuneCountInString(s))
}

func TestUniqueSlug(t *testing.T) {
	assert.Equal(t, "drama", UniqueSlug("drama", nil))
	assert.Equal(t, "drama-1", UniqueSlug("drama", []string{"drama"}))
	assert.Equal(t, "drama-3", UniqueSlug("drama", []string{"drama", "drama-1", "drama-2"}))
	assert.Equal(t, "drama", UniqueSlug("drama", []string{"drama-1"}))
}

func TestUniqueSlugStaysWithinLimit(t *testing.T) {
	base := strings.Repeat("a", maxSlugLen)
	got := UniqueSlug(base, []string{base})
	assert.Equal(t, maxSlugLen, len(got))
	assert.True(t, strings.HasSuffix(got, "-1"))
}

func TestSlugRootPrefixesLongCandidates(t *testing.T) {
	base := Slugify(strings.Repeat("ab.", 33) + "a")
	require.Equal(t, maxSlugLen, utf8.RuneCountInString(base))

	root := SlugRoot(base)
	taken := []string{base}
	for range 3 {
		next := UniqueSlug(base, taken)
		assert.True(t, strings.HasPrefix(next, root), next)
		assert.LessOrEqual(t, utf8.RuneCountInString(next), maxSlugLen)
		taken = append(taken, next)
	}
	assert.Equal(t, "drama", SlugRoot("drama"))
}
