package service

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxSlugLen matches genres.slug VARCHAR(100).
const maxSlugLen = 100

// maxSuffixLen is the room SlugRoot reserves for a "-N" suffix.
const maxSuffixLen = len("-9999999")

// fallbackSlug is used when a name has no word characters at all.
const fallbackSlug = "genre"

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Slugify turns s into a URL-safe slug: NFKC-normalized, lower-cased,
// every run of non-word characters collapsed to a single '-', with
// leading and trailing '-' and '_' trimmed. Letters outside ASCII are kept.
func Slugify(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = nonWord.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")
	if s == "" {
		return fallbackSlug
	}
	return truncateRunes(s, maxSlugLen)
}

// UniqueSlug returns base if it is not in taken, otherwise the first of
// base-1, base-2, ... that is free. The result never exceeds maxSlugLen;
// base is shortened to make room for the suffix.
func UniqueSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		candidate := truncateRunes(base, maxSlugLen-len(suffix)) + suffix
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

// SlugRoot returns the prefix that base and each UniqueSlug candidate
// derived from it starts with, as long as the suffix fits in
// maxSuffixLen. Long bases lose their tail to the suffix, so the
// candidates do not always start with base itself.
func SlugRoot(base string) string {
	return truncateRunes(base, maxSlugLen-maxSuffixLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), "-_")
}
