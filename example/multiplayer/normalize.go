package main

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText 小写后做 NFKD 分解，去掉标点和非 ASCII 字符
func NormalizeText(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.IsPunct(r) || r > unicode.MaxASCII
		})),
	)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return ""
	}
	return out
}
