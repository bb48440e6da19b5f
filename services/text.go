package services

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// bluemonday policies are safe for concurrent use once built
var (
	richText  = bluemonday.UGCPolicy()
	plainText = bluemonday.StrictPolicy()
)

// sanitizeRich keeps the formatting a card description may carry and drops scripts
func sanitizeRich(s string) string {
	return strings.TrimSpace(richText.Sanitize(s))
}

// sanitizePlain strips every tag
func sanitizePlain(s string) string {
	return strings.TrimSpace(plainText.Sanitize(s))
}

// slugify folds accents and joins the words of s with dashes,
// "Đồ án Tốt nghiệp!" becomes "do-an-tot-nghiep".
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "D").Replace(folded)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
