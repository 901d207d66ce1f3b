package textutil

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases the input, folds accented letters to their base form and
// replaces every run of non-alphanumeric runes with a single hyphen. Runes that
// cannot be folded to ASCII are dropped.
func Slugify(s string) string {
	folded, _, err := transform.String(slugFolder, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// SlugWithSuffix appends a random 4-character suffix so identically named
// records still receive distinct slugs.
func SlugWithSuffix(s string) string {
	slug := Slugify(s)
	suffix := randomSuffix(4)
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func randomSuffix(length int) string {
	max := big.NewInt(int64(len(slugSuffixAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = slugSuffixAlphabet[0]
			continue
		}
		b[i] = slugSuffixAlphabet[n.Int64()]
	}
	return string(b)
}
