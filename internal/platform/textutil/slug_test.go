package textutil

import (
	"regexp"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  Multiple   Gaps ": "multiple-gaps",
		"Café au Lait":       "cafe-au-lait",
		"UPPER-case_mix":     "upper-case-mix",
		"100% cotton":        "100-cotton",
		"---":                "",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugWithSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^blue-shirt-[0-9a-z]{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		slug := SlugWithSuffix("Blue Shirt")
		if !pattern.MatchString(slug) {
			t.Fatalf("slug %q does not match expected shape", slug)
		}
		seen[slug] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected suffixes to vary across calls")
	}
}

func TestSlugWithSuffixEmptyName(t *testing.T) {
	slug := SlugWithSuffix("؟؟؟")
	if len(slug) != 4 || strings.Contains(slug, "-") {
		t.Fatalf("expected bare 4-char suffix, got %q", slug)
	}
}
