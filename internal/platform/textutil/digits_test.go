package textutil

import "testing"

func TestNormalizeDigits(t *testing.T) {
	cases := map[string]string{
		"١٢٣":        "123",
		"۴۵۶":        "456",
		"price: ٩٩":  "price: 99",
		"plain 123":  "plain 123",
		"":           "",
		"٠١٢٣٤٥٦٧٨٩": "0123456789",
	}
	for input, want := range cases {
		if got := NormalizeDigits(input); got != want {
			t.Errorf("NormalizeDigits(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{" 42 ", 42, true},
		{"٣٥", 35, true},
		{"۱۲.۵", 12.5, true},
		{"3,5", 3.5, true},
		{"1 250", 1250, true},
		{"1,250.75", 0, false},
		{"12.5", 12.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
