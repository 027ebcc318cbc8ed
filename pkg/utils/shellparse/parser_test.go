package shellparse

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: []string{}},
		{name: "only spaces", input: "  \t ", expected: []string{}},
		{name: "jvm flags", input: "-Xmx4G  -XX:+UseG1GC", expected: []string{"-Xmx4G", "-XX:+UseG1GC"}},
		{name: "double quoted value", input: `-Dname="two words"`, expected: []string{"-Dname=two words"}},
		{name: "single quotes are literal", input: `'-Dpath=C:\Games'`, expected: []string{`-Dpath=C:\Games`}},
		{name: "escaped space", input: `-Dx=a\ b -Dy`, expected: []string{"-Dx=a b", "-Dy"}},
		{name: "escape in double quotes", input: `"a\"b" "c\d"`, expected: []string{`a"b`, `c\d`}},
		{name: "empty quoted word", input: `-a "" -b`, expected: []string{"-a", "", "-b"}},
		{name: "dollar is not expanded", input: `-Dhome=$HOME`, expected: []string{"-Dhome=$HOME"}},
		{name: "adjacent quoting", input: `-D"a b"'c d'`, expected: []string{"-Da bc d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Split(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Split(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{input: `-Dx="open`, err: ErrUnclosedQuote},
		{input: `-Dx='open`, err: ErrUnclosedQuote},
		{input: `-Dx\`, err: ErrTrailingEscape},
		{input: `"-Dx\`, err: ErrTrailingEscape},
	}

	for _, tt := range tests {
		_, err := Split(tt.input)
		if !errors.Is(err, tt.err) {
			t.Errorf("Split(%q) error = %v, want %v", tt.input, err, tt.err)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"-Xmx2G":     `"-Xmx2G"`,
		"":           `""`,
		"two words":  `"two words"`,
		"it's":       `"it's"`,
		"-Dx=$HOME":  `"-Dx=\$HOME"`,
		`-Dq=a"b`:    `"-Dq=a\"b"`,
		"`id`":       "\"\\`id\\`\"",
		`C:\Games`:   `"C:\\Games"`,
		"a;rm -rf /": `"a;rm -rf /"`,
	}
	for in, want := range tests {
		if got := Quote(in); got != want {
			t.Errorf("Quote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuoteWindows(t *testing.T) {
	tests := map[string]string{
		"-Xmx2G":    `"-Xmx2G"`,
		"two words": `"two words"`,
		`say "hi"`:  `"say ""hi"""`,
		"100%":      `"100%%"`,
		"%APPDATA%": `"%%APPDATA%%"`,
	}
	for in, want := range tests {
		if got := QuoteWindows(in); got != want {
			t.Errorf("QuoteWindows(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	args := []string{"-Xmx2G", "-Dname=two words", "it's", "", `back\slash`, "-Dx=$HOME", `-Dq=a"b`, "`id`"}
	joined := Join(args, Quote)

	result, err := Split(joined)
	if err != nil {
		t.Fatalf("Split(%q): %v", joined, err)
	}
	if !reflect.DeepEqual(result, args) {
		t.Errorf("round trip = %q, want %q", result, args)
	}
}
