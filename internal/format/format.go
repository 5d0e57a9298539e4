// Package format cleans output file base names according to the configured
// renaming rules. Clean is a pure transform and is idempotent for a fixed
// configuration.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Replacement substitutes every occurrence of From with To.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Config holds the name formatting rules.
type Config struct {
	// Apply disables the whole transform when false; names pass through
	// with only surrounding whitespace trimmed.
	Apply bool `yaml:"apply"`
	// DeleteChars lists characters removed from the name.
	DeleteChars string `yaml:"delete_chars"`
	// ReplaceChars lists substring substitutions applied in order.
	ReplaceChars []Replacement `yaml:"replace_chars"`
	// PrefixDigits zero-pads a leading track number to this many digits.
	// 0 leaves numeric prefixes untouched.
	PrefixDigits int `yaml:"prefix_digits"`
	// Separator joins the padded numeric prefix and the rest of the name.
	Separator string `yaml:"separator"`
	// TitleCase capitalizes each word, uppercasing roman numerals.
	TitleCase bool `yaml:"title_case"`
}

// DefaultConfig mirrors the renaming rules the tool historically shipped with.
func DefaultConfig() Config {
	return Config{
		Apply:        true,
		DeleteChars:  "[]{}¡!¿?",
		ReplaceChars: []Replacement{{From: "_", To: " "}, {From: ".", To: " "}},
		PrefixDigits: 2,
		Separator:    " - ",
		TitleCase:    true,
	}
}

var (
	prefixRe     = regexp.MustCompile(`^(\d+)[\s.\-_]*(.*)$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	romanRe      = regexp.MustCompile(`^(?i)m{0,3}(cm|cd|d?c{0,3})(xc|xl|l?x{0,3})(ix|iv|v?i{0,3})$`)
)

// Clean produces the output base name for raw according to cfg.
func Clean(raw string, cfg Config) string {
	name := strings.TrimSpace(raw)
	if !cfg.Apply || name == "" {
		return name
	}

	for _, r := range []rune(cfg.DeleteChars) {
		name = strings.ReplaceAll(name, string(r), "")
	}
	for _, rep := range cfg.ReplaceChars {
		if rep.From != "" {
			name = strings.ReplaceAll(name, rep.From, rep.To)
		}
	}
	name = whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " ")

	prefix := ""
	if cfg.PrefixDigits > 0 {
		if m := prefixRe.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				prefix = fmt.Sprintf("%0*d", cfg.PrefixDigits, n)
				name = m[2]
			}
		}
	}

	if cfg.TitleCase {
		words := strings.Split(name, " ")
		for i, w := range words {
			words[i] = titleWord(w)
		}
		name = strings.Join(words, " ")
	}

	switch {
	case prefix != "" && name != "":
		return prefix + cfg.Separator + name
	case prefix != "":
		return prefix
	default:
		return name
	}
}

// titleWord capitalizes the first letter of w, lowercasing the remainder.
// Words that read as roman numerals are uppercased whole.
func titleWord(w string) string {
	if w == "" {
		return w
	}
	if romanRe.MatchString(w) {
		return strings.ToUpper(w)
	}
	runes := []rune(strings.ToLower(w))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		// Leading punctuation, e.g. "(live". Keep scanning.
		if unicode.IsDigit(r) {
			break
		}
	}
	return string(runes)
}
