package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reNonLetters = regexp.MustCompile(`[^\p{L}]+`)

func collapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// SanitizeText trims and collapses inner whitespace. Used for names, company
// names, addresses and free text notes.
func SanitizeText(input string) string {
	return collapseSpaces(input)
}

// SanitizeCode upper-cases a short letter code such as an IATA airport code,
// an ISO currency or a country code.
func SanitizeCode(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reNonLetters.ReplaceAllString(s, "") },
		strings.ToUpper,
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// SanitizeLower trims and lower-cases enumerated values (passenger type,
// title, gender, cabin class).
func SanitizeLower(input string) string {
	return strings.ToLower(collapseSpaces(input))
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
