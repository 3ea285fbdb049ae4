package utils

import "strings"

// CanonicalDNSName returns a DNS name in canonical form:
// - ASCII-lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot because it doesn't add any runtime benefit, only legacy baggage.
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	name = ASCIILower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// ASCIILower maps A-Z to a-z and leaves every other byte untouched.
// Unlike strings.ToLower it never applies Unicode case folding, so the
// result does not depend on locale tables. It returns s unchanged (no
// allocation) when s has no uppercase ASCII.
func ASCIILower(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// LabelCount returns the number of dot-separated labels in name.
// The empty string has zero labels.
func LabelCount(name string) int {
	if name == "" {
		return 0
	}
	return strings.Count(name, ".") + 1
}

// TrailingLabels returns the last n labels of name joined by dots.
// If name has n or fewer labels it is returned unchanged.
func TrailingLabels(name string, n int) string {
	if n <= 0 {
		return ""
	}
	idx := len(name)
	for ; n > 0; n-- {
		idx = strings.LastIndexByte(name[:idx], '.')
		if idx < 0 {
			return name
		}
	}
	return name[idx+1:]
}

// StripFirstLabel removes the leftmost label. ok is false when nothing remains.
func StripFirstLabel(name string) (rest string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	return name[i+1:], true
}
