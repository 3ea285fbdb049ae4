package parsers

import "strings"

// utf8BOM is the byte-order mark some list publishers prepend to the first line.
const utf8BOM = "\uFEFF"

// ipPrefixes are the sink addresses recognised at the start of a hosts-file line.
var ipPrefixes = [...]string{"127.0.0.1", "::1", "0.0.0.0"}

// isSpace reports whether c is whitespace in the sense of hosts files:
// ASCII space, \t, \n, \v, \f, \r and the ASCII separators 0x1C-0x1F.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x1c, 0x1d, 0x1e, 0x1f:
		return true
	}
	return false
}

// isFilterControl reports whether c marks a line as something richer than a
// single domain: AdBlock Plus syntax, URLs, paths or option lists.
func isFilterControl(c byte) bool {
	switch c {
	case '#', '/', '?', ',', ';', ':', '!', '|', '[', '&', '$', '@', '=', '^', '+':
		return true
	}
	return false
}

// isRejectedByte reports whether c may not appear anywhere in a hostname.
// Control bytes and non-ASCII bytes are refused so every accepted name is
// plain ASCII; internationalised names must be listed in punycode.
func isRejectedByte(c byte) bool {
	return isSpace(c) || isFilterControl(c) || c < 0x20 || c >= 0x7f
}

// isEdgeByte reports whether c may not start or end a hostname.
func isEdgeByte(c byte) bool {
	return c == '.' || c == '-' || c == '_'
}

// skipIPPrefix returns the index just past a recognised sink address and the
// single whitespace byte following it. It returns 0 when line does not start
// with one, or when the address runs straight into more text (e.g. "0.0.0.01").
func skipIPPrefix(line string, end int) int {
	for _, p := range ipPrefixes {
		if !strings.HasPrefix(line, p) {
			continue
		}
		if end <= len(p) {
			return len(p) + 1
		}
		if isSpace(line[len(p)]) {
			return len(p) + 1
		}
	}
	return 0
}

// stripLineBOM removes a leading UTF-8 byte-order mark.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, utf8BOM)
}
