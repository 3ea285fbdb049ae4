package parsers

import (
	"strings"

	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
)

// minHostLen is the shortest accepted hostname, exclusive: "a.b" is refused.
const minHostLen = 3

// ParseLine extracts a canonical hostname from one line of a rule source.
//
// Accepted shapes:
//   - a bare hostname:                 example.com
//   - a hosts-file entry:              0.0.0.0 example.com   (also 127.0.0.1, ::1)
//   - AdBlock Plus whole-domain rules: ||example.com^
//
// Anything after '#' is a comment. Lines that look like richer filter
// expressions (paths, wildcards, options, exceptions, multiple hosts) are
// rejected rather than interpreted. The result is ASCII-lowercased and never
// starts or ends with '.', '-' or '_'.
func ParseLine(line string) (string, bool) {
	// AdBlock Plus exception filters such as "www.google.com#@##videoads" would
	// otherwise read as a hostname followed by a comment.
	if strings.Contains(line, "#@#") {
		return "", false
	}

	end := strings.IndexByte(line, '#')
	if end < 0 {
		end = len(line)
	}
	for end > 0 && isSpace(line[end-1]) {
		end--
	}
	if end <= 0 {
		return "", false
	}

	start := skipIPPrefix(line, end)
	for start < end && isSpace(line[start]) {
		start++
	}
	if start >= end {
		return "", false
	}

	if line[end-1] == '^' && end-start >= 2 && line[start] == '|' && line[start+1] == '|' {
		start += 2
		end--
	}

	for i := start; i < end; i++ {
		if isRejectedByte(line[i]) {
			return "", false
		}
	}

	if start >= end {
		return "", false
	}
	if isEdgeByte(line[start]) || isEdgeByte(line[end-1]) {
		return "", false
	}

	host := line[start:end]
	if strings.IndexByte(host, '.') < 0 {
		return "", false
	}
	if len(host) <= minHostLen {
		return "", false
	}
	return utils.ASCIILower(host), true
}
