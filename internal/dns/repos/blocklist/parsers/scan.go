package parsers

import (
	"bufio"
	"bytes"
	"context"
	"io"

	logpkg "github.com/haukened/rr-hostblock/internal/dns/common/log"
)

// maxLineBytes bounds a single line. Longer lines are skipped, not fatal.
const maxLineBytes = 1 << 20

// lineSplitter splits on "\n", "\r" and "\r\n". A line that outgrows
// maxLineBytes is dropped up to its terminator and counted in skipped.
type lineSplitter struct {
	max        int
	discarding bool
	skipped    int
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance := i + 1
		if data[i] == '\r' {
			switch {
			case i+1 < len(data):
				if data[i+1] == '\n' {
					advance++
				}
			case !atEOF && len(data) <= s.max:
				// a following '\n' belongs to this terminator
				return 0, nil, nil
			}
		}
		if s.discarding {
			s.discarding = false
			return advance, nil, nil
		}
		return advance, data[:i], nil
	}
	if s.discarding {
		if atEOF {
			s.discarding = false
		}
		return len(data), nil, nil
	}
	if len(data) > s.max {
		s.discarding = !atEOF
		s.skipped++
		return len(data), nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ScanLines reads r line by line, runs every line through ParseLine and calls
// visit for each accepted hostname, in input order. Lines end at "\n", "\r"
// or "\r\n"; a line longer than maxLineBytes is skipped.
//
// ctx is checked before every line. On cancellation ScanLines stops and
// returns ctx.Err(); a read failure returns the reader's error. In both cases
// count reports how many hostnames were already handed to visit.
func ScanLines(ctx context.Context, r io.Reader, source string, logger logpkg.Logger, visit func(host string)) (count int, err error) {
	splitter := &lineSplitter{max: maxLineBytes}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes+1)
	scanner.Split(splitter.split)

	logger.Debug(map[string]any{"source": source}, "scan_lines_start")

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "count": count}, "scan_lines_cancelled")
			return count, err
		}
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = stripLineBOM(line)
		}
		host, ok := ParseLine(line)
		if !ok {
			continue
		}
		count++
		visit(host)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "scan_lines_error")
		return count, err
	}
	if splitter.skipped > 0 {
		logger.Warn(map[string]any{"source": source, "skipped": splitter.skipped, "max_bytes": maxLineBytes}, "scan_lines_overlong")
	}
	logger.Debug(map[string]any{"source": source, "lines": lineNum, "count": count}, "scan_lines_done")
	return count, nil
}
