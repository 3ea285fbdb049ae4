// Package publicsuffix answers how many trailing labels of a hostname form its
// public suffix, using a small fixed table of multi-label suffixes (co.uk,
// k12.ak.us, appspot.com, ...). The table can be replaced wholesale with Parse.
package publicsuffix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
)

// node is one label in a trie keyed by labels read right to left.
type node struct {
	children map[string]*node
	terminal bool
}

// Table is an immutable longest-match suffix lookup. Lookups cost one map
// probe per label of the queried name, independent of table size.
type Table struct {
	root node
	size int
}

// New builds a Table from suffixes given without a leading dot ("co.uk").
// Entries are canonicalised; empty entries are skipped.
func New(suffixes []string) *Table {
	t := &Table{}
	for _, s := range suffixes {
		s = strings.TrimPrefix(utils.CanonicalDNSName(s), ".")
		if s == "" {
			continue
		}
		if t.insert(s) {
			t.size++
		}
	}
	return t
}

func (t *Table) insert(suffix string) bool {
	n := &t.root
	rest := suffix
	for rest != "" {
		var label string
		if i := strings.LastIndexByte(rest, '.'); i >= 0 {
			label, rest = rest[i+1:], rest[:i]
		} else {
			label, rest = rest, ""
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[label]
		if !ok {
			child = &node{}
			n.children[label] = child
		}
		n = child
	}
	if n.terminal {
		return false
	}
	n.terminal = true
	return true
}

// Len returns the number of distinct suffixes in the table.
func (t *Table) Len() int { return t.size }

// Match returns the longest table entry that name ends with, dot-separated.
// The entry must be a proper suffix: "co.uk" itself does not match "co.uk".
func (t *Table) Match(name string) (string, bool) {
	n := &t.root
	best := -1
	rest := name
	for {
		i := strings.LastIndexByte(rest, '.')
		if i < 0 {
			// the leftmost label can never be part of a proper suffix
			break
		}
		child, ok := n.children[rest[i+1:]]
		if !ok {
			break
		}
		n = child
		rest = rest[:i]
		if n.terminal {
			best = len(rest) + 1
		}
	}
	if best < 0 {
		return "", false
	}
	return name[best:], true
}

// LabelCount returns the number of labels of the public suffix of name,
// or 1 when no table entry matches (a single-label suffix such as "com").
func (t *Table) LabelCount(name string) int {
	s, ok := t.Match(name)
	if !ok {
		return 1
	}
	return utils.LabelCount(s)
}

// Parse reads a replacement table: one suffix per line, "//" and "#"
// comments, blank lines ignored. Wildcard ("*.") and exception ("!") rules
// of the full public suffix list format are skipped, as are single-label
// entries, which the default of one label already covers.
func Parse(r io.Reader) (*Table, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		if f := strings.Fields(line); len(f) > 0 {
			line = f[0]
		}
		if strings.HasPrefix(line, "*.") || strings.HasPrefix(line, "!") {
			continue
		}
		if !strings.Contains(strings.Trim(line, "."), ".") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read suffix table: %w", err)
	}
	return New(entries), nil
}

// Load reads a replacement table from the file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suffix table: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = New(multiLabelSuffixes)
	})
	return defaultTable
}
