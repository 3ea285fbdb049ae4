package blocklist

import (
	"strings"

	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/publicsuffix"
)

// minExpandLabels is the label count a hostname must exceed before its
// registrable-domain-plus-one form is derived.
const minExpandLabels = 3

// Expander derives the related hostnames a rule also applies to when
// extended filtering is on.
//
// For en.analytics.example.com it adds analytics.example.com, so that sibling
// subdomains (de.analytics.example.com) are covered by the hierarchical
// lookup. It never collapses to the bare registrable domain (example.com),
// which would take docs.example.com down with it. Multi-label public
// suffixes shift the cut: a.b.tracker.co.uk keeps four labels.
//
// A leading "www." is dropped as well: www.badsite.com also yields badsite.com.
type Expander struct {
	suffixes *publicsuffix.Table
}

// NewExpander returns an Expander using table, or the built-in table when nil.
func NewExpander(table *publicsuffix.Table) Expander {
	if table == nil {
		table = publicsuffix.Default()
	}
	return Expander{suffixes: table}
}

// Expand returns host followed by every derived hostname.
func (e Expander) Expand(host string) []string {
	out := make([]string, 1, 3)
	out[0] = host

	if labels := utils.LabelCount(host); labels > minExpandLabels {
		k := 2 + e.suffixes.LabelCount(host)
		if labels > k {
			out = append(out, utils.TrailingLabels(host, k))
		}
	}

	if rest, ok := strings.CutPrefix(host, "www."); ok && rest != "" {
		out = append(out, rest)
	}
	return out
}
