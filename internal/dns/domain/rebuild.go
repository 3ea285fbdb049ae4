package domain

import (
	"errors"
	"time"
)

// ErrRebuildAborted is returned when a rebuild is cancelled before it could
// publish. The previously published decision set stays authoritative.
// It is an outcome, not a failure: callers may simply retry.
var ErrRebuildAborted = errors.New("rebuild aborted")

// RebuildRequest carries the configuration captured for one rebuild.
// Nothing in it is retained after the rebuild returns.
type RebuildRequest struct {
	Items             []Item
	HostsEnabled      bool
	ExtendedFiltering bool
}

// ItemReport summarises what one item contributed to a rebuild.
type ItemReport struct {
	Item     Item
	Accepted int   // hostnames accepted by the line parser (or 1 for a literal)
	Skipped  bool  // ignored, or source not found
	Err      error // read failure; contribution up to the failure is kept
}

// RebuildResult describes a completed (published) rebuild.
type RebuildResult struct {
	Generation uint64
	Hosts      int
	Items      []ItemReport
	Duration   time.Duration
	Digest     uint64
}

// Failed returns the number of items that hit a read error.
func (r RebuildResult) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}
