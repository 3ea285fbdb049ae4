package filter

import (
	"context"
	"iter"
	"time"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

// Database is the decision set the service fronts. *blocklist.Database
// implements it.
type Database interface {
	Snapshot() *blocklist.Snapshot
	Rebuild(ctx context.Context, req domain.RebuildRequest) (domain.RebuildResult, error)
	Restore(hosts iter.Seq[string], extended bool, builtAt time.Time) *blocklist.Snapshot
}

var _ Database = (*blocklist.Database)(nil)
