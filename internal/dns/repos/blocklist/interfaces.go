package blocklist

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
)

// ErrSourceNotFound reports that an item's location does not exist (yet).
// The rebuild skips such items; it is not a failure.
var ErrSourceNotFound = errors.New("source not found")

// Source is what a SourceResolver hands back for one item: either a line
// stream or a single literal hostname. Exactly one field is set.
type Source struct {
	Stream  io.ReadCloser
	Literal string
}

// SourceResolver turns an item's location into lines to parse.
// Resolve returns ErrSourceNotFound (possibly wrapped) for missing sources.
type SourceResolver interface {
	Resolve(ctx context.Context, item domain.Item) (Source, error)
}

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface a snapshot needs from Bloom filters.
// A snapshot fills its filter before publication and only reads it afterwards.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds Bloom filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches block decisions per snapshot generation.
// Entries from an older generation never satisfy a Get for a newer one.
type DecisionCache interface {
	Get(generation uint64, name string) (domain.BlockDecision, bool)
	Put(generation uint64, name string, d domain.BlockDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// SnapshotMeta is the metadata persisted next to a decision set.
type SnapshotMeta struct {
	Generation        uint64
	UpdatedUnix       int64 // seconds since epoch
	Digest            uint64
	ExtendedFiltering bool
}

// SnapshotStore persists the last published decision set so that a restart
// can serve lookups before the first rebuild completes.
type SnapshotStore interface {
	// Save atomically replaces the stored set with hosts.
	Save(meta SnapshotMeta, hosts iter.Seq[string]) error
	// Load calls visit for every stored host. ok is false when nothing was saved yet.
	Load(visit func(host string)) (meta SnapshotMeta, ok bool, err error)
	Stats() StoreStats
	Close() error
}
