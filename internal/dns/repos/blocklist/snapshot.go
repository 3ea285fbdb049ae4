package blocklist

import (
	"iter"
	"maps"
	"time"
	"unsafe"

	"github.com/zeebo/xxh3"

	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
)

// DefaultMaxClimb bounds how many leading labels a lookup strips while
// searching for a blocked ancestor.
const DefaultMaxClimb = 10

// Snapshot is an immutable, fully built decision set. It is never modified
// after it has been published, so any number of readers may use it without
// synchronisation.
type Snapshot struct {
	hosts      map[string]struct{}
	bloom      BloomFilter // optional negative prefilter over hosts
	extended   bool
	maxClimb   int
	generation uint64
	builtAt    time.Time
	digest     uint64
}

func emptySnapshot(maxClimb int) *Snapshot {
	return &Snapshot{hosts: map[string]struct{}{}, maxClimb: maxClimb}
}

// contains is the exact membership test.
func (s *Snapshot) contains(host string) bool {
	if s.bloom != nil && !s.bloom.MightContain(keyBytes(host)) {
		return false
	}
	_, ok := s.hosts[host]
	return ok
}

// IsBlocked reports whether host or, with extended filtering, one of its
// first maxClimb ancestors is in the set. A rule against example.com thus
// blocks a.b.example.com; the climb goes all the way to the top-level label
// so hostile TLDs can be listed too.
func (s *Snapshot) IsBlocked(host string) bool {
	return s.Decide(host).Blocked
}

// Decide is IsBlocked with the matching member and climb depth reported.
func (s *Snapshot) Decide(host string) domain.BlockDecision {
	if s.contains(host) {
		return domain.BlockDecision{Blocked: true, MatchedRule: host, Generation: s.generation}
	}
	if !s.extended {
		return domain.BlockDecision{Generation: s.generation}
	}
	for i := 1; i <= s.maxClimb; i++ {
		var ok bool
		host, ok = utils.StripFirstLabel(host)
		if !ok {
			break
		}
		if s.contains(host) {
			return domain.BlockDecision{Blocked: true, MatchedRule: host, Depth: i, Generation: s.generation}
		}
	}
	return domain.BlockDecision{Generation: s.generation}
}

// IsEmpty reports whether the set has no members.
func (s *Snapshot) IsEmpty() bool { return len(s.hosts) == 0 }

// Len returns the number of members.
func (s *Snapshot) Len() int { return len(s.hosts) }

// Generation increases by one with every publication.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Digest is an order-independent xxh3 digest of the membership. Two
// snapshots with equal members have equal digests.
func (s *Snapshot) Digest() uint64 { return s.digest }

// ExtendedFiltering reports the mode the set was built and is queried with.
func (s *Snapshot) ExtendedFiltering() bool { return s.extended }

// All iterates the members in unspecified order.
func (s *Snapshot) All() iter.Seq[string] {
	return maps.Keys(s.hosts)
}

// Stats describes the snapshot.
func (s *Snapshot) Stats() SnapshotStats {
	return SnapshotStats{
		Generation:        s.generation,
		Hosts:             len(s.hosts),
		ExtendedFiltering: s.extended,
		MaxClimb:          s.maxClimb,
		BuiltAt:           s.builtAt,
		Digest:            s.digest,
		Bloom:             s.bloom != nil,
	}
}

// setDigest folds per-member hashes with addition, which is commutative,
// so map iteration order does not matter.
func setDigest(hosts map[string]struct{}) uint64 {
	var sum uint64
	for h := range hosts {
		sum += xxh3.HashString(h)
	}
	return sum ^ uint64(len(hosts))
}

// keyBytes views s as a byte slice without copying. The slice must not be
// modified or retained; the bloom filter only hashes it.
func keyBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
