package blocklist

import (
	"time"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
)

// builder owns the in-progress set of a single rebuild. It is never shared.
type builder struct {
	hosts    map[string]struct{}
	extended bool
	expander Expander
}

func newBuilder(sizeHint int, extended bool, expander Expander) *builder {
	return &builder{
		hosts:    make(map[string]struct{}, sizeHint),
		extended: extended,
		expander: expander,
	}
}

// addHost applies state to host and, with extended filtering, to every
// hostname derived from it.
func (b *builder) addHost(state domain.ItemState, host string) {
	if !b.extended {
		b.addHostSingle(state, host)
		return
	}
	for _, h := range b.expander.Expand(host) {
		b.addHostSingle(state, h)
	}
}

// addHostSingle applies state to exactly host. Later calls win, which makes
// item order the precedence order.
func (b *builder) addHostSingle(state domain.ItemState, host string) {
	switch state {
	case domain.ItemAllow:
		delete(b.hosts, host)
	case domain.ItemDeny:
		b.hosts[host] = struct{}{}
	}
}

// freeze turns the builder into a snapshot. The builder must not be used afterwards.
func (b *builder) freeze(generation uint64, maxClimb int, builtAt time.Time, factory BloomFactory, fpRate float64) *Snapshot {
	s := &Snapshot{
		hosts:      b.hosts,
		extended:   b.extended,
		maxClimb:   maxClimb,
		generation: generation,
		builtAt:    builtAt,
		digest:     setDigest(b.hosts),
	}
	if factory != nil && len(b.hosts) > 0 {
		bf := factory.New(uint64(len(b.hosts)), fpRate)
		for h := range b.hosts {
			bf.Add([]byte(h))
		}
		s.bloom = bf
	}
	b.hosts = nil
	return s
}
