package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

// DefaultFPRate is used when a caller passes an out-of-range rate.
const DefaultFPRate = 0.01

// factory implements blocklist.BloomFactory on top of a BloomSizer.
type factory struct {
	sizer blocklist.BloomSizer
}

// NewFactory returns a BloomFactory that sizes filters with the standard formulas.
func NewFactory() blocklist.BloomFactory { return factory{sizer: NewSizer()} }

// NewFactoryWithSizer returns a BloomFactory that delegates sizing to s.
func NewFactoryWithSizer(s blocklist.BloomSizer) blocklist.BloomFactory {
	if s == nil {
		s = NewSizer()
	}
	return factory{sizer: s}
}

// New constructs a filter sized for capacity hostnames at fpRate.
func (f factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
