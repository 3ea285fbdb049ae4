package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// filter adapts a bits-and-blooms filter to blocklist.BloomFilter.
//
// A snapshot calls Add only while it is being built and publishes the filter
// afterwards, so there is no locking: MightContain is safe from any number
// of goroutines once Add calls have stopped.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.bf.Add(key)
}

func (f *filter) MightContain(key []byte) bool {
	return f.bf.Test(key)
}

// Bits returns the filter width, used by tests and stats.
func (f *filter) Bits() uint { return f.bf.Cap() }

// Hashes returns the number of hash functions.
func (f *filter) Hashes() uint { return f.bf.K() }
