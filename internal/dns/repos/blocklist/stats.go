package blocklist

import "time"

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    `json:"capacity"`  // configured capacity (0 for disabled cache)
	Size      int    `json:"size"`      // current number of entries
	Hits      uint64 `json:"hits"`      // total cache hits since construction
	Misses    uint64 `json:"misses"`    // total cache misses since construction
	Evictions uint64 `json:"evictions"` // total evictions since construction
}

// StoreStats reports lightweight store metrics and metadata.
// Values are read from the store in a cheap, read-only transaction.
type StoreStats struct {
	Generation  uint64 `json:"generation"`   // generation of the stored set (0 if unknown)
	UpdatedUnix int64  `json:"updated_unix"` // last updated unix time (0 if unknown)
	Hosts       uint64 `json:"hosts"`        // number of stored hostnames
	Digest      uint64 `json:"digest"`       // xxh3 set digest of the stored set
}

// SnapshotStats describes the currently published decision set.
type SnapshotStats struct {
	Generation        uint64    `json:"generation"`
	Hosts             int       `json:"hosts"`
	ExtendedFiltering bool      `json:"extended_filtering"`
	MaxClimb          int       `json:"max_climb"`
	BuiltAt           time.Time `json:"built_at"`
	Digest            uint64    `json:"digest"`
	Bloom             bool      `json:"bloom"`
}
