package filter

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/haukened/rr-hostblock/internal/dns/common/clock"
	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/metrics"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

// Service answers block decisions for arbitrary input names and keeps the
// decision cache and the persisted snapshot in step with the database.
type Service struct {
	db      Database
	cache   blocklist.DecisionCache
	store   blocklist.SnapshotStore
	metrics *metrics.Metrics
	logger  log.Logger
	clock   clock.Clock

	mu          sync.Mutex // serialises Rebuild and Restore
	savedDigest uint64
	saved       bool
}

// Options configures a Service. Database is required; Cache, Store and
// Metrics are optional.
type Options struct {
	Database Database
	Cache    blocklist.DecisionCache
	Store    blocklist.SnapshotStore
	Metrics  *metrics.Metrics
	Logger   log.Logger
	Clock    clock.Clock
}

// Stats is the combined view served by the admin API.
type Stats struct {
	Snapshot blocklist.SnapshotStats `json:"snapshot"`
	Cache    blocklist.CacheStats    `json:"cache"`
	Store    *blocklist.StoreStats   `json:"store,omitempty"`
}

func NewService(opts Options) *Service {
	s := &Service{
		db:      opts.Database,
		cache:   opts.Cache,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		clock:   opts.Clock,
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	return s
}

// Check canonicalises name and decides it against the published set.
func (s *Service) Check(name string) domain.BlockDecision {
	host := utils.CanonicalDNSName(name)
	snap := s.db.Snapshot()
	if host == "" || snap.IsEmpty() {
		s.metrics.ObserveLookup(false)
		return domain.BlockDecision{Generation: snap.Generation()}
	}

	gen := snap.Generation()
	if s.cache != nil {
		if d, ok := s.cache.Get(gen, host); ok {
			s.metrics.ObserveCache(true)
			s.metrics.ObserveLookup(d.Blocked)
			return d
		}
		s.metrics.ObserveCache(false)
	}

	d := snap.Decide(host)
	if s.cache != nil {
		s.cache.Put(gen, host, d)
	}
	s.metrics.ObserveLookup(d.Blocked)
	if d.Blocked {
		s.logger.Debug(map[string]any{"host": host, "rule": d.MatchedRule, "depth": d.Depth}, "host_blocked")
	}
	return d
}

// Rebuild rebuilds the database and, when it succeeds, drops cached
// decisions and persists the new set if its membership changed.
func (s *Service) Rebuild(ctx context.Context, req domain.RebuildRequest) (domain.RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Rebuild(ctx, req)
	s.metrics.ObserveRebuild(res, err, s.clock.Now())
	if err != nil {
		return res, err
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	s.persist(s.db.Snapshot())
	return res, nil
}

// persist saves snap unless the store already holds the same membership.
// A failed save is logged; the published set stays authoritative.
func (s *Service) persist(snap *blocklist.Snapshot) {
	if s.store == nil {
		return
	}
	if s.saved && snap.Digest() == s.savedDigest {
		s.logger.Debug(map[string]any{"generation": snap.Generation(), "digest": snap.Digest()}, "persist_unchanged")
		return
	}
	meta := blocklist.SnapshotMeta{
		Generation:        snap.Generation(),
		UpdatedUnix:       s.clock.Now().Unix(),
		Digest:            snap.Digest(),
		ExtendedFiltering: snap.ExtendedFiltering(),
	}
	if err := s.store.Save(meta, snap.All()); err != nil {
		s.logger.Warn(map[string]any{"generation": meta.Generation, "error": err}, "persist_failed")
		return
	}
	s.saved, s.savedDigest = true, meta.Digest
	s.logger.Info(map[string]any{"generation": meta.Generation, "hosts": snap.Len()}, "persist_done")
}

// Restore publishes the persisted set, if there is one. It reports whether
// anything was restored.
func (s *Service) Restore() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var hosts []string
	meta, ok, err := s.store.Load(func(h string) { hosts = append(hosts, h) })
	if err != nil || !ok {
		return false, err
	}
	snap := s.db.Restore(slices.Values(hosts), meta.ExtendedFiltering, time.Unix(meta.UpdatedUnix, 0))
	if s.cache != nil {
		s.cache.Purge()
	}
	s.saved, s.savedDigest = true, snap.Digest()
	s.metrics.SetHosts(snap.Len())
	return true, nil
}

// Stats reports snapshot, cache and store counters.
func (s *Service) Stats() Stats {
	st := Stats{Snapshot: s.db.Snapshot().Stats()}
	if s.cache != nil {
		st.Cache = s.cache.Stats()
	}
	if s.store != nil {
		ss := s.store.Stats()
		st.Store = &ss
	}
	return st
}
