package blocklist

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haukened/rr-hostblock/internal/dns/common/clock"
	logpkg "github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/parsers"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/publicsuffix"
)

// Options configures a Database. Only Resolver is required.
type Options struct {
	Resolver SourceResolver
	// Suffixes drives host expansion; nil uses the built-in table.
	Suffixes *publicsuffix.Table
	// MaxClimb bounds ancestor lookups; <= 0 uses DefaultMaxClimb.
	MaxClimb int
	// Bloom, when set, puts a negative prefilter in front of every snapshot.
	Bloom       BloomFactory
	BloomFPRate float64
	Logger      logpkg.Logger
	Clock       clock.Clock
}

// Database owns the published decision set.
//
// Readers (IsBlocked, IsEmpty, Decide) do a single atomic load of the current
// snapshot and never lock. Writers (Rebuild, Restore) are serialised by mu,
// build a new set off to the side and publish it with one atomic store, so a
// reader sees either the old set or the complete new one.
type Database struct {
	current atomic.Pointer[Snapshot]

	mu         sync.Mutex
	generation uint64

	resolver SourceResolver
	expander Expander
	maxClimb int
	bloom    BloomFactory
	fpRate   float64
	logger   logpkg.Logger
	clock    clock.Clock
}

// NewDatabase constructs a Database with an empty published set.
func NewDatabase(opts Options) *Database {
	d := &Database{
		resolver: opts.Resolver,
		expander: NewExpander(opts.Suffixes),
		maxClimb: opts.MaxClimb,
		bloom:    opts.Bloom,
		fpRate:   opts.BloomFPRate,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	if d.maxClimb <= 0 {
		d.maxClimb = DefaultMaxClimb
	}
	if d.logger == nil {
		d.logger = logpkg.NewNoopLogger()
	}
	if d.clock == nil {
		d.clock = clock.RealClock{}
	}
	d.current.Store(emptySnapshot(d.maxClimb))
	return d
}

// IsBlocked reports whether host is blocked by the published set.
// host is expected in canonical form (lowercase, no trailing dot).
func (d *Database) IsBlocked(host string) bool {
	return d.current.Load().IsBlocked(host)
}

// Decide is IsBlocked with match details.
func (d *Database) Decide(host string) domain.BlockDecision {
	return d.current.Load().Decide(host)
}

// IsEmpty reports whether the published set has no members.
func (d *Database) IsEmpty() bool {
	return d.current.Load().IsEmpty()
}

// Len returns the size of the published set.
func (d *Database) Len() int {
	return d.current.Load().Len()
}

// Snapshot returns the published set. It stays valid and unchanged even
// after a later rebuild replaces it.
func (d *Database) Snapshot() *Snapshot {
	return d.current.Load()
}

// Rebuild replaces the published set with one built from req.
//
// Items are processed in order; IGNORE items are skipped, missing sources
// are skipped, and read failures keep whatever the item contributed before
// failing. ctx is checked before every item and every line: once it is
// done, Rebuild returns an error wrapping domain.ErrRebuildAborted and
// ctx.Err(), and the previously published set stays in place.
func (d *Database) Rebuild(ctx context.Context, req domain.RebuildRequest) (domain.RebuildResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	started := d.clock.Now()
	b := newBuilder(d.current.Load().Len(), req.ExtendedFiltering, d.expander)
	reports := make([]domain.ItemReport, 0, len(req.Items))

	d.logger.Info(map[string]any{
		"items":              len(req.Items),
		"hosts_enabled":      req.HostsEnabled,
		"extended_filtering": req.ExtendedFiltering,
	}, "rebuild_start")

	if !req.HostsEnabled {
		d.logger.Debug(nil, "rebuild_hosts_disabled")
	} else {
		for _, item := range req.Items {
			if err := ctx.Err(); err != nil {
				return d.abort(item, err)
			}
			report := d.loadItem(ctx, b, item)
			if err := ctx.Err(); err != nil {
				return d.abort(item, err)
			}
			reports = append(reports, report)
		}
	}

	d.generation++
	now := d.clock.Now()
	s := b.freeze(d.generation, d.maxClimb, now, d.bloom, d.fpRate)
	d.current.Store(s)

	res := domain.RebuildResult{
		Generation: s.generation,
		Hosts:      s.Len(),
		Items:      reports,
		Duration:   now.Sub(started),
		Digest:     s.digest,
	}
	d.logger.Info(map[string]any{
		"generation": res.Generation,
		"hosts":      res.Hosts,
		"failed":     res.Failed(),
		"duration":   res.Duration.String(),
	}, "rebuild_done")
	return res, nil
}

func (d *Database) abort(item domain.Item, cause error) (domain.RebuildResult, error) {
	d.logger.Info(map[string]any{"item": item.Name(), "cause": cause.Error()}, "rebuild_aborted")
	return domain.RebuildResult{}, fmt.Errorf("%w: %w", domain.ErrRebuildAborted, cause)
}

// loadItem feeds one item into b. Failures are reported, never fatal.
func (d *Database) loadItem(ctx context.Context, b *builder, item domain.Item) domain.ItemReport {
	report := domain.ItemReport{Item: item}
	if item.State == domain.ItemIgnore {
		report.Skipped = true
		return report
	}

	src, err := d.resolver.Resolve(ctx, item)
	switch {
	case errors.Is(err, ErrSourceNotFound):
		d.logger.Debug(map[string]any{"item": item.Name(), "location": item.Location}, "item_not_found")
		report.Skipped = true
		return report
	case err != nil:
		if ctx.Err() == nil {
			d.logger.Warn(map[string]any{"item": item.Name(), "location": item.Location, "error": err}, "item_open_failed")
		}
		report.Err = err
		return report
	}

	if src.Stream == nil {
		b.addHost(item.State, src.Literal)
		report.Accepted = 1
		return report
	}

	defer func() {
		if err := src.Stream.Close(); err != nil {
			d.logger.Debug(map[string]any{"item": item.Name(), "error": err}, "item_close_failed")
		}
	}()

	n, err := parsers.ScanLines(ctx, src.Stream, item.Location, d.logger, func(host string) {
		b.addHost(item.State, host)
	})
	report.Accepted = n
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Warn(map[string]any{"item": item.Name(), "location": item.Location, "after": n, "error": err}, "item_read_failed")
		}
		report.Err = err
		return report
	}
	d.logger.Debug(map[string]any{"item": item.Name(), "state": item.State.String(), "count": n}, "item_loaded")
	return report
}

// Restore publishes a set loaded from persistent storage, typically before
// the first rebuild after start-up. Hosts are taken as already expanded.
func (d *Database) Restore(hosts iter.Seq[string], extended bool, builtAt time.Time) *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := newBuilder(0, extended, d.expander)
	for h := range hosts {
		b.addHostSingle(domain.ItemDeny, h)
	}
	d.generation++
	s := b.freeze(d.generation, d.maxClimb, builtAt, d.bloom, d.fpRate)
	d.current.Store(s)
	d.logger.Info(map[string]any{"generation": s.generation, "hosts": s.Len()}, "snapshot_restored")
	return s
}
