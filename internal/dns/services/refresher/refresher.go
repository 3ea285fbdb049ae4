package refresher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
)

const (
	DefaultInitialBackoff = 30 * time.Second
	DefaultMaxBackoff     = 30 * time.Minute
	DefaultDebounce       = 2 * time.Second
)

// Rebuilder runs one rebuild. *filter.Service implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context, req domain.RebuildRequest) (domain.RebuildResult, error)
}

// Config controls when rebuilds happen.
type Config struct {
	// Interval between scheduled rebuilds; <= 0 disables the schedule.
	Interval       time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Debounce collapses bursts of file events into one rebuild.
	Debounce time.Duration
	// WatchPaths are local list files whose changes trigger a rebuild.
	WatchPaths []string
}

// Refresher keeps the decision set current. It rebuilds once at start, then
// on the schedule, on Trigger and on changes to watched files. A trigger or
// file change that arrives mid-rebuild cancels that rebuild and starts over
// with the latest request.
type Refresher struct {
	cfg       Config
	rebuilder Rebuilder
	request   func() domain.RebuildRequest
	logger    log.Logger
	trigger   chan struct{}
}

// New creates a Refresher. request is called before every rebuild so that
// configuration changes are picked up.
func New(cfg Config, rebuilder Rebuilder, request func() domain.RebuildRequest, logger log.Logger) *Refresher {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Refresher{
		cfg:       cfg,
		rebuilder: rebuilder,
		request:   request,
		logger:    logger,
		trigger:   make(chan struct{}, 1),
	}
}

// Trigger asks for a rebuild as soon as possible. It never blocks; triggers
// that arrive before the previous one is picked up are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

type outcome struct {
	res domain.RebuildResult
	err error
}

// Run drives rebuilds until ctx is done and returns ctx.Err().
func (r *Refresher) Run(ctx context.Context) error {
	events, watchErrs, closeWatch, err := r.watch()
	if err != nil {
		return err
	}
	defer closeWatch()

	var tickC <-chan time.Time
	if r.cfg.Interval > 0 {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	var (
		cancelRun context.CancelFunc
		done      chan outcome
		pending   bool
		failures  int
		retry     = stoppedTimer()
		debounce  = stoppedTimer()
		retryC    <-chan time.Time
		debounceC <-chan time.Time
	)
	defer retry.Stop()
	defer debounce.Stop()

	start := func(reason string) {
		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		done = make(chan outcome, 1)
		req := r.request()
		r.logger.Debug(map[string]any{"reason": reason, "items": len(req.Items)}, "refresh_start")
		go func(ch chan<- outcome) {
			res, err := r.rebuilder.Rebuild(runCtx, req)
			ch <- outcome{res: res, err: err}
		}(done)
	}
	// restart cancels an in-flight rebuild and queues a fresh one, or starts
	// one right away when idle.
	restart := func(reason string) {
		if done != nil {
			r.logger.Debug(map[string]any{"reason": reason}, "refresh_superseded")
			pending = true
			cancelRun()
			return
		}
		retry.Stop()
		retryC = nil
		start(reason)
	}

	start("startup")
	for {
		select {
		case <-ctx.Done():
			if done != nil {
				cancelRun()
				<-done
			}
			r.logger.Info(map[string]any{"cause": ctx.Err().Error()}, "refresher_stopped")
			return ctx.Err()

		case out := <-done:
			cancelRun()
			done, cancelRun = nil, nil
			switch {
			case out.err == nil:
				if failures > 0 {
					r.logger.Info(map[string]any{"failures": failures}, "refresh_recovered")
				}
				failures = 0
			case errors.Is(out.err, domain.ErrRebuildAborted):
				// superseded or shutting down, nothing to back off from
			default:
				failures++
				backoff := calcBackoff(r.cfg.InitialBackoff, r.cfg.MaxBackoff, failures)
				r.logger.Warn(map[string]any{"attempt": failures, "backoff": backoff.String(), "error": out.err}, "refresh_failed")
				retry.Reset(backoff)
				retryC = retry.C
			}
			if pending {
				pending = false
				retry.Stop()
				retryC = nil
				start("trigger")
			}

		case <-tickC:
			if done == nil && retryC == nil {
				start("schedule")
			}

		case <-retryC:
			retryC = nil
			if done == nil {
				start("retry")
			}

		case <-r.trigger:
			restart("trigger")

		case ev := <-events:
			if !r.watched(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
				continue
			}
			r.logger.Debug(map[string]any{"file": ev.Name, "op": ev.Op.String()}, "watch_event")
			debounce.Reset(r.cfg.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			restart("file_change")

		case err := <-watchErrs:
			r.logger.Warn(map[string]any{"error": err}, "watch_error")
		}
	}
}

// watch subscribes to the directories holding the watched files. Watching
// the directory keeps working when an editor or downloader replaces the
// file by rename.
func (r *Refresher) watch() (<-chan fsnotify.Event, <-chan error, func(), error) {
	if len(r.cfg.WatchPaths) == 0 {
		return nil, nil, func() {}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create file watcher: %w", err)
	}
	dirs := map[string]struct{}{}
	for _, p := range r.cfg.WatchPaths {
		dirs[filepath.Dir(filepath.Clean(p))] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			r.logger.Warn(map[string]any{"dir": dir, "error": err}, "watch_add_failed")
			continue
		}
		r.logger.Debug(map[string]any{"dir": dir}, "watch_added")
	}
	return w.Events, w.Errors, func() { _ = w.Close() }, nil
}

func (r *Refresher) watched(name string) bool {
	name = filepath.Clean(name)
	for _, p := range r.cfg.WatchPaths {
		if filepath.Clean(p) == name {
			return true
		}
	}
	return false
}

// calcBackoff doubles initial per consecutive failure up to max and adds
// ±20% jitter.
func calcBackoff(initial, max time.Duration, failures int) time.Duration {
	pow := math.Pow(2, float64(failures-1))
	backoff := time.Duration(float64(initial) * pow)
	if backoff > max || backoff <= 0 {
		backoff = max
	}
	const jitterFrac = 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))
	return backoff + jitter
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}
