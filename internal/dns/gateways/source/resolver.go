package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/time/rate"

	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

const (
	errEmptyLocation  = "item %q has no location"
	errInvalidLiteral = "item %q: invalid hostname %q: %w"
	errBuildRequest   = "build request for %s: %w"
	errFetch          = "fetch %s: %w"
	errFetchStatus    = "fetch %s: unexpected status %s"
	errOpenFile       = "open %s: %w"

	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "rr-hostblock"
)

// Kind classifies an item location.
type Kind int

const (
	KindLiteral Kind = iota
	KindHTTP
	KindFile
)

// Classify reports how location will be resolved and, for files, the path.
func Classify(location string) (Kind, string) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindHTTP, location
	case strings.HasPrefix(lower, "file://"):
		return KindFile, location[len("file://"):]
	case strings.ContainsAny(location, `/\`):
		return KindFile, location
	default:
		return KindLiteral, location
	}
}

// Options configures a Resolver. The zero value is usable.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Rate limits outgoing HTTP fetches per second; <= 0 means unlimited.
	Rate  float64
	Burst int
	// options to inject for testing purposes
	Client *http.Client
	Open   func(path string) (io.ReadCloser, error)
}

// Resolver implements blocklist.SourceResolver for remote lists, local
// files and literal hostnames.
type Resolver struct {
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	client    *http.Client
	open      func(path string) (io.ReadCloser, error)
}

// NewResolver creates a Resolver, filling unset options with defaults.
func NewResolver(opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Open == nil {
		opts.Open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Resolver{
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, opts.Burst),
		client:    opts.Client,
		open:      opts.Open,
	}
}

// Resolve opens the item's location.
func (r *Resolver) Resolve(ctx context.Context, item domain.Item) (blocklist.Source, error) {
	loc := strings.TrimSpace(item.Location)
	if loc == "" {
		return blocklist.Source{}, fmt.Errorf(errEmptyLocation, item.Name())
	}
	kind, path := Classify(loc)
	switch kind {
	case KindHTTP:
		return r.fetch(ctx, loc)
	case KindFile:
		return r.openFile(path)
	default:
		host, err := literalHost(loc)
		if err != nil {
			return blocklist.Source{}, fmt.Errorf(errInvalidLiteral, item.Name(), loc, err)
		}
		return blocklist.Source{Literal: host}, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, url string) (blocklist.Source, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return blocklist.Source{}, fmt.Errorf(errFetch, url, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return blocklist.Source{}, fmt.Errorf(errBuildRequest, url, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		cancel()
		return blocklist.Source{}, fmt.Errorf(errFetch, url, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		drain(resp.Body)
		cancel()
		return blocklist.Source{}, fmt.Errorf(errFetch, url, blocklist.ErrSourceNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		drain(resp.Body)
		cancel()
		return blocklist.Source{}, fmt.Errorf(errFetchStatus, url, resp.Status)
	}
	return blocklist.Source{Stream: &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}}, nil
}

func (r *Resolver) openFile(path string) (blocklist.Source, error) {
	f, err := r.open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return blocklist.Source{}, fmt.Errorf(errOpenFile, path, blocklist.ErrSourceNotFound)
	}
	if err != nil {
		return blocklist.Source{}, fmt.Errorf(errOpenFile, path, err)
	}
	return blocklist.Source{Stream: f}, nil
}

// literalHost converts a single configured hostname, including IDNs, to the
// canonical ASCII form the database stores.
func literalHost(loc string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(utils.CanonicalDNSName(loc))
	if err != nil {
		return "", err
	}
	if ascii == "" {
		return "", errors.New("empty hostname")
	}
	return ascii, nil
}

// cancelOnClose releases the request context once the body is done with.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

var _ blocklist.SourceResolver = (*Resolver)(nil)
