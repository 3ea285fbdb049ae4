package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

func item(loc string) domain.Item {
	return domain.Item{Title: "t", Location: loc, State: domain.ItemDeny}
}

func readAll(t *testing.T, src blocklist.Source) string {
	t.Helper()
	require.NotNil(t, src.Stream)
	defer src.Stream.Close()
	b, err := io.ReadAll(src.Stream)
	require.NoError(t, err)
	return string(b)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		loc  string
		kind Kind
		path string
	}{
		{"https://example.com/hosts", KindHTTP, "https://example.com/hosts"},
		{"HTTP://example.com/hosts", KindHTTP, "HTTP://example.com/hosts"},
		{"file:///etc/hosts", KindFile, "/etc/hosts"},
		{"/var/lib/lists/ads.txt", KindFile, "/var/lib/lists/ads.txt"},
		{"lists/ads.txt", KindFile, "lists/ads.txt"},
		{`C:\lists\ads.txt`, KindFile, `C:\lists\ads.txt`},
		{"ads.example.com", KindLiteral, "ads.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			kind, path := Classify(tt.loc)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestResolve_Literal(t *testing.T) {
	r := NewResolver(Options{})
	tests := map[string]string{
		"Ads.Example.COM.":      "ads.example.com",
		"  evil  ":              "evil",
		"bücher.example":        "xn--bcher-kva.example",
		"xn--bcher-kva.example": "xn--bcher-kva.example",
	}
	for in, want := range tests {
		src, err := r.Resolve(context.Background(), item(in))
		require.NoError(t, err, in)
		assert.Nil(t, src.Stream)
		assert.Equal(t, want, src.Literal, in)
	}
}

func TestResolve_InvalidLiteralAndEmpty(t *testing.T) {
	r := NewResolver(Options{})
	_, err := r.Resolve(context.Background(), item("bad host.example"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, blocklist.ErrSourceNotFound)

	_, err = r.Resolve(context.Background(), item("   "))
	assert.Error(t, err)
}

func TestResolve_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ads.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.0.0.0 ads.example.com\n"), 0o600))
	r := NewResolver(Options{})

	src, err := r.Resolve(context.Background(), item(path))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0 ads.example.com\n", readAll(t, src))

	src, err = r.Resolve(context.Background(), item("file://"+path))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0 ads.example.com\n", readAll(t, src))

	_, err = r.Resolve(context.Background(), item(filepath.Join(dir, "missing.txt")))
	assert.ErrorIs(t, err, blocklist.ErrSourceNotFound)
}

func TestResolve_FileOpenError(t *testing.T) {
	r := NewResolver(Options{Open: func(string) (io.ReadCloser, error) { return nil, errors.New("permission denied") }})
	_, err := r.Resolve(context.Background(), item("/lists/ads.txt"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blocklist.ErrSourceNotFound)
}

func TestResolve_HTTP(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotUA.Store(req.Header.Get("User-Agent"))
		switch req.URL.Path {
		case "/hosts":
			_, _ = io.WriteString(w, "||ads.example.com^\n")
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := NewResolver(Options{Client: srv.Client(), UserAgent: "hostblock-test/1.0"})

	src, err := r.Resolve(context.Background(), item(srv.URL+"/hosts"))
	require.NoError(t, err)
	assert.Equal(t, "||ads.example.com^\n", readAll(t, src))
	assert.Equal(t, "hostblock-test/1.0", gotUA.Load())

	_, err = r.Resolve(context.Background(), item(srv.URL+"/missing"))
	assert.ErrorIs(t, err, blocklist.ErrSourceNotFound)
	_, err = r.Resolve(context.Background(), item(srv.URL+"/gone"))
	assert.ErrorIs(t, err, blocklist.ErrSourceNotFound)

	_, err = r.Resolve(context.Background(), item(srv.URL+"/broken"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blocklist.ErrSourceNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestResolve_HTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-release:
		case <-req.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewResolver(Options{Client: srv.Client(), Timeout: 50 * time.Millisecond})
	_, err := r.Resolve(context.Background(), item(srv.URL+"/slow"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "a.example.com\n")
	}))
	defer srv.Close()

	// one token, refilled once a minute
	r := NewResolver(Options{Client: srv.Client(), Rate: 1.0 / 60, Burst: 1})
	src, err := r.Resolve(context.Background(), item(srv.URL))
	require.NoError(t, err)
	_ = readAll(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Resolve(ctx, item(srv.URL))
	assert.Error(t, err, "second fetch must wait for the limiter and give up with the context")
}

func TestResolve_HTTPCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewResolver(Options{Client: srv.Client()}).Resolve(ctx, item(srv.URL))
	assert.ErrorIs(t, err, context.Canceled)
}
