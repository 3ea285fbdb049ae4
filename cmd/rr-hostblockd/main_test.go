package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/config"
)

func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	orig := log.GetLogger()
	t.Cleanup(func() { log.SetLogger(orig) })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	lists := filepath.Join(dir, "ads.txt")
	require.NoError(t, os.WriteFile(lists, []byte("# ads\n0.0.0.0 tracking.badserver.com\n||x.y.z.tracker.com^\n"), 0o600))
	allow := filepath.Join(dir, "allow.txt")
	require.NoError(t, os.WriteFile(allow, []byte("z.tracker.com\n"), 0o600))

	cfg := fmt.Sprintf(`
env: dev
log:
  level: error
hosts:
  items:
    - title: ads
      location: %s
      state: deny
    - title: literal
      location: evil.example.org
      state: deny
    - title: exceptions
      location: %s
      state: allow
    - title: missing
      location: %s
      state: deny
%s`, lists, allow, filepath.Join(dir, "missing.txt"), extra)
	path := filepath.Join(dir, "hostblock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("127.0.0.1 localhost\n0.0.0.0 Ads.Example.com # x\n||track.example.net^\n"), 0o600))

	out, err := execute(t, context.Background(), "", "parse", path)
	require.NoError(t, err)
	assert.Equal(t, "ads.example.com\ntrack.example.net\n", out)

	out, err = execute(t, context.Background(), "www.example.org\n", "parse", "-")
	require.NoError(t, err)
	assert.Equal(t, "www.example.org\n", out)

	_, err = execute(t, context.Background(), "", "parse", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  path: "+filepath.Join(dir, "never.db")+"\n")

	out, err := execute(t, context.Background(), "", "--config", path, "check",
		"server3389.de.beacon.tracking.badserver.com",
		"othersite.com",
		"a.evil.example.org",
		"x.y.z.tracker.com",
		"other.z.tracker.com",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "0 failed items")
	assert.Regexp(t, `^server3389\S+\s+blocked\s+tracking\.badserver\.com$`, lines[1])
	assert.Regexp(t, `^othersite\.com\s+allowed`, lines[2])
	assert.Regexp(t, `^a\.evil\.example\.org\s+blocked\s+evil\.example\.org$`, lines[3])
	assert.Regexp(t, `^x\.y\.z\.tracker\.com\s+blocked`, lines[4])
	assert.Regexp(t, `^other\.z\.tracker\.com\s+allowed`, lines[5], "the allow list removed the derived form")

	_, err = os.Stat(filepath.Join(dir, "never.db"))
	assert.True(t, os.IsNotExist(err), "check must not touch the snapshot store")
}

func TestCheckCommand_SuffixTable(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	out, err := execute(t, context.Background(), "", "--config", path, "check", "w.y.z.tracker.com")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^w\.y\.z\.tracker\.com\s+allowed`, out, "built-in table derives z.tracker.com, which the allow list removes")

	suffixes := filepath.Join(dir, "suffixes.dat")
	require.NoError(t, os.WriteFile(suffixes, []byte("tracker.com\n"), 0o600))
	t.Setenv("HOSTBLOCK_HOSTS_SUFFIX_TABLE", suffixes)

	out, err = execute(t, context.Background(), "", "--config", path, "check", "w.y.z.tracker.com")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^w\.y\.z\.tracker\.com\s+blocked\s+y\.z\.tracker\.com$`, out)
}

func TestCheckCommand_Errors(t *testing.T) {
	_, err := execute(t, context.Background(), "", "check")
	assert.Error(t, err, "at least one host is required")

	_, err = execute(t, context.Background(), "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "check", "a.example.com")
	assert.ErrorContains(t, err, "configuration error")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServe_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dir := t.TempDir()
	addr := freeAddr(t)
	storePath := filepath.Join(dir, "state", "snapshot.db")
	path := writeConfig(t, dir, fmt.Sprintf("store:\n  path: %s\nadmin:\n  addr: %s\n", storePath, addr))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "", "--config", path)
		errc <- err
	}()

	var blocked bool
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/v1/check/a.tracking.badserver.com")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body struct {
			Blocked bool `json:"blocked"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		blocked = body.Blocked
		return blocked
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, blocked)

	resp, err := http.Post("http://"+addr+"/v1/rebuild", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	var metricsBody bytes.Buffer
	_, _ = metricsBody.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, metricsBody.String(), "hostblock_rebuilds_total")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, err = os.Stat(storePath)
	assert.NoError(t, err, "serve persists the snapshot")
}

func TestBuildApplication_RestoresPersistedSet(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(writeConfig(t, dir, "store:\n  path: "+filepath.Join(dir, "snapshot.db")+"\nadmin:\n  addr: \"\"\n"))
	require.NoError(t, err)

	app, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	_, err = app.RebuildOnce(context.Background())
	require.NoError(t, err)
	app.Close()

	// start again with every source gone; the persisted set must still answer
	cfg.Hosts.Items = nil
	cfg.Hosts.RefreshInterval = 0
	app, err = buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	defer app.Close()
	ok, err := app.service.Restore()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, app.service.Check("tracking.badserver.com").Blocked)
}
