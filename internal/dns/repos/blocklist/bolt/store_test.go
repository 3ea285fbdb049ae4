package bolt

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

func openTemp(t *testing.T) (blocklist.SnapshotStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostblock.db")
	st, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func loadAll(t *testing.T, st blocklist.SnapshotStore) ([]string, blocklist.SnapshotMeta, bool) {
	t.Helper()
	var hosts []string
	meta, ok, err := st.Load(func(h string) { hosts = append(hosts, h) })
	require.NoError(t, err)
	return hosts, meta, ok
}

func TestBoltStore_EmptyLoad(t *testing.T) {
	st, _ := openTemp(t)
	hosts, _, ok := loadAll(t, st)
	assert.False(t, ok)
	assert.Empty(t, hosts)
	assert.Equal(t, blocklist.StoreStats{}, st.Stats())
}

func TestBoltStore_SaveLoadRoundTrip(t *testing.T) {
	st, _ := openTemp(t)
	meta := blocklist.SnapshotMeta{Generation: 7, UpdatedUnix: 1723551000, Digest: 0xdeadbeef, ExtendedFiltering: true}
	in := []string{"b.example.com", "a.example.com", "ads.tracker.co.uk"}

	require.NoError(t, st.Save(meta, slices.Values(in)))

	hosts, got, ok := loadAll(t, st)
	require.True(t, ok)
	assert.Equal(t, meta, got)
	assert.ElementsMatch(t, in, hosts)

	stats := st.Stats()
	assert.Equal(t, uint64(7), stats.Generation)
	assert.Equal(t, uint64(3), stats.Hosts)
	assert.Equal(t, uint64(0xdeadbeef), stats.Digest)
	assert.Equal(t, int64(1723551000), stats.UpdatedUnix)
}

func TestBoltStore_SaveReplacesPreviousSet(t *testing.T) {
	st, _ := openTemp(t)
	require.NoError(t, st.Save(blocklist.SnapshotMeta{Generation: 1}, slices.Values([]string{"old.example.com", "keep.example.com"})))
	require.NoError(t, st.Save(blocklist.SnapshotMeta{Generation: 2}, slices.Values([]string{"keep.example.com", "new.example.com"})))

	hosts, meta, ok := loadAll(t, st)
	require.True(t, ok)
	assert.Equal(t, uint64(2), meta.Generation)
	assert.False(t, meta.ExtendedFiltering)
	assert.ElementsMatch(t, []string{"keep.example.com", "new.example.com"}, hosts)
}

func TestBoltStore_SaveEmptySetIsStillASave(t *testing.T) {
	st, _ := openTemp(t)
	require.NoError(t, st.Save(blocklist.SnapshotMeta{Generation: 3}, slices.Values([]string(nil))))
	hosts, meta, ok := loadAll(t, st)
	assert.True(t, ok)
	assert.Empty(t, hosts)
	assert.Equal(t, uint64(3), meta.Generation)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostblock.db")
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(blocklist.SnapshotMeta{Generation: 4}, slices.Values([]string{"a.example.com"})))
	require.NoError(t, st.Close())

	st, err = New(path)
	require.NoError(t, err)
	defer st.Close()
	hosts, meta, ok := loadAll(t, st)
	require.True(t, ok)
	assert.Equal(t, uint64(4), meta.Generation)
	assert.Equal(t, []string{"a.example.com"}, hosts)
}

func TestBoltStore_SaveRejectsEmptyKey(t *testing.T) {
	st, _ := openTemp(t)
	require.NoError(t, st.Save(blocklist.SnapshotMeta{Generation: 1}, slices.Values([]string{"a.example.com"})))

	err := st.Save(blocklist.SnapshotMeta{Generation: 2}, slices.Values([]string{""}))
	require.Error(t, err)

	hosts, meta, _ := loadAll(t, st)
	assert.Equal(t, uint64(1), meta.Generation, "failed save must roll back")
	assert.Equal(t, []string{"a.example.com"}, hosts)
}

func TestNew_OpenError(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "hostblock.db"))
	assert.Error(t, err)
}

type fakeBucketCreator struct{ fail []byte }

func (f fakeBucketCreator) CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error) {
	if string(name) == string(f.fail) {
		return nil, errors.New("boom")
	}
	return nil, nil
}

func TestEnsureBuckets_Error(t *testing.T) {
	assert.NoError(t, ensureBuckets(fakeBucketCreator{}, bucketHosts, bucketMeta))
	err := ensureBuckets(fakeBucketCreator{fail: bucketMeta}, bucketHosts, bucketMeta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta")
}

type bucketDeleterFunc func(name []byte) error

func (f bucketDeleterFunc) DeleteBucket(name []byte) error { return f(name) }

func TestDeleteBuckets(t *testing.T) {
	notFound := bucketDeleterFunc(func([]byte) error { return bberrors.ErrBucketNotFound })
	assert.NoError(t, deleteBuckets(notFound, bucketHosts))

	failing := bucketDeleterFunc(func([]byte) error { return errors.New("disk full") })
	assert.Error(t, deleteBuckets(failing, bucketHosts))
}
