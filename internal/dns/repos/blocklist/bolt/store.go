package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

var (
	bucketHosts = []byte("hosts")
	bucketMeta  = []byte("meta")

	keyGeneration = []byte("generation")
	keyUpdated    = []byte("updated")
	keyDigest     = []byte("digest")
	keyExtended   = []byte("extended")
	keyCount      = []byte("count")

	present = []byte{1}
)

// boltStore implements blocklist.SnapshotStore using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// bucketCreator is the slice of *bbolt.Tx used by ensureBuckets.
type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

// bucketDeleter is the slice of *bbolt.Tx used by deleteBuckets.
type bucketDeleter interface {
	DeleteBucket(name []byte) error
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (blocklist.SnapshotStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		return ensureBuckets(tx, bucketHosts, bucketMeta)
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func ensureBuckets(tx bucketCreator, names ...[]byte) error {
	for _, name := range names {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %q: %w", name, err)
		}
	}
	return nil
}

// deleteBuckets removes names, ignoring buckets that do not exist.
func deleteBuckets(tx bucketDeleter, names ...[]byte) error {
	for _, name := range names {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return fmt.Errorf("delete bucket %q: %w", name, err)
		}
	}
	return nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// Save replaces the stored set in a single transaction, so a crash leaves
// either the previous set or the new one.
func (s *boltStore) Save(meta blocklist.SnapshotMeta, hosts iter.Seq[string]) error {
	// Sorted keys let bbolt fill pages completely.
	keys := slices.Sorted(hosts)
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteBuckets(tx, bucketHosts, bucketMeta); err != nil {
			return err
		}
		if err := ensureBuckets(tx, bucketHosts, bucketMeta); err != nil {
			return err
		}
		hb := tx.Bucket(bucketHosts)
		hb.FillPercent = 1.0
		for _, h := range keys {
			if err := hb.Put([]byte(h), present); err != nil {
				return fmt.Errorf("put %q: %w", h, err)
			}
		}
		return putMeta(tx.Bucket(bucketMeta), meta, uint64(len(keys)))
	})
}

// Load streams the stored hosts to visit. ok is false for a store that has
// never been saved to.
func (s *boltStore) Load(visit func(host string)) (blocklist.SnapshotMeta, bool, error) {
	var (
		meta blocklist.SnapshotMeta
		ok   bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		if mb == nil || mb.Get(keyGeneration) == nil {
			return nil
		}
		meta = readMeta(mb)
		ok = true
		hb := tx.Bucket(bucketHosts)
		if hb == nil {
			return nil
		}
		return hb.ForEach(func(k, _ []byte) error {
			visit(string(k))
			return nil
		})
	})
	if err != nil {
		return blocklist.SnapshotMeta{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return meta, ok, nil
}

func (s *boltStore) Stats() blocklist.StoreStats {
	st := blocklist.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		if mb == nil {
			return nil
		}
		meta := readMeta(mb)
		st.Generation = meta.Generation
		st.UpdatedUnix = meta.UpdatedUnix
		st.Digest = meta.Digest
		st.Hosts = getUint64(mb, keyCount)
		return nil
	})
	return st
}

func putMeta(b *bbolt.Bucket, meta blocklist.SnapshotMeta, count uint64) error {
	ext := uint64(0)
	if meta.ExtendedFiltering {
		ext = 1
	}
	for _, kv := range []struct {
		k []byte
		v uint64
	}{
		{keyGeneration, meta.Generation},
		{keyUpdated, uint64(meta.UpdatedUnix)},
		{keyDigest, meta.Digest},
		{keyExtended, ext},
		{keyCount, count},
	} {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, kv.v)
		if err := b.Put(kv.k, buf); err != nil {
			return fmt.Errorf("put meta %q: %w", kv.k, err)
		}
	}
	return nil
}

func readMeta(b *bbolt.Bucket) blocklist.SnapshotMeta {
	return blocklist.SnapshotMeta{
		Generation:        getUint64(b, keyGeneration),
		UpdatedUnix:       int64(getUint64(b, keyUpdated)),
		Digest:            getUint64(b, keyDigest),
		ExtendedFiltering: getUint64(b, keyExtended) == 1,
	}
}

// getUint64 decodes a big-endian value; missing or malformed values read as 0.
func getUint64(b *bbolt.Bucket, k []byte) uint64 {
	if v := b.Get(k); len(v) == 8 {
		return binary.BigEndian.Uint64(v)
	}
	return 0
}
