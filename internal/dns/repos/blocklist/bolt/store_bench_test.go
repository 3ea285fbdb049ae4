package bolt

import (
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
)

func BenchmarkBoltStore_Save(b *testing.B) {
	hosts := make([]string, 50_000)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("h%05d.tracker.example.com", i)
	}
	st, err := New(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer st.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := st.Save(blocklist.SnapshotMeta{Generation: uint64(i + 1)}, slices.Values(hosts)); err != nil {
			b.Fatal(err)
		}
	}
}
