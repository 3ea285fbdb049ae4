package bloom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizer_Size(t *testing.T) {
	s := NewSizer()
	tests := []struct {
		name       string
		n          uint64
		p          float64
		minM, maxM uint64
		wantK      uint8
	}{
		{"single host", 1, 0.01, 10, 10, 7},
		{"million hosts at 1%", 1_000_000, 0.01, 9_500_000, 9_700_000, 7},
		{"coarse rate", 10_000, 0.5, 1, 20_000, 1},
		{"zero capacity counts as one", 0, 0.01, 10, 10, 7},
		{"zero rate falls back to default", 1, 0, 10, 10, 7},
		{"rate of one falls back to default", 1, 1, 10, 10, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, k := s.Size(tt.n, tt.p)
			assert.GreaterOrEqual(t, m, tt.minM)
			assert.LessOrEqual(t, m, tt.maxM)
			assert.Equal(t, tt.wantK, k)
		})
	}
}
