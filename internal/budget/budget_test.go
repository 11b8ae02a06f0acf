package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardCharge(t *testing.T) {
	tests := []struct {
		name         string
		ceiling      int64
		alreadySpent int64
		cost         int64
		wantGranted  bool
		wantRemain   int64
	}{
		{"within ceiling", 100, 0, 40, true, 60},
		{"exact ceiling", 100, 0, 100, true, 0},
		{"over ceiling", 100, 0, 101, false, 100},
		{"resumed spend counts", 100, 90, 20, false, 10},
		{"resumed spend leaves room", 100, 90, 10, true, 0},
		{"zero cost always granted", 100, 100, 0, true, 0},
		{"negative cost treated as zero", 100, 50, -5, true, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.ceiling, tt.alreadySpent)
			granted, remaining := g.Charge(tt.cost)
			assert.Equal(t, tt.wantGranted, granted)
			assert.Equal(t, tt.wantRemain, remaining)
		})
	}
}

func TestGuardRefusedChargeHasNoEffect(t *testing.T) {
	g := NewGuard(50, 0)

	granted, _ := g.Charge(60)
	assert.False(t, granted)
	assert.Equal(t, int64(0), g.Spent())

	granted, _ = g.Charge(50)
	assert.True(t, granted)
	assert.Equal(t, int64(50), g.Spent())
}

func TestGuardConcurrentChargesNeverOvershoot(t *testing.T) {
	const (
		ceiling = 1000
		cost    = 7
		workers = 50
		rounds  = 20
	)

	g := NewGuard(ceiling, 0)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				g.Charge(cost)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, g.Spent(), int64(ceiling))
	assert.Zero(t, g.Spent()%cost)
}
