package occupancy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

func TestTable_AddAndSnapshot(t *testing.T) {
	tbl := New(2, 4)
	tbl.Add(network.TripID(0), 1, 3)
	tbl.Add(network.TripID(0), 1, 2)
	tbl.Add(network.TripID(1), 0, 10)

	snap := tbl.Snapshot()
	assert.Equal(t, 5, snap.Load(network.TripID(0), 1))
	assert.Equal(t, 10, snap.Load(network.TripID(1), 0))
	assert.Equal(t, 0, snap.Load(network.TripID(0), 0))
}

func TestTable_ConcurrentAdd(t *testing.T) {
	tbl := New(1, 2)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.Add(network.TripID(0), 0, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, tbl.Snapshot().Load(network.TripID(0), 0))
}

func TestTable_Reset(t *testing.T) {
	tbl := New(1, 2)
	tbl.Add(network.TripID(0), 0, 5)
	tbl.Reset()
	assert.Equal(t, 0, tbl.Snapshot().Load(network.TripID(0), 0))
}

func TestTable_SnapshotIsIndependentOfFurtherWrites(t *testing.T) {
	tbl := New(1, 2)
	tbl.Add(network.TripID(0), 0, 1)
	snap := tbl.Snapshot()
	tbl.Add(network.TripID(0), 0, 99)
	assert.Equal(t, 1, snap.Load(network.TripID(0), 0))
}

func TestEmptySnapshotReadsZero(t *testing.T) {
	snap := Empty()
	assert.Equal(t, 0, snap.Load(network.TripID(5), 3))
}

func TestSnapshot_FingerprintStableAcrossEqualCounts(t *testing.T) {
	tbl := New(2, 4)
	tbl.Add(network.TripID(0), 1, 5)
	tbl.Add(network.TripID(1), 0, 3)

	a := tbl.Snapshot().Fingerprint()
	b := tbl.Snapshot().Fingerprint()
	assert.Equal(t, a, b)
}

func TestSnapshot_FingerprintChangesWithLoad(t *testing.T) {
	tbl := New(2, 4)
	tbl.Add(network.TripID(0), 1, 5)
	before := tbl.Snapshot().Fingerprint()

	tbl.Add(network.TripID(0), 1, 1)
	after := tbl.Snapshot().Fingerprint()

	assert.NotEqual(t, before, after)
}
