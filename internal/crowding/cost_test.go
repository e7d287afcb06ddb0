package crowding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var cap40 = Capacity{Seated: 30, Standing: 10}

func TestLinearMonotone(t *testing.T) {
	f := NewLinear()
	for x := 0; x < 100; x++ {
		assert.GreaterOrEqual(t, f.Cost(x+1, cap40), f.Cost(x, cap40))
	}
}

func TestQuadraticMonotone(t *testing.T) {
	f := NewQuadratic()
	for x := 0; x < 100; x++ {
		assert.GreaterOrEqual(t, f.Cost(x+1, cap40), f.Cost(x, cap40))
	}
}

func TestOneStep(t *testing.T) {
	f := NewOneStep(1.0, 6, 2.0)
	assert.Equal(t, 1.0, f.Cost(0, cap40))
	assert.Equal(t, 1.0, f.Cost(30, cap40))
	assert.Greater(t, f.Cost(35, cap40), 1.0)
	for x := 0; x < 100; x++ {
		assert.GreaterOrEqual(t, f.Cost(x+1, cap40), f.Cost(x, cap40))
	}
}

func TestOneStepClampsExponent(t *testing.T) {
	f := NewOneStep(1.0, 2, 2.0) // requested a=2 < 5
	assert.Equal(t, 5.0, f.A)
}

func TestTwoStep(t *testing.T) {
	f := NewTwoStep(1.0, 1.5, 6, 1.0, 0.1)
	assert.Equal(t, 1.0, f.Cost(10, cap40))
	assert.InDelta(t, 1.25, f.Cost(35, cap40), 1e-9) // halfway through standing band
	assert.Equal(t, 1.5, f.Cost(40, cap40))
	assert.Greater(t, f.Cost(45, cap40), 1.5)
	for x := 0; x < 200; x++ {
		assert.GreaterOrEqual(t, f.Cost(x+1, cap40), f.Cost(x, cap40))
	}
}

func TestSample(t *testing.T) {
	f := NewLinear()
	points := Sample(f, cap40, 5)
	assert.Len(t, points, 6)
	assert.Equal(t, 0, points[0].Load)
	assert.Equal(t, 5, points[5].Load)
}

func TestZeroCapacityClamped(t *testing.T) {
	f := NewLinear()
	assert.NotPanics(t, func() { f.Cost(5, Capacity{}) })
}
