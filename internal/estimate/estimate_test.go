package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

func TestBinomialBoundaries(t *testing.T) {
	est := Binomial{}

	t.Run("empty cell", func(t *testing.T) {
		f, sigma := est.Estimate(0, 0)
		assert.Equal(t, float32(0), f)
		assert.Equal(t, float32(0), sigma)
	})

	t.Run("all qualifying", func(t *testing.T) {
		f, sigma := est.Estimate(25, 25)
		assert.Equal(t, float32(1), f)
		assert.GreaterOrEqual(t, sigma, float32(0))
	})

	t.Run("none qualifying", func(t *testing.T) {
		f, sigma := est.Estimate(0, 40)
		assert.Equal(t, float32(0), f)
		assert.GreaterOrEqual(t, sigma, float32(0))
	})

	t.Run("half qualifying", func(t *testing.T) {
		f, sigma := est.Estimate(50, 100)
		assert.InDelta(t, 0.5, float64(f), 1e-6)
		assert.InDelta(t, math.Sqrt(0.25/100), float64(sigma), 1e-6)
	})
}

func TestBinomialSigmaShrinksWithN(t *testing.T) {
	// For a fixed interior fraction, more reports mean less uncertainty.
	est := Binomial{}
	_, s100 := est.Estimate(30, 100)
	_, s1000 := est.Estimate(300, 1000)
	_, s10000 := est.Estimate(3000, 10000)

	assert.Greater(t, s100, s1000)
	assert.Greater(t, s1000, s10000)
}

func TestApplyMatchesCellByCell(t *testing.T) {
	total := grid.NewTensor5[int32](2, 1, 2, 3, 4)
	qualifying := grid.NewTensor5[int32](2, 1, 2, 3, 4)
	for i := range total.Cells() {
		total.Cells()[i] = int32(i % 7)
		qualifying.Cells()[i] = int32(i%7) / 2
	}

	f, s, err := Apply(Binomial{}, qualifying, total)
	require.NoError(t, err)

	est := Binomial{}
	for i := range total.Cells() {
		wantF, wantS := est.Estimate(qualifying.Cells()[i], total.Cells()[i])
		assert.Equal(t, wantF, f.Cells()[i], "cell %d", i)
		assert.Equal(t, wantS, s.Cells()[i], "cell %d", i)
	}
}

func TestApplyShapeMismatch(t *testing.T) {
	total := grid.NewTensor5[int32](2, 1, 2, 3, 4)
	qualifying := grid.NewTensor5[int32](2, 1, 2, 3, 5)

	_, _, err := Apply(Binomial{}, qualifying, total)
	var shapeErr *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}
