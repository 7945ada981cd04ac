package convolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

func oceanMask(t *testing.T, nlat, nlon int) *grid.Mask {
	t.Helper()
	mask, err := grid.NewMask(nlat, nlon, make([]bool, nlat*nlon))
	require.NoError(t, err)
	return mask
}

func TestNewValidation(t *testing.T) {
	mask := oceanMask(t, 4, 8)

	_, err := New(nil, mask, 1)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(domain.DefaultWindows(), nil, 1)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New([]domain.Window{{Height: 2, Width: 2}}, mask, 1)
	require.ErrorAs(t, err, &cfgErr)
}

func TestApplyShapeInvariant(t *testing.T) {
	mask := oceanMask(t, grid.NLat, grid.NLon)
	c, err := New(domain.DefaultWindows(), mask, 2)
	require.NoError(t, err)

	out, err := c.Apply(grid.NewTensor4[int32](2, domain.SeasonCount, grid.NLat, grid.NLon))
	require.NoError(t, err)

	assert.Equal(t, domain.WindowCount, out.Windows())
	assert.Equal(t, 2, out.Years())
	assert.Equal(t, domain.SeasonCount, out.Seasons())
	assert.Equal(t, grid.NLat, out.NLat())
	assert.Equal(t, grid.NLon, out.NLon())
}

func TestApplyMaskShapeMismatch(t *testing.T) {
	mask := oceanMask(t, 4, 8)
	c, err := New(domain.DefaultWindows(), mask, 1)
	require.NoError(t, err)

	_, err = c.Apply(grid.NewTensor4[int32](1, domain.SeasonCount, 4, 9))
	var shapeErr *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}

func TestIdentityWindow(t *testing.T) {
	// Window 0 (1×1) leaves ocean cells untouched.
	mask := oceanMask(t, 6, 10)
	c, err := New([]domain.Window{{Height: 1, Width: 1}}, mask, 1)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](1, 1, 6, 10)
	for i := 0; i < 6; i++ {
		for j := 0; j < 10; j++ {
			in.Set(0, 0, i, j, int32(i*10+j))
		}
	}

	out, err := c.Apply(in)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in.Field(0, 0).Cells(), out.Field(0, 0, 0).Cells()))
}

func TestLandMaskZeroesOutput(t *testing.T) {
	land := make([]bool, 6*10)
	land[2*10+3] = true
	land[5*10+9] = true
	mask, err := grid.NewMask(6, 10, land)
	require.NoError(t, err)

	c, err := New([]domain.Window{{Height: 1, Width: 1}, {Height: 3, Width: 3}}, mask, 1)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](1, 1, 6, 10)
	for i := range in.Cells() {
		in.Cells()[i] = 7
	}

	out, err := c.Apply(in)
	require.NoError(t, err)

	for w := 0; w < 2; w++ {
		assert.Equal(t, int32(0), out.At(w, 0, 0, 2, 3), "window %d", w)
		assert.Equal(t, int32(0), out.At(w, 0, 0, 5, 9), "window %d", w)
		// Ocean neighbors keep their sums even when the window covers land.
		assert.NotZero(t, out.At(w, 0, 0, 2, 4), "window %d", w)
	}
}

func TestBoxSumMatchesNaive(t *testing.T) {
	// The separable sliding-window implementation must agree with a direct
	// circular convolution cell by cell.
	const nlat, nlon = 9, 13
	mask := oceanMask(t, nlat, nlon)
	windows := []domain.Window{{Height: 3, Width: 3}, {Height: 5, Width: 7}}
	c, err := New(windows, mask, 1)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](1, 1, nlat, nlon)
	for i := range in.Cells() {
		in.Cells()[i] = int32((i*31 + 7) % 11)
	}

	out, err := c.Apply(in)
	require.NoError(t, err)

	for w, win := range windows {
		for i := 0; i < nlat; i++ {
			for j := 0; j < nlon; j++ {
				var want int32
				for di := -win.Height / 2; di <= win.Height/2; di++ {
					for dj := -win.Width / 2; dj <= win.Width/2; dj++ {
						want += in.At(0, 0, mod(i+di, nlat), mod(j+dj, nlon))
					}
				}
				assert.Equal(t, want, out.At(w, 0, 0, i, j), "window %d cell (%d, %d)", w, i, j)
			}
		}
	}
}

func TestLongitudeWrap(t *testing.T) {
	// A report at longitude index 0 contributes to smoothed cells on the
	// far side of the 0°/360° seam.
	mask := oceanMask(t, 5, 12)
	c, err := New([]domain.Window{{Height: 3, Width: 3}}, mask, 1)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](1, 1, 5, 12)
	in.Set(0, 0, 2, 0, 1)

	out, err := c.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, int32(1), out.At(0, 0, 0, 2, 11))
	assert.Equal(t, int32(1), out.At(0, 0, 0, 2, 1))
}

func TestRectangularWidestWindow(t *testing.T) {
	// The 13×27 window must stay rectangular: a lone report spreads 6 rows
	// vertically and 13 columns horizontally.
	mask := oceanMask(t, grid.NLat, grid.NLon)
	windows := domain.DefaultWindows()
	c, err := New(windows, mask, 2)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](1, 1, grid.NLat, grid.NLon)
	in.Set(0, 0, 90, 180, 1)

	out, err := c.Apply(in)
	require.NoError(t, err)

	const w = 6 // widest window index
	assert.Equal(t, int32(1), out.At(w, 0, 0, 90+6, 180))
	assert.Equal(t, int32(0), out.At(w, 0, 0, 90+7, 180))
	assert.Equal(t, int32(1), out.At(w, 0, 0, 90, 180+13))
	assert.Equal(t, int32(0), out.At(w, 0, 0, 90, 180+14))
}

func TestApplyDeterministic(t *testing.T) {
	mask := oceanMask(t, 10, 20)
	c, err := New(domain.DefaultWindows(), mask, 4)
	require.NoError(t, err)

	in := grid.NewTensor4[int32](2, domain.SeasonCount, 10, 20)
	for i := range in.Cells() {
		in.Cells()[i] = int32(i % 23)
	}

	a, err := c.Apply(in)
	require.NoError(t, err)
	b, err := c.Apply(in)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(a.Cells(), b.Cells()))
}
