// Package convolve applies the multi-window spatial smoothing bank to
// seasonal count grids. Every kernel is all-ones, so each window reduces to
// a separable circular box sum: one sliding-window pass over longitude and
// one over latitude, with int64 running sums for exact integer results.
//
// The boundary condition is circular on both axes. Longitude wrap at
// 0°/360° is physically correct; latitude wrap is a degenerate edge case
// inherited from the wrap-boundary convolution and is not specially handled
// at the poles (the rows adjacent to the poles carry no ocean reports).
package convolve

import (
	"runtime"
	"sync"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// Convolver applies a fixed window schedule and land mask to count tensors.
// Safe for concurrent use once constructed; it holds no per-call state.
type Convolver struct {
	windows []domain.Window
	mask    *grid.Mask
	workers int
}

// New validates the window schedule and builds a convolver. workers bounds
// the number of slices smoothed concurrently; values < 1 fall back to
// runtime.NumCPU.
func New(windows []domain.Window, mask *grid.Mask, workers int) (*Convolver, error) {
	if err := domain.ValidateWindows(windows); err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, &domain.ConfigurationError{Reason: "land mask is required"}
	}
	return &Convolver{windows: windows, mask: mask, workers: workers}, nil
}

// Windows returns the schedule the convolver applies.
func (c *Convolver) Windows() []domain.Window {
	windows := make([]domain.Window, len(c.windows))
	copy(windows, c.windows)
	return windows
}

// Apply smooths a (year, season, lat, lon) count tensor at every window
// size, producing a (window, year, season, lat, lon) tensor. Land cells are
// forced to zero after each convolution. The input is never mutated.
func (c *Convolver) Apply(counts *grid.Tensor4[int32]) (*grid.Tensor5[int32], error) {
	if err := grid.CheckMaskShape("convolver input vs land mask", counts, c.mask); err != nil {
		return nil, err
	}

	out := grid.NewTensor5[int32](len(c.windows), counts.Years(), counts.Slices(), counts.NLat(), counts.NLon())

	type task struct{ w, y, s int }
	tasks := make(chan task)

	workers := c.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := make([]int64, counts.NLat()*counts.NLon())
			for t := range tasks {
				c.smoothSlice(counts.Field(t.y, t.s), out.Field(t.w, t.y, t.s), c.windows[t.w], scratch)
			}
		}()
	}

	for w := range c.windows {
		for y := 0; y < counts.Years(); y++ {
			for s := 0; s < counts.Slices(); s++ {
				tasks <- task{w: w, y: y, s: s}
			}
		}
	}
	close(tasks)
	wg.Wait()

	return out, nil
}

// smoothSlice computes one circular box sum and applies the land mask.
// scratch must hold nlat*nlon int64 cells; it carries the row-pass sums.
func (c *Convolver) smoothSlice(src, dst grid.Field[int32], win domain.Window, scratch []int64) {
	nlat, nlon := src.NLat(), src.NLon()

	// Longitude pass: scratch[i*nlon+j] = sum of src row i over the
	// circular window of width win.Width centered on j.
	halfW := win.Width / 2
	for i := 0; i < nlat; i++ {
		row := src.Row(i)
		out := scratch[i*nlon : (i+1)*nlon]
		circularRowSum(row, out, halfW)
	}

	// Latitude pass: dst[i][j] = sum of scratch column j over the circular
	// window of height win.Height centered on i, then mask.
	halfH := win.Height / 2
	colSum := make([]int64, nlon)
	for j := 0; j < nlon; j++ {
		s := int64(0)
		for i := -halfH; i <= halfH; i++ {
			s += scratch[mod(i, nlat)*nlon+j]
		}
		colSum[j] = s
	}
	for i := 0; i < nlat; i++ {
		for j := 0; j < nlon; j++ {
			v := colSum[j]
			if c.mask.Land(i, j) {
				v = 0
			}
			dst.Set(i, j, int32(v))
		}
		// Slide the column windows down one latitude row.
		if i+1 < nlat {
			enter := mod(i+1+halfH, nlat)
			leave := mod(i+1-halfH-1, nlat)
			for j := 0; j < nlon; j++ {
				colSum[j] += scratch[enter*nlon+j] - scratch[leave*nlon+j]
			}
		}
	}
}

// circularRowSum fills out[j] with the sum of src over the circular window
// [j-half, j+half].
func circularRowSum(src []int32, out []int64, half int) {
	n := len(src)
	s := int64(0)
	for k := -half; k <= half; k++ {
		s += int64(src[mod(k, n)])
	}
	for j := 0; j < n; j++ {
		out[j] = s
		enter := mod(j+1+half, n)
		leave := mod(j+1-half-1, n)
		s += int64(src[enter]) - int64(src[leave])
	}
}

// mod is the positive remainder of i modulo n.
func mod(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
