// Package composite selects, per grid cell, the smallest smoothing window
// whose estimate is acceptably certain.
//
// The scan replays every (threshold, window) candidate pass in a fixed
// total order — thresholds outer, descending; windows inner, widest (6) to
// narrowest (0) — and each pass unconditionally overwrites eligible cells.
// The final value is therefore the LAST applicable assignment, i.e. the
// narrowest window eligible during the smallest threshold pass. This is not
// a first-match selection; reordering the loops or exiting early silently
// changes the output.
package composite

import (
	"math"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// lowSignalCutoff admits cells whose fraction plus uncertainty is too small
// to ever pass a relative-error test (including f == 0 cells, whose
// relative error is NaN or Inf).
const lowSignalCutoff = 0.01

// Unresolved marks cells that no (threshold, window) pass ever claimed.
const Unresolved = int8(-1)

// Result holds one variable's composite grids, aligned cell-for-cell:
// fraction estimate, standard error, and selected window index. Unclaimed
// cells keep NaN fraction/sigma and Unresolved window index.
type Result struct {
	F *grid.Tensor4[float32]
	S *grid.Tensor4[float32]
	R *grid.Tensor4[int8]
}

// Select scans the threshold ladder over the multi-window fraction and
// sigma tensors and assembles the composite grids.
//
// Eligibility per cell and window: sigma/f < threshold, or f+sigma below
// the low-signal cutoff. The division may produce NaN (0/0) or +Inf
// (sigma/0); IEEE comparison makes both fail the relative-error test, so
// such cells are only ever claimed through the low-signal fallback.
func Select(f, s *grid.Tensor5[float32], thresholds []float64) (*Result, error) {
	if err := domain.ValidateThresholds(thresholds); err != nil {
		return nil, err
	}
	if err := grid.CheckSameShape5("composite fraction vs sigma", f, s); err != nil {
		return nil, err
	}

	years, seasons := f.Years(), f.Seasons()
	nlat, nlon := f.NLat(), f.NLon()

	res := &Result{
		F: grid.NewTensor4[float32](years, seasons, nlat, nlon),
		S: grid.NewTensor4[float32](years, seasons, nlat, nlon),
		R: grid.NewTensor4[int8](years, seasons, nlat, nlon),
	}
	res.F.Fill(float32(math.NaN()))
	res.S.Fill(float32(math.NaN()))
	res.R.Fill(Unresolved)

	fOut := res.F.Cells()
	sOut := res.S.Cells()
	rOut := res.R.Cells()

	cellsPerWindow := years * seasons * nlat * nlon
	fAll := f.Cells()
	sAll := s.Cells()

	for _, threshold := range thresholds {
		th := float32(threshold)
		for w := f.Windows() - 1; w >= 0; w-- {
			fw := fAll[w*cellsPerWindow : (w+1)*cellsPerWindow]
			sw := sAll[w*cellsPerWindow : (w+1)*cellsPerWindow]
			wi := int8(w)
			for i, fv := range fw {
				sv := sw[i]
				// NaN and Inf relative errors compare false here.
				if sv/fv < th || fv+sv < lowSignalCutoff {
					fOut[i] = fv
					sOut[i] = sv
					rOut[i] = wi
				}
			}
		}
	}

	return res, nil
}

// WindowCounts tallies how many cells ended on each window index, with the
// count of unresolved cells last. Useful for run metrics and validation.
func (r *Result) WindowCounts(windows int) (perWindow []int64, unresolved int64) {
	perWindow = make([]int64, windows)
	for _, w := range r.R.Cells() {
		if w == Unresolved {
			unresolved++
			continue
		}
		perWindow[w]++
	}
	return perWindow, unresolved
}
