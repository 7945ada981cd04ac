// Package estimate turns paired (total, qualifying) count tensors into
// per-cell fraction and standard-error tensors. The statistical formula is
// a pluggable strategy so the tensor plumbing is not married to one
// estimator.
package estimate

import (
	"math"

	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// Estimator maps a (qualifying, total) count pair to a fraction estimate
// and its standard error. Implementations must be pure: no shared mutable
// state across calls, so Apply can run cell-by-cell in any order.
//
// Required boundary behavior: f = 0 and sigma = 0 when n = 0; sigma is
// never negative and shrinks as n grows for a fixed interior f.
type Estimator interface {
	Estimate(m, n int32) (f, sigma float32)
}

// Binomial is the closed-form binomial-proportion estimator:
// f = m/n, sigma = sqrt(f(1-f)/n).
type Binomial struct{}

// Estimate implements Estimator.
func (Binomial) Estimate(m, n int32) (float32, float32) {
	if n == 0 {
		return 0, 0
	}
	f := float64(m) / float64(n)
	return float32(f), float32(math.Sqrt(f * (1 - f) / float64(n)))
}

// Apply runs the estimator over every cell of the paired count tensors,
// producing fraction and sigma tensors of the same five-dimensional shape.
// Results match a cell-by-cell application of est by construction.
func Apply(est Estimator, qualifying, total *grid.Tensor5[int32]) (*grid.Tensor5[float32], *grid.Tensor5[float32], error) {
	if err := grid.CheckSameShape5("fraction estimation counts", total, qualifying); err != nil {
		return nil, nil, err
	}

	f := grid.NewTensor5[float32](total.Windows(), total.Years(), total.Seasons(), total.NLat(), total.NLon())
	s := grid.NewTensor5[float32](total.Windows(), total.Years(), total.Seasons(), total.NLat(), total.NLon())

	mc := qualifying.Cells()
	nc := total.Cells()
	fc := f.Cells()
	sc := s.Cells()
	for i := range nc {
		fc[i], sc[i] = est.Estimate(mc[i], nc[i])
	}

	return f, s, nil
}
