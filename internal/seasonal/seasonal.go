// Package seasonal regroups monthly count grids into the five season slices
// per year: DJF, MAM, JJA, SON, and Annual. December of year Y contributes
// to DJF of year Y, so every month of a calendar year lands in that year's
// slices and the Annual slice is exactly the sum of the four seasons.
package seasonal

import (
	"fmt"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// Aggregate sums a (year, month=12, lat, lon) count tensor into a
// (year, season=5, lat, lon) tensor. Pure function: the input is not
// mutated and the output is freshly allocated.
func Aggregate(monthly *grid.Tensor4[int32]) (*grid.Tensor4[int32], error) {
	if monthly.Slices() != 12 {
		return nil, &domain.ShapeMismatchError{
			Context: "seasonal aggregation input",
			Want:    "12 months",
			Got:     fmt.Sprintf("%d slices", monthly.Slices()),
		}
	}

	out := grid.NewTensor4[int32](monthly.Years(), domain.SeasonCount, monthly.NLat(), monthly.NLon())

	for y := 0; y < monthly.Years(); y++ {
		for _, season := range domain.Seasons() {
			dst := out.Field(y, int(season)).Cells()
			for _, month := range season.Months() {
				src := monthly.Field(y, month-1).Cells()
				for i, v := range src {
					dst[i] += v
				}
			}
		}
	}

	return out, nil
}
