// Package grid provides dense fields and tensors over the fixed global
// 1°×1° latitude/longitude grid. Backing storage is a single flat slice per
// tensor; Field values are copy-free views into the innermost two
// dimensions, so stages can hand slices around without duplicating the
// multi-megabyte arrays.
package grid

import (
	"fmt"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

// Default global grid extents: 1° cells, latitude index 0 at -90°,
// longitude index 0 at 0°.
const (
	NLat = 180
	NLon = 360
)

// Cell constrains the element types stored in fields and tensors: int32 for
// counts, float32 for fraction/sigma estimates, int8 for window indices.
type Cell interface {
	~int32 | ~float32 | ~int8
}

// Field is a 2-D (lat, lon) view over row-major cells. The zero value is
// unusable; obtain fields from NewField or a tensor view.
type Field[T Cell] struct {
	nlat, nlon int
	cells      []T
}

// NewField allocates a zeroed nlat×nlon field.
func NewField[T Cell](nlat, nlon int) Field[T] {
	return Field[T]{nlat: nlat, nlon: nlon, cells: make([]T, nlat*nlon)}
}

// FieldOf wraps an existing row-major slice as a field. The slice length
// must equal nlat*nlon.
func FieldOf[T Cell](nlat, nlon int, cells []T) (Field[T], error) {
	if len(cells) != nlat*nlon {
		return Field[T]{}, &domain.ShapeMismatchError{
			Context: "field backing slice",
			Want:    fmt.Sprintf("%d cells", nlat*nlon),
			Got:     fmt.Sprintf("%d cells", len(cells)),
		}
	}
	return Field[T]{nlat: nlat, nlon: nlon, cells: cells}, nil
}

// NLat returns the latitude extent.
func (f Field[T]) NLat() int { return f.nlat }

// NLon returns the longitude extent.
func (f Field[T]) NLon() int { return f.nlon }

// At returns the cell at (lat index i, lon index j).
func (f Field[T]) At(i, j int) T {
	return f.cells[i*f.nlon+j]
}

// Set stores v at (i, j).
func (f Field[T]) Set(i, j int, v T) {
	f.cells[i*f.nlon+j] = v
}

// Add increments the cell at (i, j) by v.
func (f Field[T]) Add(i, j int, v T) {
	f.cells[i*f.nlon+j] += v
}

// Row returns the j-major slice backing latitude row i.
func (f Field[T]) Row(i int) []T {
	return f.cells[i*f.nlon : (i+1)*f.nlon]
}

// Cells exposes the whole backing slice in row-major order.
func (f Field[T]) Cells() []T { return f.cells }

// SameShape reports whether two fields share extents.
func SameShape[A, B Cell](a Field[A], b Field[B]) bool {
	return a.nlat == b.nlat && a.nlon == b.nlon
}

// Mask is a boolean land/sea grid. True means land. Loaded once at process
// start and never mutated afterwards.
type Mask struct {
	nlat, nlon int
	land       []bool
}

// NewMask builds a mask from a row-major land slice.
func NewMask(nlat, nlon int, land []bool) (*Mask, error) {
	if len(land) != nlat*nlon {
		return nil, &domain.ShapeMismatchError{
			Context: "land mask",
			Want:    fmt.Sprintf("%d cells", nlat*nlon),
			Got:     fmt.Sprintf("%d cells", len(land)),
		}
	}
	return &Mask{nlat: nlat, nlon: nlon, land: land}, nil
}

// NLat returns the latitude extent.
func (m *Mask) NLat() int { return m.nlat }

// NLon returns the longitude extent.
func (m *Mask) NLon() int { return m.nlon }

// Land reports whether cell (i, j) is land.
func (m *Mask) Land(i, j int) bool {
	return m.land[i*m.nlon+j]
}

// LandCells returns the number of land cells.
func (m *Mask) LandCells() int {
	n := 0
	for _, l := range m.land {
		if l {
			n++
		}
	}
	return n
}
