package grid

import (
	"fmt"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

// Tensor4 is a dense (year, slice, lat, lon) array. The slice axis holds 12
// months for monthly counts and 5 seasons after aggregation.
type Tensor4[T Cell] struct {
	years, slices, nlat, nlon int
	cells                     []T
}

// NewTensor4 allocates a zeroed tensor.
func NewTensor4[T Cell](years, slices, nlat, nlon int) *Tensor4[T] {
	return &Tensor4[T]{
		years:  years,
		slices: slices,
		nlat:   nlat,
		nlon:   nlon,
		cells:  make([]T, years*slices*nlat*nlon),
	}
}

// Years returns the year-axis extent.
func (t *Tensor4[T]) Years() int { return t.years }

// Slices returns the month/season-axis extent.
func (t *Tensor4[T]) Slices() int { return t.slices }

// NLat returns the latitude extent.
func (t *Tensor4[T]) NLat() int { return t.nlat }

// NLon returns the longitude extent.
func (t *Tensor4[T]) NLon() int { return t.nlon }

// Shape formats the extents for error reporting.
func (t *Tensor4[T]) Shape() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", t.years, t.slices, t.nlat, t.nlon)
}

// Field returns a copy-free view of the (year y, slice s) grid.
func (t *Tensor4[T]) Field(y, s int) Field[T] {
	base := (y*t.slices + s) * t.nlat * t.nlon
	return Field[T]{nlat: t.nlat, nlon: t.nlon, cells: t.cells[base : base+t.nlat*t.nlon]}
}

// At returns the cell at (year, slice, lat, lon).
func (t *Tensor4[T]) At(y, s, i, j int) T {
	return t.cells[((y*t.slices+s)*t.nlat+i)*t.nlon+j]
}

// Set stores v at (year, slice, lat, lon).
func (t *Tensor4[T]) Set(y, s, i, j int, v T) {
	t.cells[((y*t.slices+s)*t.nlat+i)*t.nlon+j] = v
}

// Fill sets every cell to v.
func (t *Tensor4[T]) Fill(v T) {
	for i := range t.cells {
		t.cells[i] = v
	}
}

// Cells exposes the backing slice in (year, slice, lat, lon) order.
func (t *Tensor4[T]) Cells() []T { return t.cells }

// Tensor5 is a dense (window, year, season, lat, lon) array, the unit of
// exchange between convolution, estimation, and composite selection.
type Tensor5[T Cell] struct {
	windows, years, seasons, nlat, nlon int
	cells                               []T
}

// NewTensor5 allocates a zeroed tensor.
func NewTensor5[T Cell](windows, years, seasons, nlat, nlon int) *Tensor5[T] {
	return &Tensor5[T]{
		windows: windows,
		years:   years,
		seasons: seasons,
		nlat:    nlat,
		nlon:    nlon,
		cells:   make([]T, windows*years*seasons*nlat*nlon),
	}
}

// Windows returns the window-axis extent.
func (t *Tensor5[T]) Windows() int { return t.windows }

// Years returns the year-axis extent.
func (t *Tensor5[T]) Years() int { return t.years }

// Seasons returns the season-axis extent.
func (t *Tensor5[T]) Seasons() int { return t.seasons }

// NLat returns the latitude extent.
func (t *Tensor5[T]) NLat() int { return t.nlat }

// NLon returns the longitude extent.
func (t *Tensor5[T]) NLon() int { return t.nlon }

// Shape formats the extents for error reporting.
func (t *Tensor5[T]) Shape() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d)", t.windows, t.years, t.seasons, t.nlat, t.nlon)
}

// Field returns a copy-free view of the (window w, year y, season s) grid.
func (t *Tensor5[T]) Field(w, y, s int) Field[T] {
	base := ((w*t.years+y)*t.seasons + s) * t.nlat * t.nlon
	return Field[T]{nlat: t.nlat, nlon: t.nlon, cells: t.cells[base : base+t.nlat*t.nlon]}
}

// At returns the cell at (window, year, season, lat, lon).
func (t *Tensor5[T]) At(w, y, s, i, j int) T {
	return t.cells[(((w*t.years+y)*t.seasons+s)*t.nlat+i)*t.nlon+j]
}

// Set stores v at (window, year, season, lat, lon).
func (t *Tensor5[T]) Set(w, y, s, i, j int, v T) {
	t.cells[(((w*t.years+y)*t.seasons+s)*t.nlat+i)*t.nlon+j] = v
}

// Cells exposes the backing slice in (window, year, season, lat, lon) order.
func (t *Tensor5[T]) Cells() []T { return t.cells }

// CheckSameShape5 verifies that two five-dimensional tensors share all
// extents.
func CheckSameShape5[A, B Cell](context string, a *Tensor5[A], b *Tensor5[B]) error {
	if a.windows != b.windows || a.years != b.years || a.seasons != b.seasons ||
		a.nlat != b.nlat || a.nlon != b.nlon {
		return &domain.ShapeMismatchError{Context: context, Want: a.Shape(), Got: b.Shape()}
	}
	return nil
}

// CheckMaskShape verifies that a mask matches a tensor's spatial extents.
func CheckMaskShape[T Cell](context string, t *Tensor4[T], m *Mask) error {
	if t.nlat != m.nlat || t.nlon != m.nlon {
		return &domain.ShapeMismatchError{
			Context: context,
			Want:    fmt.Sprintf("(%d, %d)", t.nlat, t.nlon),
			Got:     fmt.Sprintf("(%d, %d)", m.nlat, m.nlon),
		}
	}
	return nil
}
