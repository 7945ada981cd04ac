// Package binning folds observation records into per-(year, month) count
// grids. A Builder owns the mutable accumulation grids; Finalize hands them
// off as an immutable MonthlyCounts, after which the builder rejects
// further records.
package binning

import (
	"errors"
	"fmt"
	"sort"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// ErrFinalized is returned when records are added after Finalize.
var ErrFinalized = errors.New("binning: builder already finalized")

// Config controls binning. Edges are ascending bin boundaries: len(edges)-1
// cells, a coordinate belongs to the cell whose lower edge is the greatest
// edge not exceeding it. Coordinates outside [edges[0], edges[last]) fail
// with OutOfRangeError unless ClipOutOfRange is set, in which case they clip
// to the nearest cell.
type Config struct {
	LatEdges       []float64
	LonEdges       []float64
	YearStart      int
	YearEnd        int
	Categories     []domain.Category
	ClipOutOfRange bool
}

// DefaultLatEdges returns 1° latitude bin edges from -90 to 90.
func DefaultLatEdges() []float64 {
	edges := make([]float64, grid.NLat+1)
	for i := range edges {
		edges[i] = float64(i) - 90
	}
	return edges
}

// DefaultLonEdges returns 1° longitude bin edges from 0 to 360.
func DefaultLonEdges() []float64 {
	edges := make([]float64, grid.NLon+1)
	for i := range edges {
		edges[i] = float64(i)
	}
	return edges
}

// MonthlyCounts is the immutable result of one ingestion pass: a total
// report count tensor and one qualifying count tensor per category, all
// shaped (year, month=12, lat, lon).
type MonthlyCounts struct {
	YearStart  int
	Total      *grid.Tensor4[int32]
	Qualifying map[string]*grid.Tensor4[int32]
}

// Builder accumulates count grids. Not safe for concurrent use; the
// ingestion loop is the single owner until Finalize.
type Builder struct {
	cfg        Config
	total      *grid.Tensor4[int32]
	qualifying map[string]*grid.Tensor4[int32]

	observations int64
	dropped      int64
	clipped      int64
	finalized    bool
}

// NewBuilder validates the configuration and allocates zeroed grids.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := validateEdges("latitude", cfg.LatEdges); err != nil {
		return nil, err
	}
	if err := validateEdges("longitude", cfg.LonEdges); err != nil {
		return nil, err
	}
	if cfg.YearEnd < cfg.YearStart {
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("year range [%d, %d] is empty", cfg.YearStart, cfg.YearEnd),
		}
	}
	if len(cfg.Categories) == 0 {
		return nil, &domain.ConfigurationError{Reason: "no event categories configured"}
	}

	years := cfg.YearEnd - cfg.YearStart + 1
	nlat := len(cfg.LatEdges) - 1
	nlon := len(cfg.LonEdges) - 1

	qualifying := make(map[string]*grid.Tensor4[int32], len(cfg.Categories))
	for _, cat := range cfg.Categories {
		if cat.Name == "" || cat.Qualifies == nil {
			return nil, &domain.ConfigurationError{Reason: "category with empty name or nil predicate"}
		}
		if _, dup := qualifying[cat.Name]; dup {
			return nil, &domain.ConfigurationError{Reason: "duplicate category " + cat.Name}
		}
		qualifying[cat.Name] = grid.NewTensor4[int32](years, 12, nlat, nlon)
	}

	return &Builder{
		cfg:        cfg,
		total:      grid.NewTensor4[int32](years, 12, nlat, nlon),
		qualifying: qualifying,
	}, nil
}

func validateEdges(axis string, edges []float64) error {
	if len(edges) < 2 {
		return &domain.ConfigurationError{Reason: axis + " edges need at least one bin"}
	}
	if !sort.Float64sAreSorted(edges) {
		return &domain.ConfigurationError{Reason: axis + " edges are not ascending"}
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return &domain.ConfigurationError{Reason: axis + " edges contain a zero-width bin"}
		}
	}
	return nil
}

// Add bins one observation. Records outside the configured year range are
// counted as dropped and skipped; coordinates outside the edges follow the
// out-of-range policy. The record itself is never mutated.
func (b *Builder) Add(obs domain.Observation) error {
	if b.finalized {
		return ErrFinalized
	}
	if obs.Month < 1 || obs.Month > 12 {
		b.dropped++
		return nil
	}
	if obs.Year < b.cfg.YearStart || obs.Year > b.cfg.YearEnd {
		b.dropped++
		return nil
	}

	latBin, err := b.bin("latitude", b.cfg.LatEdges, obs.Lat)
	if err != nil {
		return err
	}
	lonBin, err := b.bin("longitude", b.cfg.LonEdges, obs.Lon)
	if err != nil {
		return err
	}

	y := obs.Year - b.cfg.YearStart
	m := obs.Month - 1
	b.total.Field(y, m).Add(latBin, lonBin, 1)
	for _, cat := range b.cfg.Categories {
		if cat.Matches(obs) {
			b.qualifying[cat.Name].Field(y, m).Add(latBin, lonBin, 1)
		}
	}
	b.observations++
	return nil
}

// AddBatch bins a batch, stopping at the first error.
func (b *Builder) AddBatch(batch []domain.Observation) error {
	for _, obs := range batch {
		if err := b.Add(obs); err != nil {
			return err
		}
	}
	return nil
}

// bin returns the index of the cell whose lower edge is the greatest edge
// not exceeding v. In clip mode out-of-range values clamp to the first or
// last cell; in fail mode they surface an OutOfRangeError.
func (b *Builder) bin(axis string, edges []float64, v float64) (int, error) {
	// SearchFloat64s returns the first index with edges[i] >= v.
	idx := sort.SearchFloat64s(edges, v)
	if idx < len(edges) && edges[idx] == v {
		idx++
	}
	idx-- // greatest edge <= v

	if idx < 0 || idx >= len(edges)-1 {
		if b.cfg.ClipOutOfRange {
			b.clipped++
			if idx < 0 {
				return 0, nil
			}
			return len(edges) - 2, nil
		}
		return 0, &domain.OutOfRangeError{Axis: axis, Value: v, Min: edges[0], Max: edges[len(edges)-1]}
	}
	return idx, nil
}

// Observations returns the number of records binned so far.
func (b *Builder) Observations() int64 { return b.observations }

// Dropped returns the number of records skipped for falling outside the
// year range or having an invalid month.
func (b *Builder) Dropped() int64 { return b.dropped }

// Clipped returns the number of out-of-range coordinates clamped to an edge
// cell. Always zero in fail mode.
func (b *Builder) Clipped() int64 { return b.clipped }

// Finalize hands off the accumulated grids. The builder rejects further
// records afterwards, making the returned counts effectively immutable.
func (b *Builder) Finalize() *MonthlyCounts {
	b.finalized = true
	return &MonthlyCounts{
		YearStart:  b.cfg.YearStart,
		Total:      b.total,
		Qualifying: b.qualifying,
	}
}
