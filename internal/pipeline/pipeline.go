// Package pipeline orchestrates the aggregation run: ingest and bin
// observations, regroup months into seasons, smooth at every window size,
// estimate precipitating fractions, select composites, and persist results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oceanclim/icoads-precip-etl/internal/binning"
	"github.com/oceanclim/icoads-precip-etl/internal/composite"
	"github.com/oceanclim/icoads-precip-etl/internal/convolve"
	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/estimate"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
	"github.com/oceanclim/icoads-precip-etl/internal/observability"
	"github.com/oceanclim/icoads-precip-etl/internal/seasonal"
)

// Source yields observation batches. ReadBatch returns at most max records;
// io.EOF signals a drained source (file readers), and a nil error with an
// empty batch means "nothing right now" (streaming readers).
type Source interface {
	ReadBatch(ctx context.Context, max int) ([]domain.Observation, error)
}

// ResultStore persists composite grids and run metadata.
type ResultStore interface {
	SaveComposite(ctx context.Context, variable string, yearStart int, res *composite.Result) error
	SaveRun(ctx context.Context, info domain.RunInfo) error
}

// Pipeline runs the full aggregation once. Construct with New, then Run.
type Pipeline struct {
	source     Source
	builder    *binning.Builder
	convolver  *convolve.Convolver
	estimator  estimate.Estimator
	store      ResultStore
	thresholds []float64

	logger  *slog.Logger
	metrics *observability.Metrics

	batchSize int
	ready     atomic.Bool
	stage     atomic.Value // string
}

// New assembles a pipeline from its stages.
func New(source Source, builder *binning.Builder, convolver *convolve.Convolver,
	estimator estimate.Estimator, store ResultStore, thresholds []float64,
	logger *slog.Logger, metrics *observability.Metrics, batchSize int) (*Pipeline, error) {

	if err := domain.ValidateThresholds(thresholds); err != nil {
		return nil, err
	}
	p := &Pipeline{
		source:     source,
		builder:    builder,
		convolver:  convolver,
		estimator:  estimator,
		store:      store,
		thresholds: thresholds,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
	p.stage.Store("idle")
	return p, nil
}

// CheckReadiness returns nil once the run has binned at least one
// observation.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not binned any observations yet")
	}
	return nil
}

// Stage names the currently executing pipeline stage.
func (p *Pipeline) Stage() string {
	return p.stage.Load().(string)
}

// Run executes one complete aggregation pass. It is deterministic: the same
// input observations produce identical outputs, so there is no retry logic
// — any failure is fatal and surfaces to the caller.
func (p *Pipeline) Run(ctx context.Context) error {
	started := domain.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer p.stage.Store("idle")

	if err := p.ingest(ctx); err != nil {
		return err
	}

	counts := p.builder.Finalize()
	info := domain.RunInfo{
		YearStart:    counts.YearStart,
		YearEnd:      counts.YearStart + counts.Total.Years() - 1,
		Observations: p.builder.Observations(),
		Dropped:      p.builder.Dropped(),
		StartedAt:    started,
	}
	p.logger.Info("ingestion complete",
		"observations", info.Observations,
		"dropped", info.Dropped,
		"clipped", p.builder.Clipped(),
	)

	// Seasonal regrouping and smoothing of the shared total counts happen
	// once; each variable reuses them.
	p.stage.Store("seasonal")
	seasonStart := time.Now()
	seasonalTotal, err := seasonal.Aggregate(counts.Total)
	if err != nil {
		return fmt.Errorf("aggregate total counts: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("seasonal").Observe(time.Since(seasonStart).Seconds())

	p.stage.Store("convolve")
	convStart := time.Now()
	totalTensor, err := p.convolver.Apply(seasonalTotal)
	if err != nil {
		return fmt.Errorf("convolve total counts: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("convolve").Observe(time.Since(convStart).Seconds())

	// Map iteration order is random; process variables in a stable order so
	// runs are reproducible end to end.
	names := make([]string, 0, len(counts.Qualifying))
	for name := range counts.Qualifying {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.processVariable(ctx, name, counts.YearStart, counts.Qualifying[name], totalTensor); err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		info.Variables = append(info.Variables, name)
	}

	p.stage.Store("store")
	info.FinishedAt = domain.Now()
	if err := p.store.SaveRun(ctx, info); err != nil {
		return fmt.Errorf("save run info: %w", err)
	}

	p.logger.Info("pipeline complete",
		"variables", len(info.Variables),
		"elapsed", info.FinishedAt.Sub(info.StartedAt),
	)
	return nil
}

// ingest drains the source into the binning builder.
func (p *Pipeline) ingest(ctx context.Context) error {
	p.stage.Store("bin")
	p.logger.Info("ingestion started", "batch_size", p.batchSize)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := p.source.ReadBatch(ctx, p.batchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read observations: %w", err)
		}
		if len(batch) == 0 {
			continue
		}

		p.metrics.ObservationsConsumed.Add(float64(len(batch)))
		p.metrics.BatchSize.Observe(float64(len(batch)))

		droppedBefore := p.builder.Dropped()
		if err := p.builder.AddBatch(batch); err != nil {
			return fmt.Errorf("bin observations: %w", err)
		}
		p.metrics.ObservationsDropped.Add(float64(p.builder.Dropped() - droppedBefore))
		p.ready.Store(true)
	}

	p.metrics.StageDuration.WithLabelValues("bin").Observe(time.Since(start).Seconds())
	return nil
}

// processVariable runs the per-variable tail of the pipeline: seasonal
// regrouping, smoothing, estimation, composite selection, persistence.
func (p *Pipeline) processVariable(ctx context.Context, name string, yearStart int,
	qualifying *grid.Tensor4[int32], totalTensor *grid.Tensor5[int32]) error {

	p.stage.Store("seasonal")
	seasonStart := time.Now()
	seasonalQual, err := seasonal.Aggregate(qualifying)
	if err != nil {
		return fmt.Errorf("aggregate qualifying counts: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("seasonal").Observe(time.Since(seasonStart).Seconds())

	p.stage.Store("convolve")
	convStart := time.Now()
	qualTensor, err := p.convolver.Apply(seasonalQual)
	if err != nil {
		return fmt.Errorf("convolve qualifying counts: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("convolve").Observe(time.Since(convStart).Seconds())

	p.stage.Store("estimate")
	estStart := time.Now()
	f, s, err := estimate.Apply(p.estimator, qualTensor, totalTensor)
	if err != nil {
		return fmt.Errorf("estimate fractions: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("estimate").Observe(time.Since(estStart).Seconds())

	p.stage.Store("composite")
	compStart := time.Now()
	res, err := composite.Select(f, s, p.thresholds)
	if err != nil {
		return fmt.Errorf("select composite: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("composite").Observe(time.Since(compStart).Seconds())

	perWindow, unresolved := res.WindowCounts(totalTensor.Windows())
	for w, n := range perWindow {
		p.metrics.WindowSelections.WithLabelValues(name, strconv.Itoa(w)).Add(float64(n))
	}
	p.metrics.UnresolvedCells.WithLabelValues(name).Add(float64(unresolved))
	p.logger.Info("composite assembled", "variable", name, "unresolved_cells", unresolved)

	p.stage.Store("store")
	storeStart := time.Now()
	if err := p.store.SaveComposite(ctx, name, yearStart, res); err != nil {
		return fmt.Errorf("save composite: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("store").Observe(time.Since(storeStart).Seconds())

	return nil
}
