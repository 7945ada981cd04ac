// Command validate performs integrity checks over a results database
// produced by the pipeline: window-index ranges, NaN/unresolved pairing,
// estimate bounds, and (when a land mask is supplied) land-cell behavior.
//
// Usage:
//
//	go run ./cmd/validate -db data/results.db -mask data/landmask.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/oceanclim/icoads-precip-etl/internal/adapter/landmask"
	"github.com/oceanclim/icoads-precip-etl/internal/adapter/store"
	"github.com/oceanclim/icoads-precip-etl/internal/composite"
	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "", "path to results database")
	maskPath := flag.String("mask", "", "optional land mask file for land-cell checks")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dbPath, *maskPath); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, maskPath string) int {
	ctx := context.Background()

	db, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open results db: %v\n", err)
		return 1
	}
	defer db.Close()

	var mask *grid.Mask
	if maskPath != "" {
		mask, err = landmask.Load(maskPath, grid.NLat, grid.NLon)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load land mask: %v\n", err)
			return 1
		}
	}

	keys, err := db.ListComposites(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list composites: %v\n", err)
		return 1
	}
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: results database holds no composite grids")
		return 1
	}

	fmt.Println("=== Composite Results Validation ===")
	fmt.Println()

	phases := []*phase{
		validateCoverage(keys),
		validateGrids(ctx, db, keys, mask),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("       - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println()
	fmt.Println("all checks passed")
	return 0
}

// validateCoverage checks that every stored (variable, year) carries all
// five season slices.
func validateCoverage(keys []store.CompositeKey) *phase {
	p := &phase{name: "season coverage"}

	seen := make(map[string]map[int]map[string]bool)
	for _, k := range keys {
		if seen[k.Variable] == nil {
			seen[k.Variable] = make(map[int]map[string]bool)
		}
		if seen[k.Variable][k.Year] == nil {
			seen[k.Variable][k.Year] = make(map[string]bool)
		}
		seen[k.Variable][k.Year][k.Season] = true
		if domain.SeasonForName(k.Season) < 0 {
			p.errorf("%s %d: unknown season label %q", k.Variable, k.Year, k.Season)
		}
	}

	for variable, years := range seen {
		for year, seasons := range years {
			for _, s := range domain.Seasons() {
				if !seasons[s.String()] {
					p.errorf("%s %d: missing season %s", variable, year, s)
				}
			}
		}
	}
	return p
}

// validateGrids checks per-cell invariants of every stored grid.
func validateGrids(ctx context.Context, db *store.Store, keys []store.CompositeKey, mask *grid.Mask) *phase {
	p := &phase{name: "grid invariants"}

	for _, k := range keys {
		g, err := db.LoadComposite(ctx, k)
		if err != nil {
			p.errorf("load %s %d %s: %v", k.Variable, k.Year, k.Season, err)
			continue
		}
		checkGrid(p, k, g, mask)
	}
	return p
}

func checkGrid(p *phase, k store.CompositeKey, g *store.CompositeGrids, mask *grid.Mask) {
	badIndex, badPairing, badBounds, badLand := 0, 0, 0, 0

	for i := range g.Window {
		w := g.Window[i]
		f := g.Fraction[i]
		s := g.Sigma[i]

		if w < composite.Unresolved || int(w) >= domain.WindowCount {
			badIndex++
			continue
		}

		unresolved := w == composite.Unresolved
		nanEstimates := math.IsNaN(float64(f)) && math.IsNaN(float64(s))
		if unresolved != nanEstimates {
			badPairing++
			continue
		}

		if !unresolved && (f < 0 || f > 1 || s < 0) {
			badBounds++
		}

		// Land cells carry no reports at any window, so the low-signal
		// fallback claims them on every pass and they end at window 0
		// with a zero fraction.
		if mask != nil && mask.Land(i/g.NLon, i%g.NLon) {
			if w != 0 || f != 0 {
				badLand++
			}
		}
	}

	label := fmt.Sprintf("%s %d %s", k.Variable, k.Year, k.Season)
	if badIndex > 0 {
		p.errorf("%s: %d cells with window index outside [-1, %d)", label, badIndex, domain.WindowCount)
	}
	if badPairing > 0 {
		p.errorf("%s: %d cells where unresolved flag and NaN estimates disagree", label, badPairing)
	}
	if badBounds > 0 {
		p.errorf("%s: %d cells with fraction outside [0, 1] or negative sigma", label, badBounds)
	}
	if badLand > 0 {
		p.errorf("%s: %d land cells not resolved to window 0 with zero fraction", label, badLand)
	}
}
