// Package store persists composite grids and run metadata in a SQLite
// database. Grids are stored one row per (variable, year, season) with the
// fraction, sigma, and window-index planes as little-endian blobs, so
// downstream plotting tools can read single seasons without loading whole
// tensors.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oceanclim/icoads-precip-etl/internal/composite"
	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS composite_grids (
	variable     TEXT    NOT NULL,
	year         INTEGER NOT NULL,
	season       TEXT    NOT NULL,
	nlat         INTEGER NOT NULL,
	nlon         INTEGER NOT NULL,
	fraction     BLOB    NOT NULL,
	sigma        BLOB    NOT NULL,
	window_index BLOB    NOT NULL,
	PRIMARY KEY (variable, year, season)
);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	year_start   INTEGER NOT NULL,
	year_end     INTEGER NOT NULL,
	observations INTEGER NOT NULL,
	dropped      INTEGER NOT NULL,
	variables    TEXT    NOT NULL,
	started_at   TEXT    NOT NULL,
	finished_at  TEXT    NOT NULL
);
`

// Store wraps the results database. Safe for concurrent use via the
// underlying *sql.DB pool.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveComposite writes one variable's composite grids, one row per
// (year, season), replacing any previous run's rows for the same keys.
func (s *Store) SaveComposite(ctx context.Context, variable string, yearStart int, res *composite.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin composite tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO composite_grids
			(variable, year, season, nlat, nlon, fraction, sigma, window_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare composite insert: %w", err)
	}
	defer stmt.Close()

	for y := 0; y < res.F.Years(); y++ {
		for _, season := range domain.Seasons() {
			f := res.F.Field(y, int(season))
			sg := res.S.Field(y, int(season))
			r := res.R.Field(y, int(season))
			_, err := stmt.ExecContext(ctx,
				variable, yearStart+y, season.String(),
				f.NLat(), f.NLon(),
				encodeFloat32(f.Cells()), encodeFloat32(sg.Cells()), encodeInt8(r.Cells()),
			)
			if err != nil {
				return fmt.Errorf("insert composite %s %d %s: %w", variable, yearStart+y, season, err)
			}
		}
	}

	return tx.Commit()
}

// SaveRun records one completed pipeline run.
func (s *Store) SaveRun(ctx context.Context, info domain.RunInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (year_start, year_end, observations, dropped, variables, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.YearStart, info.YearEnd, info.Observations, info.Dropped,
		strings.Join(info.Variables, ","),
		info.StartedAt.UTC().Format(time.RFC3339),
		info.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompositeKey identifies one stored grid row.
type CompositeKey struct {
	Variable string
	Year     int
	Season   string
}

// ListComposites returns the keys of all stored composite rows in a stable
// order.
func (s *Store) ListComposites(ctx context.Context) ([]CompositeKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variable, year, season FROM composite_grids ORDER BY variable, year, season`)
	if err != nil {
		return nil, fmt.Errorf("list composites: %w", err)
	}
	defer rows.Close()

	var keys []CompositeKey
	for rows.Next() {
		var k CompositeKey
		if err := rows.Scan(&k.Variable, &k.Year, &k.Season); err != nil {
			return nil, fmt.Errorf("scan composite key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CompositeGrids holds one loaded (variable, year, season) row.
type CompositeGrids struct {
	NLat, NLon int
	Fraction   []float32
	Sigma      []float32
	Window     []int8
}

// LoadComposite reads one stored grid row back.
func (s *Store) LoadComposite(ctx context.Context, key CompositeKey) (*CompositeGrids, error) {
	var (
		nlat, nlon          int
		fBlob, sBlob, rBlob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT nlat, nlon, fraction, sigma, window_index
		FROM composite_grids WHERE variable = ? AND year = ? AND season = ?`,
		key.Variable, key.Year, key.Season,
	).Scan(&nlat, &nlon, &fBlob, &sBlob, &rBlob)
	if err != nil {
		return nil, fmt.Errorf("load composite %s %d %s: %w", key.Variable, key.Year, key.Season, err)
	}

	g := &CompositeGrids{
		NLat:     nlat,
		NLon:     nlon,
		Fraction: decodeFloat32(fBlob),
		Sigma:    decodeFloat32(sBlob),
		Window:   decodeInt8(rBlob),
	}
	if len(g.Fraction) != nlat*nlon || len(g.Sigma) != nlat*nlon || len(g.Window) != nlat*nlon {
		return nil, fmt.Errorf("composite %s %d %s: blob sizes disagree with %dx%d grid",
			key.Variable, key.Year, key.Season, nlat, nlon)
	}
	return g, nil
}

func encodeFloat32(cells []float32) []byte {
	buf := make([]byte, 4*len(cells))
	for i, v := range cells {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32(buf []byte) []float32 {
	cells := make([]float32, len(buf)/4)
	for i := range cells {
		cells[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return cells
}

func encodeInt8(cells []int8) []byte {
	buf := make([]byte, len(cells))
	for i, v := range cells {
		buf[i] = byte(v)
	}
	return buf
}

func decodeInt8(buf []byte) []int8 {
	cells := make([]int8, len(buf))
	for i, b := range buf {
		cells[i] = int8(b)
	}
	return cells
}
