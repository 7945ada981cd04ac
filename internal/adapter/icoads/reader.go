// Package icoads reads observation records from ICOADS-style CSV extracts.
//
// Expected columns, in order, with a header row: YR, MO, DY, HR, LAT, LON,
// WW — the IMMA abbreviations for year, month, day, hour, position, and
// present weather. An empty WW field means the report carried no
// present-weather group. Longitudes in [-180, 0) are normalized to
// [0, 360) and the boundary duplicate 360° wraps to 0°.
package icoads

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

// Reader streams observations from one CSV file. It implements
// pipeline.Source; ReadBatch returns io.EOF when the file is drained.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	logger *slog.Logger

	line      int
	malformed int64
}

// Open opens a CSV extract and consumes its header row.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = 7

	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read observations header: %w", err)
	}

	return &Reader{csv: r, closer: f, logger: logger, line: 1}, nil
}

// ReadBatch reads up to max observations. Malformed rows are skipped with a
// warning rather than aborting a multi-million-row ingest.
func (r *Reader) ReadBatch(ctx context.Context, max int) ([]domain.Observation, error) {
	batch := make([]domain.Observation, 0, max)
	for len(batch) < max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.csv.Read()
		if err == io.EOF {
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read observation row: %w", err)
		}
		r.line++

		obs, err := parseRow(row)
		if err != nil {
			r.malformed++
			r.logger.Warn("skipping malformed observation row", "line", r.line, "error", err)
			continue
		}
		batch = append(batch, obs)
	}
	return batch, nil
}

// Malformed returns the number of rows skipped so far.
func (r *Reader) Malformed() int64 { return r.malformed }

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.closer.Close()
}

func parseRow(row []string) (domain.Observation, error) {
	year, err := parseIntField("YR", row[0])
	if err != nil {
		return domain.Observation{}, err
	}
	month, err := parseIntField("MO", row[1])
	if err != nil {
		return domain.Observation{}, err
	}
	day, err := parseIntField("DY", row[2])
	if err != nil {
		return domain.Observation{}, err
	}
	hour, err := parseIntField("HR", row[3])
	if err != nil {
		return domain.Observation{}, err
	}
	lat, err := parseFloatField("LAT", row[4])
	if err != nil {
		return domain.Observation{}, err
	}
	lon, err := parseFloatField("LON", row[5])
	if err != nil {
		return domain.Observation{}, err
	}

	ww := domain.PresentWeatherMissing
	if s := strings.TrimSpace(row[6]); s != "" {
		ww, err = parseIntField("WW", s)
		if err != nil {
			return domain.Observation{}, err
		}
		if ww < 0 || ww > 99 {
			return domain.Observation{}, fmt.Errorf("WW code %d outside 0..99", ww)
		}
	}

	return domain.Observation{
		Year:           year,
		Month:          month,
		Day:            day,
		Hour:           hour,
		Lat:            lat,
		Lon:            domain.NormalizeLon(lon),
		PresentWeather: ww,
	}, nil
}

func parseIntField(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return v, nil
}

func parseFloatField(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return v, nil
}
