package icoads

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), testLogger())
	require.Error(t, err)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := Open(path, testLogger())
	require.Error(t, err)
}

func TestReadBatch(t *testing.T) {
	path := writeCSV(t, `YR,MO,DY,HR,LAT,LON,WW
1987,1,15,12,-12.5,140.5,63
1987,1,15,18,-12.5,140.5,
1987,2,3,0,40.0,-20.5,17
1987,2,3,6,40.0,360.0,17
`)
	r, err := Open(path, testLogger())
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 4)

	assert.Equal(t, domain.Observation{
		Year: 1987, Month: 1, Day: 15, Hour: 12,
		Lat: -12.5, Lon: 140.5, PresentWeather: 63,
	}, batch[0])
	assert.Equal(t, domain.PresentWeatherMissing, batch[1].PresentWeather)
	// Negative longitudes normalize into [0, 360); the 360° boundary
	// duplicate wraps to 0° instead of failing the binner's range check.
	assert.Equal(t, 339.5, batch[2].Lon)
	assert.Equal(t, 0.0, batch[3].Lon)

	_, err = r.ReadBatch(context.Background(), 10)
	assert.Equal(t, io.EOF, err)
}

func TestReadBatch_RespectsMax(t *testing.T) {
	path := writeCSV(t, `YR,MO,DY,HR,LAT,LON,WW
1987,1,1,0,0.5,0.5,63
1987,1,1,6,0.5,0.5,63
1987,1,1,12,0.5,0.5,63
`)
	r, err := Open(path, testLogger())
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.ReadBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	batch, err = r.ReadBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestReadBatch_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `YR,MO,DY,HR,LAT,LON,WW
1987,1,15,12,-12.5,140.5,63
bad-year,1,15,12,-12.5,140.5,63
1987,1,15,12,-12.5,140.5,120
1987,1,15,18,-12.5,140.5,25
`)
	r, err := Open(path, testLogger())
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(2), r.Malformed())
	assert.Equal(t, 63, batch[0].PresentWeather)
	assert.Equal(t, 25, batch[1].PresentWeather)
}

func TestReadBatch_ContextCancelled(t *testing.T) {
	path := writeCSV(t, `YR,MO,DY,HR,LAT,LON,WW
1987,1,15,12,-12.5,140.5,63
`)
	r, err := Open(path, testLogger())
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ReadBatch(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
}
