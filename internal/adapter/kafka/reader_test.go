package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

// fakeMessageReader yields its canned messages, then blocks until the
// caller's context expires, the way a quiet consumer-group reader does.
type fakeMessageReader struct {
	msgs  []kafkago.Message
	index int
}

func (f *fakeMessageReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if f.index < len(f.msgs) {
		m := f.msgs[f.index]
		f.index++
		return m, nil
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (f *fakeMessageReader) Close() error { return nil }

func testReader(msgs ...kafkago.Message) *Reader {
	return &Reader{
		reader: &fakeMessageReader{msgs: msgs},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		idle:   20 * time.Millisecond,
	}
}

func report(body string) kafkago.Message {
	return kafkago.Message{Value: []byte(body)}
}

func TestReadBatch(t *testing.T) {
	r := testReader(
		report(`{"yr":1987,"mo":1,"dy":15,"hr":12,"lat":-12.5,"lon":140.5,"ww":63}`),
		report(`{"yr":1987,"mo":1,"dy":15,"hr":18,"lat":-12.5,"lon":140.5,"ww":2}`),
	)

	batch, err := r.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, domain.Observation{
		Year: 1987, Month: 1, Day: 15, Hour: 12,
		Lat: -12.5, Lon: 140.5, PresentWeather: 63,
	}, batch[0])
}

func TestReadBatch_IdleTopicEndsRun(t *testing.T) {
	// A topic that stays quiet past the idle timeout must surface io.EOF so
	// the pipeline finalizes and persists instead of spinning forever.
	r := testReader()

	_, err := r.ReadBatch(context.Background(), 10)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadBatch_MessagesThenIdle(t *testing.T) {
	r := testReader(report(`{"yr":1987,"mo":1,"dy":15,"hr":12,"lat":-12.5,"lon":140.5,"ww":63}`))

	batch, err := r.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	_, err = r.ReadBatch(context.Background(), 10)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadBatch_CancelledContextIsNotEOF(t *testing.T) {
	r := testReader()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadBatch(ctx, 10)
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestDecode(t *testing.T) {
	r := testReader()

	obs, ok := r.decode(report(`{"yr":1987,"mo":1,"dy":15,"hr":12,"lat":-12.5,"lon":140.5,"ww":63}`))
	require.True(t, ok)
	assert.Equal(t, domain.Observation{
		Year: 1987, Month: 1, Day: 15, Hour: 12,
		Lat: -12.5, Lon: 140.5, PresentWeather: 63,
	}, obs)
}

func TestDecode_MissingPresentWeather(t *testing.T) {
	r := testReader()

	obs, ok := r.decode(report(`{"yr":1987,"mo":1,"dy":15,"hr":12,"lat":-12.5,"lon":140.5}`))
	require.True(t, ok)
	assert.Equal(t, domain.PresentWeatherMissing, obs.PresentWeather)
}

func TestDecode_NormalizesLongitude(t *testing.T) {
	r := testReader()

	obs, ok := r.decode(report(`{"yr":1987,"mo":2,"dy":3,"hr":0,"lat":40.0,"lon":-20.5,"ww":17}`))
	require.True(t, ok)
	assert.Equal(t, 339.5, obs.Lon)

	obs, ok = r.decode(report(`{"yr":1987,"mo":2,"dy":3,"hr":6,"lat":40.0,"lon":360.0,"ww":17}`))
	require.True(t, ok)
	assert.Equal(t, 0.0, obs.Lon)
}

func TestDecode_MalformedMessage(t *testing.T) {
	r := testReader()

	_, ok := r.decode(report(`{"yr":`))
	require.False(t, ok)
	assert.Equal(t, int64(1), r.Malformed())
}
