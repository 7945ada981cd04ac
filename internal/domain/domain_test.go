package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWindows(t *testing.T) {
	windows := DefaultWindows()
	require.Len(t, windows, WindowCount)

	for i := 0; i < 6; i++ {
		assert.Equal(t, Window{Height: 2*i + 1, Width: 2*i + 1}, windows[i])
	}
	// The coarsest window is rectangular, not square.
	assert.Equal(t, Window{Height: 13, Width: 27}, windows[6])

	require.NoError(t, ValidateWindows(windows))
}

func TestValidateWindows(t *testing.T) {
	tests := []struct {
		name    string
		windows []Window
		wantErr bool
	}{
		{"default schedule", DefaultWindows(), false},
		{"empty schedule", nil, true},
		{"even extent", []Window{{Height: 2, Width: 3}}, true},
		{"zero extent", []Window{{Height: 0, Width: 1}}, true},
		{"negative extent", []Window{{Height: -3, Width: 3}}, true},
		{"single identity", []Window{{Height: 1, Width: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindows(tt.windows)
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		wantErr    bool
	}{
		{"default ladder", DefaultThresholds(), false},
		{"empty ladder", nil, true},
		{"ascending", []float64{0.1, 0.2}, true},
		{"repeated", []float64{0.1, 0.1}, true},
		{"non-positive", []float64{0.1, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThresholds(tt.thresholds)
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSeasonMonths(t *testing.T) {
	assert.Equal(t, []int{12, 1, 2}, DJF.Months())
	assert.Equal(t, []int{3, 4, 5}, MAM.Months())
	assert.Equal(t, []int{6, 7, 8}, JJA.Months())
	assert.Equal(t, []int{9, 10, 11}, SON.Months())
	assert.Len(t, Annual.Months(), 12)

	// Every calendar month appears in exactly one trimonthly season.
	counts := make(map[int]int)
	for _, s := range []Season{DJF, MAM, JJA, SON} {
		for _, m := range s.Months() {
			counts[m]++
		}
	}
	for m := 1; m <= 12; m++ {
		assert.Equal(t, 1, counts[m], "month %d", m)
	}
}

func TestSeasonForName(t *testing.T) {
	for _, s := range Seasons() {
		assert.Equal(t, s, SeasonForName(s.String()))
	}
	assert.Equal(t, Season(-1), SeasonForName("midwinter"))
}

func TestCategoryMatches(t *testing.T) {
	precip := Category{Name: "precip", Qualifies: IsPrecip}

	tests := []struct {
		name string
		ww   int
		want bool
	}{
		{"missing present weather", PresentWeatherMissing, false},
		{"clear sky", 2, false},
		{"fog", 45, false},
		{"drizzle", 51, true},
		{"rain", 63, true},
		{"snow", 73, true},
		{"shower", 80, true},
		{"thunderstorm rain", 95, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := Observation{PresentWeather: tt.ww}
			assert.Equal(t, tt.want, precip.Matches(obs))
		})
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		name string
		lon  float64
		want float64
	}{
		{"interior", 140.5, 140.5},
		{"zero", 0, 0},
		{"west of greenwich", -20.5, 339.5},
		{"date line negative", -180, 180},
		{"boundary duplicate", 360, 0},
		{"just inside", 359.9, 359.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLon(tt.lon))
		})
	}
}

func TestIsThunder(t *testing.T) {
	assert.True(t, IsThunder(17))
	assert.True(t, IsThunder(91))
	assert.True(t, IsThunder(99))
	assert.False(t, IsThunder(63))
	assert.False(t, IsThunder(90))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&ConfigurationError{Reason: "bad ladder"}).Error(), "bad ladder")
	assert.Contains(t, (&ShapeMismatchError{Context: "mask", Want: "a", Got: "b"}).Error(), "mask")
	assert.Contains(t, (&OutOfRangeError{Axis: "latitude", Value: 91, Min: -90, Max: 90}).Error(), "latitude")
}
