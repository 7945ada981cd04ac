package domain

import "time"

// PresentWeatherMissing marks a report whose observer omitted the
// present-weather group. Valid ww codes are 0..99, so any negative value is
// treated as missing.
const PresentWeatherMissing = -1

// Observation is a single marine surface weather report. Immutable once
// ingested; adapters construct it and the binning stage only reads it.
type Observation struct {
	Year           int     `json:"yr"`
	Month          int     `json:"mo"`
	Day            int     `json:"dy"`
	Hour           int     `json:"hr"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	PresentWeather int     `json:"ww"`
}

// HasPresentWeather reports whether the observation carries a ww code.
func (o Observation) HasPresentWeather() bool {
	return o.PresentWeather >= 0
}

// NormalizeLon maps a longitude onto the [0, 360) grid axis: west-of-Greenwich
// values in [-180, 0) shift up by 360, and the boundary duplicate 360° wraps
// to 0° (the same meridian). Sources apply this before binning so boundary
// reports don't abort an ingest under the fail policy.
func NormalizeLon(lon float64) float64 {
	if lon < 0 {
		lon += 360
	}
	if lon == 360 {
		lon = 0
	}
	return lon
}

// Category names an event class and the present-weather codes that qualify.
type Category struct {
	Name      string
	Qualifies func(ww int) bool
}

// Matches applies the category predicate, treating missing present weather
// as non-qualifying.
func (c Category) Matches(o Observation) bool {
	if !o.HasPresentWeather() {
		return false
	}
	return c.Qualifies(o.PresentWeather)
}

// IsPrecip reports whether a ww code describes precipitation at the time of
// observation (drizzle, rain, solid, or showery/thunderstorm precipitation).
func IsPrecip(ww int) bool {
	return ww >= 50 && ww <= 99
}

// IsThunder reports whether a ww code describes thunder or a thunderstorm.
func IsThunder(ww int) bool {
	return ww == 17 || (ww >= 91 && ww <= 99)
}

// DefaultCategories returns the event categories estimated by the pipeline.
func DefaultCategories() []Category {
	return []Category{
		{Name: "precip", Qualifies: IsPrecip},
		{Name: "thunder", Qualifies: IsThunder},
	}
}

// RunInfo summarizes one completed pipeline run for persistence.
type RunInfo struct {
	YearStart    int
	YearEnd      int
	Observations int64
	Dropped      int64
	Variables    []string
	StartedAt    time.Time
	FinishedAt   time.Time
}
