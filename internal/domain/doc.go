// Package domain models ICOADS marine surface weather reports and the fixed
// grid, season, and smoothing-window conventions of the precipitation
// frequency pipeline.
//
// # Data Source
//
// Observations originate from the International Comprehensive Ocean-
// Atmosphere Data Set (ICOADS), one record per ship or buoy report. The
// upstream extraction keeps the report time (year, month, day, hour), the
// position, and the present-weather code. Positions use degrees latitude in
// [-90, 90] and degrees longitude in [0, 360); collectors that emit
// [-180, 180) longitudes normalize before handing records to the pipeline.
//
// # Present Weather
//
// The present-weather field is the WMO code table 4677 "ww" code, an integer
// in 00..99 describing the weather at the time of observation. Event
// categories are defined as predicates over this code:
//
//	precip:  ww 50..99 — drizzle (50s), rain (60s), solid precipitation
//	         (70s), and showery/thunderstorm precipitation (80s, 90s).
//	thunder: ww 17 (thunder heard, no precipitation at the station) or
//	         ww 91..99 (thunderstorm during the preceding hour or at the
//	         time of observation).
//
// A report with no present-weather group carries PresentWeatherMissing; such
// reports count toward report totals but never qualify for any category.
//
// # Grid
//
// The pipeline aggregates onto a fixed global 1°×1° equirectangular grid:
// 180 latitude cells (index 0 at -90°) by 360 longitude cells (index 0 at
// 0°). A report belongs to the cell whose lower-left edge is the greatest
// edge not exceeding its coordinates.
//
// # Seasons
//
// Monthly grids regroup into five slices per calendar year: the trimonthly
// seasons DJF {12, 1, 2}, MAM {3, 4, 5}, JJA {6, 7, 8}, SON {9, 10, 11},
// and Annual {1..12}. December of year Y counts toward DJF of year Y, so
// every month of calendar year Y contributes to year Y's slices and the
// Annual slice equals the sum of the four seasonal slices exactly.
//
// # Smoothing Windows
//
// Spatial smoothing uses seven all-ones kernels ordered from finest to
// coarsest: squares (2i+1)×(2i+1) for i = 0..5, then a rectangular 13×27
// window at index 6. The rectangle is intentional — at the widest scale the
// window spans more longitude than latitude — and must not be squared off.
// Composite selection scans windows from index 6 down to 0.
package domain
