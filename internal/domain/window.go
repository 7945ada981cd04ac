package domain

import "fmt"

// WindowCount is the size of the smoothing-window axis.
const WindowCount = 7

// Window is an all-ones smoothing kernel shape. Extents are in grid cells
// and must be odd so the kernel is centered.
type Window struct {
	Height int
	Width  int
}

func (w Window) String() string {
	return fmt.Sprintf("%dx%d", w.Height, w.Width)
}

// Cells returns the number of cells the kernel covers.
func (w Window) Cells() int {
	return w.Height * w.Width
}

// DefaultWindows returns the seven-window smoothing schedule: squares
// (2i+1)×(2i+1) for i = 0..5 and the rectangular 13×27 window at index 6.
// Index 0 is the identity (no smoothing); index 6 is the coarsest.
func DefaultWindows() []Window {
	windows := make([]Window, 0, WindowCount)
	for i := 0; i < 6; i++ {
		windows = append(windows, Window{Height: 2*i + 1, Width: 2*i + 1})
	}
	windows = append(windows, Window{Height: 13, Width: 27})
	return windows
}

// ValidateWindows checks a window schedule for use by the convolver.
func ValidateWindows(windows []Window) error {
	if len(windows) == 0 {
		return &ConfigurationError{Reason: "window schedule is empty"}
	}
	for i, w := range windows {
		if w.Height <= 0 || w.Width <= 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("window %d has non-positive extent %s", i, w)}
		}
		if w.Height%2 == 0 || w.Width%2 == 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("window %d has even extent %s, kernels must be centered", i, w)}
		}
	}
	return nil
}

// DefaultThresholds returns the descending relative-error ladder scanned by
// composite selection. The outer composite loop walks this slice in order.
func DefaultThresholds() []float64 {
	return []float64{0.4, 0.3, 0.2, 0.1, 0.05, 0.03, 0.02, 0.01, 0.005, 0.003, 0.002, 0.001}
}

// ValidateThresholds checks that a threshold ladder is strictly descending
// and positive.
func ValidateThresholds(thresholds []float64) error {
	if len(thresholds) == 0 {
		return &ConfigurationError{Reason: "threshold ladder is empty"}
	}
	for i, t := range thresholds {
		if t <= 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("threshold %d is non-positive: %g", i, t)}
		}
		if i > 0 && t >= thresholds[i-1] {
			return &ConfigurationError{Reason: fmt.Sprintf("threshold ladder not strictly descending at index %d: %g >= %g", i, t, thresholds[i-1])}
		}
	}
	return nil
}
