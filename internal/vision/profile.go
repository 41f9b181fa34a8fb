package vision

import "image"

// SpatialTemplate is the overlay's expected position and size normalized by
// the reference image dimensions, so detection is resolution-independent.
// AspectRatio is width/height in pixel space before normalization.
type SpatialTemplate struct {
	X           float64
	Y           float64
	W           float64
	H           float64
	AspectRatio float64
}

// Project maps the normalized box onto a frame of the given pixel dimensions.
func (t SpatialTemplate) Project(width, height int) image.Rectangle {
	x := int(t.X * float64(width))
	y := int(t.Y * float64(height))
	w := int(t.W * float64(width))
	h := int(t.H * float64(height))
	return image.Rect(x, y, x+w, y+h)
}

// Profile is the reusable detection profile built once per session by
// Calibrate. It is read-only and safe to share across concurrent scans.
type Profile struct {
	Background ColorRange
	Accent     ColorRange
	Text       ColorRange
	Spatial    SpatialTemplate
}

// Options bundles the detection policy for calibration and scanning.
// The zero value is not usable; start from DefaultOptions.
type Options struct {
	Background ColorRange
	Accent     ColorRange
	Text       ColorRange

	// MinAreaRatio is the fraction of total image pixels the best
	// background component must exceed during calibration.
	MinAreaRatio float64
	// IoUThreshold is the minimum overlap with the projected template
	// for a candidate to pass the spatial lock.
	IoUThreshold float64
	// AccentMinRatio and TextMinRatio are the triad-check floors for the
	// fraction of accent and text pixels inside a candidate ROI.
	AccentMinRatio float64
	TextMinRatio   float64
}

// DefaultOptions returns the stock menu policy: a dark blue panel with a
// lighter selection accent and near-white text.
func DefaultOptions() Options {
	return Options{
		Background:     RangeFromColor(24, 34, 48, 15, 80, 80),
		Accent:         RangeFromColor(70, 104, 146, 10, 60, 60),
		Text:           TextRange(60, 200),
		MinAreaRatio:   0.01,
		IoUThreshold:   0.3,
		AccentMinRatio: 0.01,
		TextMinRatio:   0.01,
	}
}
