package vision

import (
	"math"

	"gocv.io/x/gocv"
)

// HSV channel domains follow the OpenCV 8-bit discretization.
const (
	HueMax = 180
	SatMax = 255
	ValMax = 255
)

// HSV is a color triple with H in [0,180] and S, V in [0,255].
type HSV struct {
	H float64
	S float64
	V float64
}

// ColorRange is an inclusive HSV range used for mask thresholding.
// Lower is component-wise less than or equal to Upper.
type ColorRange struct {
	Lower HSV
	Upper HSV
}

// LowerScalar returns the lower bound as a gocv scalar for InRangeWithScalar.
func (c ColorRange) LowerScalar() gocv.Scalar {
	return gocv.NewScalar(c.Lower.H, c.Lower.S, c.Lower.V, 0)
}

// UpperScalar returns the upper bound as a gocv scalar for InRangeWithScalar.
func (c ColorRange) UpperScalar() gocv.Scalar {
	return gocv.NewScalar(c.Upper.H, c.Upper.S, c.Upper.V, 0)
}

// RangeFromColor converts an sRGB color to HSV and widens it by the given
// per-channel tolerances, clamping each bound to its channel domain.
func RangeFromColor(r, g, b uint8, tolH, tolS, tolV float64) ColorRange {
	h, s, v := rgbToHSV(r, g, b)
	return ColorRange{
		Lower: HSV{
			H: clamp(h-tolH, 0, HueMax),
			S: clamp(s-tolS, 0, SatMax),
			V: clamp(v-tolV, 0, ValMax),
		},
		Upper: HSV{
			H: clamp(h+tolH, 0, HueMax),
			S: clamp(s+tolS, 0, SatMax),
			V: clamp(v+tolV, 0, ValMax),
		},
	}
}

// TextRange builds the near-white text range from fixed low-saturation and
// high-value thresholds, spanning all hues.
func TextRange(satMax, valMin float64) ColorRange {
	return ColorRange{
		Lower: HSV{H: 0, S: 0, V: clamp(valMin, 0, ValMax)},
		Upper: HSV{H: HueMax, S: clamp(satMax, 0, SatMax), V: ValMax},
	}
}

// rgbToHSV converts 8-bit sRGB to HSV with hue halved to [0,180] and
// saturation/value rescaled to [0,255], matching the OpenCV convention.
func rgbToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r := float64(r8) / 255.0
	g := float64(g8) / 255.0
	b := float64(b8) / 255.0

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max
	if max > 0 {
		s = delta / max
	}

	if delta > 0 {
		switch max {
		case r:
			h = math.Mod((g-b)/delta, 6)
		case g:
			h = (b-r)/delta + 2
		default:
			h = (r-g)/delta + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
	}

	return h / 2, s * 255, v * 255
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
