package vision

import "image"

// IoU computes the Intersection-over-Union of two rectangles. It is zero
// when the boxes do not intersect and 1 when they coincide.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	interArea := float64(inter.Dx() * inter.Dy())
	areaA := float64(a.Dx() * a.Dy())
	areaB := float64(b.Dx() * b.Dy())

	union := areaA + areaB - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
