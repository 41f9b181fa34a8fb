package vision

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

// Synthetic fixture colors: the menu triad plus a grassy scene background
// far outside the background hue window.
var (
	menuBackground = color.RGBA{R: 24, G: 34, B: 48}
	menuAccent     = color.RGBA{R: 70, G: 104, B: 146}
	menuText       = color.RGBA{R: 255, G: 255, B: 255}
	sceneColor     = color.RGBA{R: 40, G: 120, B: 40}
)

func testOptions() Options {
	return DefaultOptions()
}

// newScene creates a solid BGR frame in the scene color.
func newScene(t *testing.T, width, height int) gocv.Mat {
	t.Helper()
	scalar := gocv.NewScalar(float64(sceneColor.B), float64(sceneColor.G), float64(sceneColor.R), 0)
	return gocv.NewMatWithSizeFromScalar(scalar, height, width, gocv.MatTypeCV8UC3)
}

func fillRect(t *testing.T, mat *gocv.Mat, r image.Rectangle, c color.RGBA) {
	t.Helper()
	if err := gocv.Rectangle(mat, r, c, -1); err != nil {
		t.Fatalf("Failed to draw rectangle: %v", err)
	}
}

// drawMenu paints the full menu triad into rect: the background panel, an
// accent selection bar and a near-white text block, both strictly inside
// the panel.
func drawMenu(t *testing.T, mat *gocv.Mat, rect image.Rectangle) {
	t.Helper()
	fillRect(t, mat, rect, menuBackground)

	w := rect.Dx()
	h := rect.Dy()
	accent := image.Rect(
		rect.Min.X+w/8, rect.Min.Y+h/8,
		rect.Min.X+w*7/8, rect.Min.Y+h/4,
	)
	fillRect(t, mat, accent, menuAccent)

	text := image.Rect(
		rect.Min.X+w/8, rect.Min.Y+h/2,
		rect.Min.X+w*5/8, rect.Min.Y+h*5/8,
	)
	fillRect(t, mat, text, menuText)
}

// menuFrame builds a scene with the menu drawn at rect.
func menuFrame(t *testing.T, width, height int, rect image.Rectangle) gocv.Mat {
	t.Helper()
	frame := newScene(t, width, height)
	drawMenu(t, &frame, rect)
	return frame
}
