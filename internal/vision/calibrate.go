package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// CalibrationError means no qualifying menu region was found in the
// reference image. It is fatal to the session and surfaced before any
// frame scanning starts.
type CalibrationError struct {
	Reason string
}

func (e *CalibrationError) Error() string {
	return "calibration failed: " + e.Reason
}

// Calibrate analyzes one reference image and builds the detection profile:
// it thresholds on the wide background range, extracts external contours,
// picks the largest component and normalizes its bounding box by the image
// dimensions. It fails when the best component does not exceed
// opts.MinAreaRatio of the total image pixels.
func Calibrate(img gocv.Mat, opts Options) (*Profile, error) {
	if img.Empty() {
		return nil, &CalibrationError{Reason: "reference image is empty"}
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, opts.Background.LowerScalar(), opts.Background.UpperScalar(), &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bestArea := 0.0
	var bestRect image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area > bestArea {
			bestArea = area
			bestRect = gocv.BoundingRect(contour)
		}
	}

	totalPixels := float64(img.Rows() * img.Cols())
	if bestArea <= totalPixels*opts.MinAreaRatio {
		return nil, &CalibrationError{Reason: "no menu detected"}
	}

	width := float64(img.Cols())
	height := float64(img.Rows())
	spatial := SpatialTemplate{
		X:           float64(bestRect.Min.X) / width,
		Y:           float64(bestRect.Min.Y) / height,
		W:           float64(bestRect.Dx()) / width,
		H:           float64(bestRect.Dy()) / height,
		AspectRatio: float64(bestRect.Dx()) / float64(bestRect.Dy()),
	}

	return &Profile{
		Background: opts.Background,
		Accent:     opts.Accent,
		Text:       opts.Text,
		Spatial:    spatial,
	}, nil
}

// CalibrateImage decodes an encoded reference image and calibrates on it.
func CalibrateImage(data []byte, opts Options) (*Profile, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference image: %w", err)
	}
	defer mat.Close()

	return Calibrate(mat, opts)
}

// CalibrateFile reads a reference image from disk and calibrates on it.
func CalibrateFile(path string, opts Options) (*Profile, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read reference image: %s", path)
	}

	return Calibrate(mat, opts)
}
