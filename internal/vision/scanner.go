package vision

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"cleancut/internal/logger"
)

// DetectionEvent is the raw output of scanning one frame.
type DetectionEvent struct {
	Timestamp  float64 `json:"timestamp"`
	Hit        bool    `json:"hit"`
	Confidence float64 `json:"confidence"`
}

// Scanner tests frames against a calibrated profile. It holds no per-frame
// state, so one Scanner is safe to use from concurrent scans as long as the
// frames themselves are not shared.
type Scanner struct {
	profile *Profile
	opts    Options
	logger  *logger.Logger
}

func NewScanner(profile *Profile, opts Options, logger *logger.Logger) *Scanner {
	return &Scanner{
		profile: profile,
		opts:    opts,
		logger:  logger,
	}
}

// Scan tests one frame against the profile. The frame is caller-owned and
// read-only for the duration of the call; the scanner never retains it.
// Any per-frame processing fault is logged and reported as a non-detection,
// it never aborts the scanning session.
func (s *Scanner) Scan(frame gocv.Mat, timestamp float64) (event DetectionEvent) {
	event = DetectionEvent{Timestamp: timestamp}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Frame scan panic at %.3fs: %v", timestamp, r)
			event = DetectionEvent{Timestamp: timestamp}
		}
	}()

	hit, confidence, err := s.scanFrame(frame)
	if err != nil {
		s.logger.Warning("Frame scan error at %.3fs: %v", timestamp, err)
		return event
	}

	event.Hit = hit
	event.Confidence = confidence
	return event
}

type candidate struct {
	rect image.Rectangle
	area float64
}

// scanFrame runs the detection pipeline on a single frame: project the
// spatial template, threshold on the background range, then walk candidate
// components largest-area-first until one passes both the spatial lock and
// the triad check.
func (s *Scanner) scanFrame(frame gocv.Mat) (bool, float64, error) {
	if frame.Empty() {
		return false, 0, fmt.Errorf("frame is empty")
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	expected := s.profile.Spatial.Project(frame.Cols(), frame.Rows())

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, s.profile.Background.LowerScalar(), s.profile.Background.UpperScalar(), &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	candidates := make([]candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		candidates = append(candidates, candidate{
			rect: gocv.BoundingRect(contour),
			area: gocv.ContourArea(contour),
		})
	}

	// Largest area first keeps the candidate order deterministic
	// regardless of contour discovery order.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].area > candidates[j].area
	})

	for _, cand := range candidates {
		if IoU(cand.rect, expected) < s.opts.IoUThreshold {
			continue
		}

		roi := cand.rect.Intersect(bounds)
		if roi.Empty() {
			continue
		}

		lightRatio, whiteRatio := s.triadRatios(hsv, roi)
		if lightRatio > s.opts.AccentMinRatio && whiteRatio > s.opts.TextMinRatio {
			return true, whiteRatio, nil
		}
	}

	return false, 0, nil
}

// triadRatios measures, inside the candidate ROI, the fraction of pixels
// matching the accent range and the fraction matching the text range.
func (s *Scanner) triadRatios(hsv gocv.Mat, roi image.Rectangle) (lightRatio, whiteRatio float64) {
	region := hsv.Region(roi)
	defer region.Close()

	roiArea := float64(roi.Dx() * roi.Dy())
	if roiArea <= 0 {
		return 0, 0
	}

	accentMask := gocv.NewMat()
	defer accentMask.Close()
	gocv.InRangeWithScalar(region, s.profile.Accent.LowerScalar(), s.profile.Accent.UpperScalar(), &accentMask)
	lightRatio = float64(gocv.CountNonZero(accentMask)) / roiArea

	textMask := gocv.NewMat()
	defer textMask.Close()
	gocv.InRangeWithScalar(region, s.profile.Text.LowerScalar(), s.profile.Text.UpperScalar(), &textMask)
	whiteRatio = float64(gocv.CountNonZero(textMask)) / roiArea

	return lightRatio, whiteRatio
}
