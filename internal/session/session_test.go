package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"cleancut/internal/logger"
	"cleancut/internal/vision"
)

// matSource serves a fixed list of frames.
type matSource struct {
	frames   []Frame
	duration float64
	index    int
	closed   bool
}

func (s *matSource) Next() (Frame, bool) {
	if s.index >= len(s.frames) {
		return Frame{}, false
	}
	f := s.frames[s.index]
	s.index++
	return f, true
}

func (s *matSource) Duration() float64 { return s.duration }
func (s *matSource) Close() error      { s.closed = true; return nil }

func solidFrame(t *testing.T, c color.RGBA) gocv.Mat {
	t.Helper()
	scalar := gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
	return gocv.NewMatWithSizeFromScalar(scalar, 360, 640, gocv.MatTypeCV8UC3)
}

// menuTestFrame paints the menu triad at the calibration position.
func menuTestFrame(t *testing.T) gocv.Mat {
	t.Helper()
	frame := solidFrame(t, color.RGBA{R: 40, G: 120, B: 40})

	panel := image.Rect(192, 72, 448, 288)
	mustFill(t, &frame, panel, color.RGBA{R: 24, G: 34, B: 48})
	mustFill(t, &frame, image.Rect(224, 99, 416, 126), color.RGBA{R: 70, G: 104, B: 146})
	mustFill(t, &frame, image.Rect(224, 180, 352, 207), color.RGBA{R: 255, G: 255, B: 255})
	return frame
}

func mustFill(t *testing.T, mat *gocv.Mat, r image.Rectangle, c color.RGBA) {
	t.Helper()
	if err := gocv.Rectangle(mat, r, c, -1); err != nil {
		t.Fatalf("Failed to draw rectangle: %v", err)
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()

	ref := menuTestFrame(t)
	defer ref.Close()

	profile, err := vision.Calibrate(ref, vision.DefaultOptions())
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	log := logger.NewLogger(t.TempDir())
	scanner := vision.NewScanner(profile, vision.DefaultOptions(), log)
	return New(scanner, opts, log)
}

func TestRun_SegmentsMenuIntervals(t *testing.T) {
	sess := newTestSession(t, Options{ClusterTolerance: 0.5, MinSegment: 0.1})

	menu := menuTestFrame(t)
	defer menu.Close()
	clean := solidFrame(t, color.RGBA{R: 40, G: 120, B: 40})
	defer clean.Close()

	// Menu visible from 2.0 to 2.4, clean elsewhere.
	source := &matSource{
		duration: 5.0,
		frames: []Frame{
			{Mat: clean, Timestamp: 0.0},
			{Mat: clean, Timestamp: 1.0},
			{Mat: menu, Timestamp: 2.0},
			{Mat: menu, Timestamp: 2.2},
			{Mat: menu, Timestamp: 2.4},
			{Mat: clean, Timestamp: 3.4},
			{Mat: clean, Timestamp: 4.4},
		},
	}

	result, err := sess.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.FramesScanned != 7 {
		t.Errorf("FramesScanned = %d, expected 7", result.FramesScanned)
	}
	if result.FramesHit != 3 {
		t.Errorf("FramesHit = %d, expected 3", result.FramesHit)
	}
	if len(result.Detections) != 1 {
		t.Fatalf("Expected 1 detection range, got %v", result.Detections)
	}
	if result.Detections[0].Start != 2.0 || result.Detections[0].End != 2.4 {
		t.Errorf("Detection range = %+v, expected {2.0, 2.4}", result.Detections[0])
	}
	if len(result.Keeps) != 2 {
		t.Fatalf("Expected 2 keep ranges, got %v", result.Keeps)
	}
	if result.Keeps[0].Start != 0 || result.Keeps[0].End != 2.0 {
		t.Errorf("First keep range = %+v, expected {0, 2.0}", result.Keeps[0])
	}
	if result.Keeps[1].Start != 2.4 || result.Keeps[1].End != 5.0 {
		t.Errorf("Second keep range = %+v, expected {2.4, 5.0}", result.Keeps[1])
	}
}

func TestRun_AbortDiscardsPartialResults(t *testing.T) {
	sess := newTestSession(t, Options{ClusterTolerance: 0.5, MinSegment: 0.1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sess.Run(ctx, &matSource{duration: 5.0})
	if !errors.Is(err, ErrSessionAborted) {
		t.Fatalf("Expected ErrSessionAborted, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected no partial result on abort, got %+v", result)
	}
}

func TestRun_ProgressThrottled(t *testing.T) {
	var calls int
	sess := newTestSession(t, Options{
		ClusterTolerance: 0.5,
		MinSegment:       0.1,
		ProgressInterval: 2,
		Progress: func(scanned int, timestamp, duration float64) {
			calls++
		},
	})

	clean := solidFrame(t, color.RGBA{R: 40, G: 120, B: 40})
	defer clean.Close()

	frames := make([]Frame, 0, 6)
	for i := 0; i < 6; i++ {
		frames = append(frames, Frame{Mat: clean, Timestamp: float64(i)})
	}

	if _, err := sess.Run(context.Background(), &matSource{frames: frames, duration: 6.0}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Progress called %d times, expected 3 (every 2nd of 6 frames)", calls)
	}
}

func TestSegmentTimeline_ComposesClusterAndInvert(t *testing.T) {
	events := []vision.DetectionEvent{
		{Timestamp: 0.5, Hit: false},
		{Timestamp: 2.0, Hit: true, Confidence: 0.4},
		{Timestamp: 2.3, Hit: true, Confidence: 0.5},
		{Timestamp: 4.0, Hit: false},
		{Timestamp: 6.0, Hit: true, Confidence: 0.2},
	}

	keeps := SegmentTimeline(events, 10, 0.5, 0.1)
	if len(keeps) != 3 {
		t.Fatalf("Expected 3 keep ranges, got %v", keeps)
	}
	expected := []struct{ start, end float64 }{
		{0, 2.0},
		{2.3, 6.0},
		{6.0, 10},
	}
	for i, want := range expected {
		if keeps[i].Start != want.start || keeps[i].End != want.end {
			t.Errorf("Keep[%d] = %+v, expected {%v, %v}", i, keeps[i], want.start, want.end)
		}
	}
}

func TestSegmentTimeline_NoHits(t *testing.T) {
	events := []vision.DetectionEvent{
		{Timestamp: 1.0, Hit: false},
		{Timestamp: 2.0, Hit: false},
	}

	keeps := SegmentTimeline(events, 10, 0.5, 0.1)
	if len(keeps) != 1 || keeps[0].Start != 0 || keeps[0].End != 10 {
		t.Errorf("Expected single full-timeline keep range, got %v", keeps)
	}
}
