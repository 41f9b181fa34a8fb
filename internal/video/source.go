package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"cleancut/internal/session"
)

// Source is a pull-based frame iterator over a video file. It decodes with
// OpenCV and subsamples to roughly sampleFPS frames per second of video.
// It implements session.FrameSource.
type Source struct {
	capture  *gocv.VideoCapture
	frame    gocv.Mat
	stride   int
	index    int
	duration float64
}

// OpenSource opens a video file for sampled reading. sampleFPS <= 0 reads
// every frame.
func OpenSource(path string, sampleFPS float64) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	frameCount := capture.Get(gocv.VideoCaptureFrameCount)

	stride := 1
	if sampleFPS > 0 && fps > sampleFPS {
		stride = int(fps/sampleFPS + 0.5)
	}

	duration := 0.0
	if fps > 0 {
		duration = frameCount / fps
	}

	return &Source{
		capture:  capture,
		frame:    gocv.NewMat(),
		stride:   stride,
		duration: duration,
	}, nil
}

// Next decodes forward to the next sampled frame. The returned Mat is a
// reused decode buffer: it is only valid until the following Next call and
// must not be retained.
func (s *Source) Next() (session.Frame, bool) {
	for {
		if ok := s.capture.Read(&s.frame); !ok {
			return session.Frame{}, false
		}
		s.index++
		if (s.index-1)%s.stride != 0 {
			continue
		}
		if s.frame.Empty() {
			continue
		}

		timestamp := s.capture.Get(gocv.VideoCapturePosMsec) / 1000.0
		return session.Frame{Mat: s.frame, Timestamp: timestamp}, true
	}
}

// Duration returns the container duration in seconds, derived from the
// decoder's frame count and FPS. Prefer Prober.Duration when exactness
// matters; some containers misreport frame counts.
func (s *Source) Duration() float64 {
	return s.duration
}

// SetDuration overrides the decoder-derived duration, typically with the
// value probed from the container metadata.
func (s *Source) SetDuration(seconds float64) {
	if seconds > 0 {
		s.duration = seconds
	}
}

func (s *Source) Close() error {
	s.frame.Close()
	return s.capture.Close()
}
