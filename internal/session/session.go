package session

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"cleancut/internal/logger"
	"cleancut/internal/timeline"
	"cleancut/internal/vision"
)

// ErrSessionAborted reports cooperative cancellation observed between
// frames. Partial accumulation is discarded; it is a terminal status, not a
// processing failure.
var ErrSessionAborted = errors.New("session aborted")

// Frame is one sampled video frame with its presentation timestamp in
// seconds. The Mat is owned by the frame source and is only valid until the
// next pull; the session never retains it past the scan call.
type Frame struct {
	Mat       gocv.Mat
	Timestamp float64
}

// FrameSource is a pull-based iterator over sampled frames, delivered in
// presentation-timestamp order. Next reports false when the stream ends.
type FrameSource interface {
	Next() (Frame, bool)
	Duration() float64
	Close() error
}

// ProgressFunc receives throttled progress updates. Implementations must
// not block: the scan loop calls it inline between frames.
type ProgressFunc func(framesScanned int, timestamp, duration float64)

// Result is the outcome of a completed scanning session.
type Result struct {
	Detections    []timeline.DetectionRange
	Keeps         []timeline.KeepRange
	Duration      float64
	FramesScanned int
	FramesHit     int
}

// Options configures a scanning session.
type Options struct {
	// ClusterTolerance is the maximum gap in seconds between hits that
	// still belong to the same detection range.
	ClusterTolerance float64
	// MinSegment is the minimum keep-range length worth a cut point.
	MinSegment float64
	// ProgressInterval throttles progress reporting to every N frames.
	// Zero disables progress reporting.
	ProgressInterval int
	// Progress, when set, receives throttled updates.
	Progress ProgressFunc
}

// Session drives one calibrate-then-scan pipeline over a frame stream.
type Session struct {
	scanner *vision.Scanner
	opts    Options
	logger  *logger.Logger
}

// New creates a session around an already-calibrated scanner.
func New(scanner *vision.Scanner, opts Options, logger *logger.Logger) *Session {
	return &Session{
		scanner: scanner,
		opts:    opts,
		logger:  logger,
	}
}

// Run pulls frames from the source until the stream ends, scanning each one
// and accumulating hit timestamps, then clusters and inverts them into the
// final keep list. Cancellation is checked between frames; once a frame
// scan has started it runs to completion. On cancellation the accumulated
// timestamps are discarded and ErrSessionAborted is returned.
func (s *Session) Run(ctx context.Context, source FrameSource) (*Result, error) {
	duration := source.Duration()

	var hits []float64
	scanned := 0
	hitCount := 0

	for {
		select {
		case <-ctx.Done():
			s.logger.Warning("Scan session aborted after %d frames", scanned)
			return nil, fmt.Errorf("%w: %v", ErrSessionAborted, ctx.Err())
		default:
		}

		frame, ok := source.Next()
		if !ok {
			break
		}

		event := s.scanner.Scan(frame.Mat, frame.Timestamp)
		scanned++
		if event.Hit {
			hitCount++
			hits = append(hits, event.Timestamp)
		}

		if s.opts.Progress != nil && s.opts.ProgressInterval > 0 && scanned%s.opts.ProgressInterval == 0 {
			s.opts.Progress(scanned, frame.Timestamp, duration)
		}
	}

	detections := timeline.Cluster(hits, s.opts.ClusterTolerance)
	keeps := timeline.Invert(detections, duration, s.opts.MinSegment)

	s.logger.Info("Scan session complete: %d frames, %d hits, %d detection ranges, %d keep ranges",
		scanned, hitCount, len(detections), len(keeps))

	return &Result{
		Detections:    detections,
		Keeps:         keeps,
		Duration:      duration,
		FramesScanned: scanned,
		FramesHit:     hitCount,
	}, nil
}

// SegmentTimeline composes clustering and inversion over an accumulated
// event sequence: hit timestamps are clustered into detection ranges, which
// are then inverted against [0, duration].
func SegmentTimeline(events []vision.DetectionEvent, duration, clusterTolerance, minSegment float64) []timeline.KeepRange {
	var hits []float64
	for _, ev := range events {
		if ev.Hit {
			hits = append(hits, ev.Timestamp)
		}
	}

	detections := timeline.Cluster(hits, clusterTolerance)
	return timeline.Invert(detections, duration, minSegment)
}
