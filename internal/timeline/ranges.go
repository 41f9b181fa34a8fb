package timeline

import "sort"

// DetectionRange is one contiguous period the overlay was judged present.
type DetectionRange struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// KeepRange is a time interval of source media selected for retention,
// i.e. the complement of the detected overlay intervals.
type KeepRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Cluster merges raw per-frame hit timestamps into continuous detection
// ranges. Timestamps whose gap does not exceed tolerance belong to the same
// range. Input order does not matter; the input slice is not modified.
// An empty input yields nil and a single timestamp yields one zero-length
// range. Range confidence is fixed at 1.0.
func Cluster(timestamps []float64, tolerance float64) []DetectionRange {
	if len(timestamps) == 0 {
		return nil
	}

	sorted := make([]float64, len(timestamps))
	copy(sorted, timestamps)
	sort.Float64s(sorted)

	var ranges []DetectionRange
	start := sorted[0]
	prev := sorted[0]

	for _, t := range sorted[1:] {
		if t-prev > tolerance {
			ranges = append(ranges, DetectionRange{Start: start, End: prev, Confidence: 1.0})
			start = t
		}
		prev = t
	}
	ranges = append(ranges, DetectionRange{Start: start, End: prev, Confidence: 1.0})

	return ranges
}

// Invert computes the complement of the detection ranges against
// [0, duration]. Gaps of at most minSegment are dropped as slivers not
// worth keeping as a distinct edit point: a keep range opens only when the
// next detection starts strictly later than cursor+minSegment, and the
// trailing range is emitted only when the cursor stops strictly earlier
// than duration-minSegment. The result is disjoint and ascending.
//
// A negative duration is a programmer error and panics.
func Invert(detections []DetectionRange, duration, minSegment float64) []KeepRange {
	if duration < 0 {
		panic("timeline: negative duration")
	}

	sorted := make([]DetectionRange, len(detections))
	copy(sorted, detections)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var keeps []KeepRange
	cursor := 0.0

	for _, det := range sorted {
		if det.Start > cursor+minSegment {
			keeps = append(keeps, KeepRange{Start: cursor, End: det.Start})
		}
		if det.End > cursor {
			cursor = det.End
		}
	}

	if cursor < duration-minSegment {
		keeps = append(keeps, KeepRange{Start: cursor, End: duration})
	}

	return keeps
}
