package timeline

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func rangesEqual(a, b []KeepRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Start-b[i].Start) > epsilon || math.Abs(a[i].End-b[i].End) > epsilon {
			return false
		}
	}
	return true
}

func TestCluster_Empty(t *testing.T) {
	if got := Cluster(nil, 0.5); got != nil {
		t.Errorf("Cluster(nil) = %v, expected nil", got)
	}
	if got := Cluster([]float64{}, 0.5); got != nil {
		t.Errorf("Cluster([]) = %v, expected nil", got)
	}
}

func TestCluster_SingleTimestamp(t *testing.T) {
	got := Cluster([]float64{3.2}, 0.5)
	if len(got) != 1 {
		t.Fatalf("Expected 1 range, got %d", len(got))
	}
	if got[0].Start != 3.2 || got[0].End != 3.2 {
		t.Errorf("Expected zero-length range {3.2, 3.2}, got {%v, %v}", got[0].Start, got[0].End)
	}
	if got[0].Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %v", got[0].Confidence)
	}
}

func TestCluster_SplitsOnGap(t *testing.T) {
	got := Cluster([]float64{1.0, 1.3, 1.6, 5.0}, 0.5)
	if len(got) != 2 {
		t.Fatalf("Expected 2 ranges, got %d: %v", len(got), got)
	}
	if got[0].Start != 1.0 || got[0].End != 1.6 {
		t.Errorf("First range = {%v, %v}, expected {1.0, 1.6}", got[0].Start, got[0].End)
	}
	if got[1].Start != 5.0 || got[1].End != 5.0 {
		t.Errorf("Second range = {%v, %v}, expected {5.0, 5.0}", got[1].Start, got[1].End)
	}
}

func TestCluster_SortsUnorderedInput(t *testing.T) {
	got := Cluster([]float64{5.0, 1.6, 1.0, 1.3}, 0.5)
	if len(got) != 2 {
		t.Fatalf("Expected 2 ranges from unordered input, got %d: %v", len(got), got)
	}
	if got[0].Start != 1.0 || got[0].End != 1.6 {
		t.Errorf("First range = {%v, %v}, expected {1.0, 1.6}", got[0].Start, got[0].End)
	}
}

func TestCluster_GapExactlyTolerance(t *testing.T) {
	// A gap equal to the tolerance does not split.
	got := Cluster([]float64{1.0, 1.5, 2.0}, 0.5)
	if len(got) != 1 {
		t.Fatalf("Expected 1 range, got %d: %v", len(got), got)
	}
	if got[0].Start != 1.0 || got[0].End != 2.0 {
		t.Errorf("Range = {%v, %v}, expected {1.0, 2.0}", got[0].Start, got[0].End)
	}
}

func TestInvert_EmptyDetections(t *testing.T) {
	got := Invert(nil, 10, 0.1)
	want := []KeepRange{{Start: 0, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert(nil, 10) = %v, expected %v", got, want)
	}
}

func TestInvert_MiddleDetection(t *testing.T) {
	got := Invert([]DetectionRange{{Start: 2, End: 4, Confidence: 1.0}}, 10, 0.1)
	want := []KeepRange{{Start: 0, End: 2}, {Start: 4, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_DropsLeadingSliver(t *testing.T) {
	got := Invert([]DetectionRange{{Start: 0, End: 0.05, Confidence: 1.0}}, 10, 0.1)
	want := []KeepRange{{Start: 0.05, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_DropsTrailingSliver(t *testing.T) {
	got := Invert([]DetectionRange{{Start: 9.95, End: 10, Confidence: 1.0}}, 10, 0.1)
	want := []KeepRange{{Start: 0, End: 9.95}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_BoundaryIsExclusive(t *testing.T) {
	// detection.Start == cursor+minSegment must not emit a range.
	got := Invert([]DetectionRange{{Start: 0.1, End: 5, Confidence: 1.0}}, 10, 0.1)
	want := []KeepRange{{Start: 5, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_SortsUnsortedInput(t *testing.T) {
	got := Invert([]DetectionRange{
		{Start: 6, End: 7, Confidence: 1.0},
		{Start: 2, End: 3, Confidence: 1.0},
	}, 10, 0.1)
	want := []KeepRange{{Start: 0, End: 2}, {Start: 3, End: 6}, {Start: 7, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_OverlappingDetections(t *testing.T) {
	got := Invert([]DetectionRange{
		{Start: 1, End: 4, Confidence: 1.0},
		{Start: 2, End: 3, Confidence: 1.0},
	}, 10, 0.1)
	want := []KeepRange{{Start: 0, End: 1}, {Start: 4, End: 10}}
	if !rangesEqual(got, want) {
		t.Errorf("Invert = %v, expected %v", got, want)
	}
}

func TestInvert_DetectionCoversEverything(t *testing.T) {
	got := Invert([]DetectionRange{{Start: 0, End: 10, Confidence: 1.0}}, 10, 0.1)
	if len(got) != 0 {
		t.Errorf("Expected no keep ranges, got %v", got)
	}
}

func TestInvert_NegativeDurationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on negative duration")
		}
	}()
	Invert(nil, -1, 0.1)
}

func TestInvert_RoundTripCoversTimeline(t *testing.T) {
	// The union of keep ranges and detections covers [0, duration]
	// except for gaps strictly smaller than minSegment.
	detections := []DetectionRange{
		{Start: 1.0, End: 2.5, Confidence: 1.0},
		{Start: 4.0, End: 4.05, Confidence: 1.0},
		{Start: 7.2, End: 9.0, Confidence: 1.0},
	}
	const duration = 12.0
	const minSegment = 0.1

	keeps := Invert(detections, duration, minSegment)

	type interval struct{ start, end float64 }
	var all []interval
	for _, d := range detections {
		all = append(all, interval{d.Start, d.End})
	}
	for _, k := range keeps {
		if k.End-k.Start <= minSegment {
			t.Errorf("Keep range {%v, %v} is not longer than minSegment", k.Start, k.End)
		}
		all = append(all, interval{k.Start, k.End})
	}

	// Sweep the union and verify no gap >= minSegment remains.
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].start < all[i].start {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	cursor := 0.0
	for _, iv := range all {
		if iv.start-cursor >= minSegment {
			t.Errorf("Uncovered gap [%v, %v] of length >= minSegment", cursor, iv.start)
		}
		if iv.end > cursor {
			cursor = iv.end
		}
	}
	if duration-cursor >= minSegment {
		t.Errorf("Uncovered tail [%v, %v]", cursor, duration)
	}

	// Keep ranges must be pairwise disjoint and ascending.
	for i := 1; i < len(keeps); i++ {
		if keeps[i].Start < keeps[i-1].End {
			t.Errorf("Keep ranges overlap: %v then %v", keeps[i-1], keeps[i])
		}
	}
}
