package vision

import "testing"

func TestRangeFromColor_BoundsOrderedAndInDomain(t *testing.T) {
	colors := []struct {
		name    string
		r, g, b uint8
	}{
		{"black", 0, 0, 0},
		{"white", 255, 255, 255},
		{"red", 255, 0, 0},
		{"green", 0, 255, 0},
		{"blue", 0, 0, 255},
		{"menu background", 24, 34, 48},
		{"menu accent", 70, 104, 146},
	}

	for _, c := range colors {
		cr := RangeFromColor(c.r, c.g, c.b, 15, 80, 80)

		if cr.Lower.H > cr.Upper.H || cr.Lower.S > cr.Upper.S || cr.Lower.V > cr.Upper.V {
			t.Errorf("%s: lower bound exceeds upper: %+v", c.name, cr)
		}
		if cr.Lower.H < 0 || cr.Upper.H > HueMax {
			t.Errorf("%s: hue out of [0,%d]: %+v", c.name, HueMax, cr)
		}
		if cr.Lower.S < 0 || cr.Upper.S > SatMax {
			t.Errorf("%s: saturation out of [0,%d]: %+v", c.name, SatMax, cr)
		}
		if cr.Lower.V < 0 || cr.Upper.V > ValMax {
			t.Errorf("%s: value out of [0,%d]: %+v", c.name, ValMax, cr)
		}
	}
}

func TestRGBToHSV_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 120, 255, 255},
	}

	for _, tt := range tests {
		h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
		if !almostEqual(h, tt.h) || !almostEqual(s, tt.s) || !almostEqual(v, tt.v) {
			t.Errorf("%s: rgbToHSV = (%.2f, %.2f, %.2f), expected (%.2f, %.2f, %.2f)",
				tt.name, h, s, v, tt.h, tt.s, tt.v)
		}
	}
}

func TestRangeFromColor_ClampsAtDomainEdges(t *testing.T) {
	// Red sits at hue 0; a tolerance window must clamp rather than wrap.
	cr := RangeFromColor(255, 0, 0, 20, 300, 300)
	if cr.Lower.H != 0 {
		t.Errorf("Expected lower hue clamped to 0, got %v", cr.Lower.H)
	}
	if cr.Lower.S != 0 || cr.Lower.V != 0 {
		t.Errorf("Expected lower S/V clamped to 0, got %+v", cr.Lower)
	}
	if cr.Upper.S != SatMax || cr.Upper.V != ValMax {
		t.Errorf("Expected upper S/V clamped to domain max, got %+v", cr.Upper)
	}
}

func TestTextRange_FixedThresholds(t *testing.T) {
	cr := TextRange(60, 200)
	if cr.Lower.H != 0 || cr.Upper.H != HueMax {
		t.Errorf("Text range must span all hues, got %+v", cr)
	}
	if cr.Lower.S != 0 || cr.Upper.S != 60 {
		t.Errorf("Expected saturation [0,60], got %+v", cr)
	}
	if cr.Lower.V != 200 || cr.Upper.V != ValMax {
		t.Errorf("Expected value [200,255], got %+v", cr)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.6
}
