package dsp

import (
	"math"
	"testing"
)

func TestApplyClampsToUnitRange(t *testing.T) {
	p := NewPostFilter(2)
	in := []complex128{complex(100, 0), complex(1e-12, 0)}
	out := make([]float64, 2)

	p.Apply(in, out, nil, 1, -90, 0, 0.5, false)

	for i, v := range out {
		if v < 0 || v > 1 {
			t.Errorf("out[%d] = %v, want within [0,1]", i, v)
		}
	}
}

func TestApplyPeakDecayIsMonotoneWithoutNewPeak(t *testing.T) {
	p := NewPostFilter(1)
	out := make([]float64, 1)

	p.Apply([]complex128{complex(1, 0)}, out, nil, 1, -90, 0, 0.9, false)
	first := out[0]

	p.Apply([]complex128{0}, out, nil, 1, -90, 0, 0.9, false)
	second := out[0]

	if second > first {
		t.Errorf("value after quieter input = %v, want <= previous peak %v", second, first)
	}
}

func TestApplyHoldsPeakAboveNewQuieterSignal(t *testing.T) {
	p := NewPostFilter(1)
	out := make([]float64, 1)

	p.Apply([]complex128{complex(1, 0)}, out, nil, 1, -90, 0, 0.99, false)
	peak := out[0]

	p.Apply([]complex128{complex(0.01, 0)}, out, nil, 1, -90, 0, 0.99, false)

	if out[0] <= 0 {
		t.Errorf("decayed value = %v, want > 0 (peak hold should still be decaying)", out[0])
	}
	if out[0] > peak {
		t.Errorf("decayed value = %v, want <= previous peak %v", out[0], peak)
	}
}

func TestApplyResetClearsState(t *testing.T) {
	p := NewPostFilter(1)
	out := make([]float64, 1)
	p.Apply([]complex128{complex(1, 0)}, out, nil, 1, -90, 0, 0.9, false)

	p.Reset()
	p.Apply([]complex128{0}, out, nil, 1, -90, 0, 0.9, false)

	if out[0] != 0 {
		t.Errorf("out[0] after Reset() = %v, want 0 (clip floor for silence)", out[0])
	}
}

func TestApplyPhaseModeSmoothsOddLanesOnly(t *testing.T) {
	p := NewPostFilter(2)
	out := make([]float64, 2)
	in := []complex128{complex(1, 0), complex(0.5, 0)}

	p.Apply(in, out, nil, 2, -90, 0, 0.8, true)

	want := 0.5 + math.Pow(0.8, 0.3)*(0-0.5)
	if math.Abs(out[1]-clamp01(want)) > 1e-9 {
		t.Errorf("phase lane out[1] = %v, want %v", out[1], clamp01(want))
	}
}

func TestApplySlopeMapScalesMagnitudeLane(t *testing.T) {
	flat := NewPostFilter(1)
	tilted := NewPostFilter(1)
	out1 := make([]float64, 1)
	out2 := make([]float64, 1)

	flat.Apply([]complex128{complex(0.1, 0)}, out1, nil, 1, -90, 0, 0, false)
	tilted.Apply([]complex128{complex(0.1, 0)}, out2, []float64{2}, 1, -90, 0, 0, false)

	if out2[0] <= out1[0] {
		t.Errorf("slope-boosted value = %v, want > unboosted %v", out2[0], out1[0])
	}
}

func TestResizePreservesExistingLaneState(t *testing.T) {
	p := NewPostFilter(1)
	out := make([]float64, 1)
	p.Apply([]complex128{complex(1, 0)}, out, nil, 1, -90, 0, 0.9, false)

	p.Resize(2)
	if len(p.lanes) != 2 {
		t.Fatalf("len(lanes) after Resize(2) = %d, want 2", len(p.lanes))
	}
	if p.lanes[0].Mag == 0 {
		t.Error("lanes[0] state lost after Resize()")
	}
}
