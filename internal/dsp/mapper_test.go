package dsp

import (
	"math/cmplx"
	"testing"
)

func mapperConstant(t *testing.T, cfg ChannelConfig, axisPoints, windowSize int) *TransformConstant {
	t.Helper()
	tc := NewTransformConstant()
	tc.ChannelConfig = cfg
	tc.SampleRate = 48000
	if _, err := tc.SetStorage(axisPoints, windowSize); err != nil {
		t.Fatalf("SetStorage() error = %v", err)
	}
	tc.RemapFrequencies(Bounds{Left: 0, Size: 1}, ScaleLinear, 20)
	return tc
}

func TestMapToLinearSpaceNoopBelowMinimumTransformSize(t *testing.T) {
	tc := mapperConstant(t, Merge, 4, 8)
	tc.TransformSize = 2 // force the documented boundary

	out := make([]complex128, tc.AxisPoints)
	before := append([]complex128(nil), out...)

	MapToLinearSpace(tc, make([]complex128, 8), Linear, out)

	for i := range out {
		if out[i] != before[i] {
			t.Errorf("out[%d] = %v, want untouched %v", i, out[i], before[i])
		}
	}
}

func TestMapToLinearSpaceMonoProducesOneLanePerAxisPoint(t *testing.T) {
	tc := mapperConstant(t, Merge, 8, 32)
	csf := make([]complex128, tc.TransformSize+1)
	for i := range csf {
		csf[i] = complex(1, 0)
	}

	out := make([]complex128, tc.ChannelsOut()*tc.AxisPoints)
	MapToLinearSpace(tc, csf, Linear, out)

	if tc.ChannelsOut() != 1 {
		t.Fatalf("Merge ChannelsOut() = %d, want 1", tc.ChannelsOut())
	}
	for i, v := range out {
		if cmplx.Abs(v) < 0 {
			t.Errorf("out[%d] = %v, want non-negative magnitude", i, v)
		}
	}
}

func TestMapToLinearSpaceDualProducesTwoLanesPerAxisPoint(t *testing.T) {
	tc := mapperConstant(t, Separate, 8, 32)
	csf := make([]complex128, tc.TransformSize+1)
	for i := range csf {
		csf[i] = complex(1, 1)
	}

	out := make([]complex128, tc.ChannelsOut()*tc.AxisPoints)
	MapToLinearSpace(tc, csf, Linear, out)

	if tc.ChannelsOut() != 2 {
		t.Fatalf("Separate ChannelsOut() = %d, want 2", tc.ChannelsOut())
	}
	if len(out) != 2*tc.AxisPoints {
		t.Fatalf("len(out) = %d, want %d", len(out), 2*tc.AxisPoints)
	}
}

func TestMapToLinearSpacePhaseCancellationIsBounded(t *testing.T) {
	tc := mapperConstant(t, Phase, 8, 32)
	csf := make([]complex128, tc.TransformSize+1)
	for i := range csf {
		csf[i] = complex(1, 0)
	}

	out := make([]complex128, tc.ChannelsOut()*tc.AxisPoints)
	MapToLinearSpace(tc, csf, Linear, out)

	for x := 0; x < tc.AxisPoints; x++ {
		cancellation := real(out[2*x+1])
		if cancellation < -1e-9 || cancellation > 1+1e-9 {
			t.Errorf("cancellation[%d] = %v, want within [0,1]", x, cancellation)
		}
	}
}

func TestInterpolateNoneRoundsToNearestBin(t *testing.T) {
	csf := []complex128{0, 1, 2, 3, 4}
	got := interpolate(csf, len(csf), 2.4, None)
	if got != csf[2] {
		t.Errorf("interpolate(None, 2.4) = %v, want %v", got, csf[2])
	}
}

func TestInterpolateLinearAveragesNeighbours(t *testing.T) {
	csf := []complex128{0, 10}
	got := interpolate(csf, len(csf), 0.5, Linear)
	want := complex128(5)
	if cmplx.Abs(got-want) > 1e-9 {
		t.Errorf("interpolate(Linear, 0.5) = %v, want %v", got, want)
	}
}

func TestLanczosKernelIsOneAtZero(t *testing.T) {
	if got := lanczosKernel(0, 5); got != 1 {
		t.Errorf("lanczosKernel(0, 5) = %v, want 1", got)
	}
}

func TestLanczosKernelIsZeroAtRadius(t *testing.T) {
	if got := lanczosKernel(5, 5); got != 0 {
		t.Errorf("lanczosKernel(5, 5) = %v, want 0", got)
	}
}

func TestConfineClampsToRange(t *testing.T) {
	if got := confine(-1, 0, 10); got != 0 {
		t.Errorf("confine(-1, 0, 10) = %d, want 0", got)
	}
	if got := confine(11, 0, 10); got != 10 {
		t.Errorf("confine(11, 0, 10) = %d, want 10", got)
	}
	if got := confine(5, 0, 10); got != 5 {
		t.Errorf("confine(5, 0, 10) = %d, want 5", got)
	}
}
