package dsp

import (
	"math"
	"testing"
)

func streamTestParams(t *testing.T, algo Algorithm) StreamParams {
	t.Helper()
	tc := NewTransformConstant()
	tc.ChannelConfig = Merge
	tc.SampleRate = 48000
	tc.Window = WindowHann
	if _, err := tc.SetStorage(8, 64); err != nil {
		t.Fatalf("SetStorage() error = %v", err)
	}
	tc.RegenerateWindowKernel()
	tc.RemapFrequencies(Bounds{Left: 0, Size: 1}, ScaleLinear, 20)
	tc.ResonatorSpec = ResonatorSpec{
		SampleRate: tc.SampleRate,
		Filters:    make([]ResonatorFilter, tc.AxisPoints),
	}
	for i := range tc.ResonatorSpec.Filters {
		tc.ResonatorSpec.Filters[i] = ResonatorFilter{Frequency: tc.MappedFrequencies[i] + 1, Bandwidth: 50}
	}

	return StreamParams{
		Constant:  tc,
		Algorithm: algo,
		LowDb:     -90,
		HighDb:    0,
		Pole:      0.8,
	}
}

func TestProduceFrameSkipsBeforeWindowFills(t *testing.T) {
	s := NewStreamState(256, 4)
	s.Reconfigure(streamTestParams(t, FFT))

	s.WriteSamples([]Sample{1, 2, 3}, []Sample{1, 2, 3})
	if err := s.ProduceFrame(); err != nil {
		t.Fatalf("ProduceFrame() error = %v, want nil transient skip", err)
	}
	if s.ApproximateStoredFrames() != 0 {
		t.Errorf("ApproximateStoredFrames() = %d, want 0 before the window fills", s.ApproximateStoredFrames())
	}
}

func TestProduceFrameFFTEnqueuesOnceWindowFilled(t *testing.T) {
	s := NewStreamState(256, 4)
	p := streamTestParams(t, FFT)
	s.Reconfigure(p)

	left := make([]Sample, p.Constant.WindowSize)
	right := make([]Sample, p.Constant.WindowSize)
	for i := range left {
		left[i] = Sample(math.Sin(float64(i)))
		right[i] = left[i]
	}
	s.WriteSamples(left, right)

	if err := s.ProduceFrame(); err != nil {
		t.Fatalf("ProduceFrame() error = %v", err)
	}

	frame, ok := s.PollFrame()
	if !ok {
		t.Fatal("PollFrame() = false, want a frame after a full window")
	}
	if len(frame.Values) != p.Constant.ChannelsOut()*p.Constant.AxisPoints {
		t.Errorf("len(frame.Values) = %d, want %d", len(frame.Values), p.Constant.ChannelsOut()*p.Constant.AxisPoints)
	}
	if frame.Sequence != 1 {
		t.Errorf("frame.Sequence = %d, want 1", frame.Sequence)
	}
}

func TestProduceFrameResonatorEnqueuesOnceWindowFilled(t *testing.T) {
	s := NewStreamState(256, 4)
	p := streamTestParams(t, Resonator)
	s.Reconfigure(p)
	s.resonators.Match(p.Constant.ResonatorSpec)

	left := make([]Sample, p.Constant.WindowSize)
	right := make([]Sample, p.Constant.WindowSize)
	for i := range left {
		left[i] = Sample(math.Sin(float64(i)))
		right[i] = left[i]
	}
	s.WriteSamples(left, right)

	if err := s.ProduceFrame(); err != nil {
		t.Fatalf("ProduceFrame() error = %v", err)
	}

	if _, ok := s.PollFrame(); !ok {
		t.Fatal("PollFrame() = false, want a frame from the resonator path")
	}
}

func TestProduceFrameNilConstantIsNoop(t *testing.T) {
	s := NewStreamState(64, 4)
	if err := s.ProduceFrame(); err != nil {
		t.Fatalf("ProduceFrame() with no Reconfigure = %v, want nil", err)
	}
	if s.ApproximateStoredFrames() != 0 {
		t.Errorf("ApproximateStoredFrames() = %d, want 0", s.ApproximateStoredFrames())
	}
}

func TestReconfigureResizesScratchOnTransformSizeChange(t *testing.T) {
	s := NewStreamState(256, 4)
	p := streamTestParams(t, FFT)
	s.Reconfigure(p)
	firstLen := len(s.scratch)

	bigger := streamTestParams(t, FFT)
	bigger.Constant.SetStorage(8, 4096)
	bigger.Constant.RemapFrequencies(Bounds{Left: 0, Size: 1}, ScaleLinear, 20)
	s.Reconfigure(bigger)

	if len(s.scratch) == firstLen {
		t.Errorf("scratch length unchanged at %d after a transform size change", firstLen)
	}
}
