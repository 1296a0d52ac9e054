package dsp

import "math"

// TransformConstant is the immutable-per-configuration derived state shared
// by every stream processing one audio block: window kernel, bin-to-axis
// frequency map, slope-compensation map, transform length and channel
// config. A new TransformConstant is built by the parameter observer on a
// version change and swapped in by the audio thread at the next block
// boundary (§5); it is never mutated concurrently with use.
type TransformConstant struct {
	ChannelConfig ChannelConfig
	Window        WindowKind
	SampleRate    float64

	AxisPoints    int
	WindowSize    int
	TransformSize int

	MappedFrequencies []float64
	WindowKernel      WindowKernel
	WindowKernelScale float64

	ResonatorSpec ResonatorSpec
}

// NewTransformConstant allocates a zero-valued constant ready for SetStorage.
func NewTransformConstant() *TransformConstant {
	return &TransformConstant{}
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// SetStorage fixes axisPoints/windowSize/transformSize and (re)allocates
// windowKernel and mappedFrequencies. transformSize = max(16, nextPow2(windowSize)).
func (t *TransformConstant) SetStorage(axisPoints, effectiveWindowSize int) (int, error) {
	if axisPoints < 2 {
		return 0, &ConfigError{Field: "axisPoints", Msg: "must be >= 2"}
	}
	if effectiveWindowSize == 0 {
		return 0, &ConfigError{Field: "windowSize", Msg: "must be != 0"}
	}

	t.WindowSize = effectiveWindowSize
	transformSize := nextPow2(effectiveWindowSize)
	if transformSize < 16 {
		transformSize = 16
	}
	t.AxisPoints = axisPoints
	t.TransformSize = transformSize

	t.WindowKernel = make(WindowKernel, transformSize)
	t.MappedFrequencies = make([]float64, axisPoints)

	return transformSize, nil
}

// RegenerateWindowKernel recomputes the window kernel in place for the
// currently configured window function and window size, storing the
// resulting amplitude scale on the constant.
func (t *TransformConstant) RegenerateWindowKernel() {
	t.WindowKernelScale = regenerateWindowKernel(t.WindowKernel, t.WindowSize, t.Window)
}

// RemapFrequencies fills MappedFrequencies per §4.2. Post-condition:
// every entry is >= 0.
func (t *TransformConstant) RemapFrequencies(viewRect Bounds, scaling ViewScaling, minFreq float64) {
	if t.SampleRate <= 0 || t.AxisPoints < 2 {
		return
	}

	nyquist := t.SampleRate / 2
	viewSize := viewRect.Size
	denom := float64(t.AxisPoints - 1)

	switch scaling {
	case ScaleLinear:
		complexFactor := 1.0
		if t.ChannelConfig == Complex {
			complexFactor = 2.0
		}
		freqPerPoint := nyquist / denom
		for i := 0; i < t.AxisPoints; i++ {
			f := complexFactor*viewRect.Left*nyquist + complexFactor*viewSize*float64(i)*freqPerPoint
			t.MappedFrequencies[i] = math.Max(0, f)
		}
	case ScaleLogarithmic:
		if minFreq <= 0 {
			minFreq = 1
		}
		ratio := nyquist / minFreq
		if t.ChannelConfig != Complex {
			for i := 0; i < t.AxisPoints; i++ {
				arg := viewRect.Left + viewSize*float64(i)/denom
				f := minFreq * math.Pow(ratio, arg)
				t.MappedFrequencies[i] = math.Max(0, f)
			}
		} else {
			for i := 0; i < t.AxisPoints; i++ {
				arg := viewRect.Left + viewSize*float64(i)/denom
				var f float64
				if arg < 0.5 {
					f = minFreq * math.Pow(ratio, arg*2)
				} else {
					arg -= 0.5
					power := minFreq * math.Pow(ratio, 1-arg*2)
					f = nyquist + (nyquist - power)
				}
				t.MappedFrequencies[i] = math.Max(0, f)
			}
		}
	}
}

// GenerateSlopeMap fills out[i] = b * f[i]^a for the configured slope
// tilt, used by the post-filter to apply arbitrary dB/octave tilts.
func (t *TransformConstant) GenerateSlopeMap(out []float64, slope SlopeFunction) {
	for i := 0; i < t.AxisPoints && i < len(out); i++ {
		out[i] = slope.B * math.Pow(t.MappedFrequencies[i], slope.A)
	}
}

// ChannelsOut reports how many analysis channels this constant's
// configuration produces (1 or 2).
func (t *TransformConstant) ChannelsOut() int {
	return t.ChannelConfig.ChannelsOut()
}
