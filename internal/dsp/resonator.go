package dsp

import (
	"math"
	"sync"
)

// ResonatorFilter describes one narrow-band recursive resonator tuned to a
// single frequency, continuously estimating the complex amplitude of the
// input at that frequency.
type ResonatorFilter struct {
	Frequency float64 // Hz
	Bandwidth float64 // Hz; controls the pole radius (Q)
}

// ResonatorSpec is the frequency/bandwidth configuration for an entire bank,
// one filter per axis point (or per axis point per channel for dual modes).
type ResonatorSpec struct {
	SampleRate float64
	Filters    []ResonatorFilter
}

type resonatorPole struct {
	coeff complex128 // r * e^{i*omega}, the per-sample recursion multiplier
	gain  float64    // (1 - r) normalisation so steady-state unit input tracks to unit magnitude
}

// ResonatorBank is a bank of per-frequency recursive IIR resonators
// producing complex amplitude estimates continuously in time (C3). Filter
// reconfiguration (Match) is unsynchronised and expected to run only between
// blocks on the audio thread; resonateReal/resonateComplex run exclusively
// on the audio thread; getWholeWindowedState may be called from the
// renderer and takes a short lock to avoid tearing the state snapshot.
type ResonatorBank struct {
	mu       sync.Mutex
	channels int // 1 or 2 analysis channels per filter
	poles    []resonatorPole
	state    []complex128 // len(poles) * channels
}

// NewResonatorBank creates an empty bank for the given channel count.
func NewResonatorBank(channels int) *ResonatorBank {
	if channels < 1 {
		channels = 1
	}
	return &ResonatorBank{channels: channels}
}

// Match reconfigures the bank's frequencies/bandwidths without resetting
// running state: filters present before and after (by index) keep their
// accumulated amplitude; new filters start at zero.
func (b *ResonatorBank) Match(spec ResonatorSpec) {
	newPoles := make([]resonatorPole, len(spec.Filters))
	for i, f := range spec.Filters {
		newPoles[i] = makePole(spec.SampleRate, f)
	}

	newState := make([]complex128, len(newPoles)*b.channels)
	copy(newState, b.state)

	b.mu.Lock()
	b.poles = newPoles
	b.state = newState
	b.mu.Unlock()
}

func makePole(sampleRate float64, f ResonatorFilter) resonatorPole {
	if sampleRate <= 0 {
		return resonatorPole{coeff: 0, gain: 0}
	}
	bw := f.Bandwidth
	if bw <= 0 {
		bw = 1
	}
	r := math.Exp(-math.Pi * bw / sampleRate)
	omega := 2 * math.Pi * f.Frequency / sampleRate
	return resonatorPole{
		coeff: complex(r*math.Cos(omega), r*math.Sin(omega)),
		gain:  1 - r,
	}
}

// ResetState zeroes all running resonator state.
func (b *ResonatorBank) ResetState() {
	b.mu.Lock()
	for i := range b.state {
		b.state[i] = 0
	}
	b.mu.Unlock()
}

// resonate advances n samples of a single channel's input through every
// filter, updating state[channel] in place. in must have length n.
func (b *ResonatorBank) resonate(channel int, in []complex128) {
	nf := len(b.poles)
	for fi := 0; fi < nf; fi++ {
		p := b.poles[fi]
		idx := fi*b.channels + channel
		s := b.state[idx]
		for _, x := range in {
			s = s*p.coeff + x*complex(p.gain, 0)
		}
		b.state[idx] = s
	}
}

// ResonateReal advances n real-valued samples (per analysis channel) through
// the bank. channels[c] must have length n.
func (b *ResonatorBank) ResonateReal(channels [][]Sample, n int) {
	scratch := make([]complex128, n)
	for c := 0; c < b.channels && c < len(channels); c++ {
		for i := 0; i < n; i++ {
			scratch[i] = complex(float64(channels[c][i]), 0)
		}
		b.resonate(c, scratch)
	}
}

// ResonateComplex advances n complex-valued samples through the bank.
func (b *ResonatorBank) ResonateComplex(channels [][]complex128, n int) {
	for c := 0; c < b.channels && c < len(channels); c++ {
		b.resonate(c, channels[c][:n])
	}
}

// WindowCompensation returns the scale factor applied to a resonator state
// snapshot for the given window kind before the mapper consumes it: the
// resonator's own implicit window is a one-pole exponential, not the
// selected analysis window, so the snapshot is rescaled by the ratio of the
// two windows' coherent gain.
func (b *ResonatorBank) WindowCompensation(kind WindowKind) float64 {
	switch kind {
	case WindowRectangular:
		return 1.0
	case WindowHamming:
		return 1.0 / 0.54
	case WindowKaiser:
		return 1.0 / 0.40
	case WindowHann:
		fallthrough
	default:
		return 2.0
	}
}

// GetWholeWindowedState returns a snapshot of the current complex amplitude
// estimates, one entry per filter per channel (outChannels == b.channels),
// scaled by the window compensation factor. out must be at least
// numFilters*outChannels long.
func (b *ResonatorBank) GetWholeWindowedState(kind WindowKind, out []complex128, numFilters int) {
	compensation := complex(b.WindowCompensation(kind), 0)

	b.mu.Lock()
	defer b.mu.Unlock()

	for fi := 0; fi < numFilters && fi < len(b.poles); fi++ {
		for c := 0; c < b.channels; c++ {
			out[fi*b.channels+c] = b.state[fi*b.channels+c] * compensation
		}
	}
}
