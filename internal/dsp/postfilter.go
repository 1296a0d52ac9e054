package dsp

import "math"

// LineGraph holds the running peak-decay state for one rendered lane (one
// per axis point per analysis channel). Mag is the magnitude lane's
// peak-decay accumulator; Phase is the separate one-pole smoother Phase-mode
// applies to its cancellation lane (§4.7).
type LineGraph struct {
	Mag   float64
	Phase float64
}

// PostFilter owns one LineGraph per (axis point, analysis channel) lane,
// converting magnitudes to log-fractional [clip,1] display coordinates.
// There may be several independently-configured PostFilters over the same
// mapped frame (LineGraphs::LineEnd in the original), each with its own
// pole, producing a stack of differently time-smoothed views of one input.
type PostFilter struct {
	lanes []LineGraph
}

// NewPostFilter allocates a post-filter for the given number of lanes
// (axisPoints * channelsOut).
func NewPostFilter(numLanes int) *PostFilter {
	return &PostFilter{lanes: make([]LineGraph, numLanes)}
}

// Reset zeroes every lane's running state.
func (p *PostFilter) Reset() {
	for i := range p.lanes {
		p.lanes[i] = LineGraph{}
	}
}

// Resize grows or shrinks the lane count, preserving the state of lanes that
// still exist by index (a config swap that keeps axisPoints and channel
// count fixed, e.g. a window change).
func (p *PostFilter) Resize(numLanes int) {
	next := make([]LineGraph, numLanes)
	copy(next, p.lanes)
	p.lanes = next
}

// dbToFraction converts a dB value to the corresponding linear fraction of
// full scale.
func dbToFraction(db float64) float64 {
	return math.Pow(10, db/20)
}

// Apply runs the post-filter over one mapped frame (in, length ==
// len(lanes)) producing log-fractional display values in out (same
// length), per §4.7:
//
//	lo = dbToFrac(lowDb); hi = dbToFrac(highDb); dyR = 1/ln(hi/lo); miR = 1/lo
//	state.mag = max(|x|, state.mag * pole)
//	d = slopeMap[i] * state.mag * miR
//	out = d > 0 ? ln(d)*dyR : clip
//
// slopeMap, if non-nil, must be axisPoints long and is applied per axis
// point regardless of channel count. pole is this graph's decay coefficient
// (close to but below 1). When phaseMode is set, a dual configuration's odd
// lanes (the cancellation metric, not a magnitude) instead get the
// phase-smoothing variant: state.phase = phase + pole^0.3*(state.phase-phase).
func (p *PostFilter) Apply(in []complex128, out []float64, slopeMap []float64, channelsOut int, lowDb, highDb, pole float64, phaseMode bool) {
	lo := dbToFraction(lowDb)
	hi := dbToFraction(highDb)
	dyR := 1 / math.Log(hi/lo)
	miR := 1 / lo

	for i := 0; i < len(p.lanes) && i < len(in) && i < len(out); i++ {
		lane := &p.lanes[i]
		mag := cmplxAbs(in[i])

		if phaseMode && channelsOut == 2 && i%2 == 1 {
			lane.Phase = mag + math.Pow(pole, 0.3)*(lane.Phase-mag)
			out[i] = clamp01(lane.Phase)
			continue
		}

		lane.Mag = math.Max(mag, lane.Mag*pole)

		slope := 1.0
		if slopeMap != nil {
			axisPoint := i
			if channelsOut == 2 {
				axisPoint = i / 2
			}
			if axisPoint < len(slopeMap) {
				slope = slopeMap[axisPoint]
			}
		}

		d := slope * lane.Mag * miR
		value := 0.0
		if d > 0 {
			value = math.Log(d) * dyR
		}
		out[i] = clamp01(value)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cmplxAbs(c complex128) float64 {
	r, i := real(c), imag(c)
	return math.Sqrt(r*r + i*i)
}
