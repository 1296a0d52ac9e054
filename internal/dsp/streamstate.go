package dsp

import "sync"

// StreamParams is the version-stamped parameter surface (§6) a
// StreamState is reconfigured from. A new Constant is built off the audio
// thread by the host's parameter observer and swapped in at the next block
// boundary; StreamState never mutates Constant concurrently with use,
// following the same "no concurrent mutation of a TransformConstant"
// contract TransformConstant itself documents.
type StreamParams struct {
	Constant      *TransformConstant
	Algorithm     Algorithm
	Interpolation BinInterpolation
	LowDb         float64
	HighDb        float64
	Pole          float64   // this stream's post-filter decay coefficient (§4.7)
	SlopeMap      []float64 // axisPoints long, or nil for no tilt
}

// StreamState owns one stream's working buffers and drives it from raw
// audio to a queued display Frame: the left/right ring buffers, the FFT
// scratch and resonator bank (algorithm-exclusive, never both active), the
// post-filter lane state and the outbound frame queue. It implements
// FrameProducer so a Scheduler can drive it directly. WriteSamples and
// ProduceFrame run on the audio thread; PollFrame and
// ApproximateStoredFrames are the renderer's side of the frame queue;
// Reconfigure swaps parameters under a mutex that ProduceFrame holds only
// while copying them.
type StreamState struct {
	mu     sync.Mutex // guards params swap only; the hot path never blocks on it
	params StreamParams

	left  *RingBuffer
	right *RingBuffer

	scratch    []complex128
	resonators *ResonatorBank
	post       *PostFilter
	queue      *FrameQueue

	sequence uint64
}

// NewStreamState allocates a stream with the given ring buffer capacity and
// output queue depth.
func NewStreamState(ringCapacity, queueDepth int) *StreamState {
	return &StreamState{
		left:  NewRingBuffer(ringCapacity),
		right: NewRingBuffer(ringCapacity),
		queue: NewFrameQueue(queueDepth),
	}
}

// Reconfigure swaps in new parameters, resizing working buffers as needed.
// Running resonator/post-filter state is preserved where topology permits
// (ResonatorBank.Match and PostFilter.Resize already implement that); a
// change in TransformSize always reallocates the FFT scratch from scratch.
func (s *StreamState) Reconfigure(p StreamParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.params = p
	c := p.Constant

	scratchLen := c.TransformSize + 1 // +1: the mapper's two-for-one decode needs csf[N]
	if len(s.scratch) != scratchLen {
		s.scratch = make([]complex128, scratchLen)
	}

	if s.resonators == nil {
		s.resonators = NewResonatorBank(c.ChannelsOut())
	}
	s.resonators.Match(c.ResonatorSpec)

	numLanes := c.ChannelsOut() * c.AxisPoints
	if s.post == nil {
		s.post = NewPostFilter(numLanes)
	} else {
		s.post.Resize(numLanes)
	}
}

// WriteSamples appends new audio to the ring buffers; it does not count
// samples for frame scheduling, so call Scheduler.Tick(n) separately with
// the same n once this returns (StreamState does not own a Scheduler itself
// so a single Scheduler can drive several streams from one audio callback).
func (s *StreamState) WriteSamples(left, right []Sample) {
	s.left.Write(left)
	s.right.Write(right)
}

// ProduceFrame runs one full analysis pass -- prepare, transform, map,
// post-filter, enqueue -- and pushes the result onto the output queue. A
// TransientSkip is swallowed (not returned as an error): per §7 the caller
// should simply wait for the next blob, not treat it as a fault.
func (s *StreamState) ProduceFrame() error {
	s.mu.Lock()
	p := s.params
	s.mu.Unlock()

	c := p.Constant
	if c == nil {
		return nil
	}

	switch p.Algorithm {
	case Resonator:
		return s.produceResonatorFrame(p, c)
	default:
		return s.produceFFTFrame(p, c)
	}
}

func (s *StreamState) produceFFTFrame(p StreamParams, c *TransformConstant) error {
	leftView := s.left.View(c.WindowSize)
	rightView := s.right.View(c.WindowSize)

	if !PrepareTransform(c, leftView, rightView, s.scratch) {
		return nil // transient skip, §7
	}

	DoTransform(c, s.scratch)

	numLanes := c.ChannelsOut() * c.AxisPoints
	mapped := make([]complex128, numLanes)
	MapToLinearSpace(c, s.scratch, p.Interpolation, mapped)

	return s.finishFrame(p, c, mapped, numLanes)
}

func (s *StreamState) produceResonatorFrame(p StreamParams, c *TransformConstant) error {
	n := c.WindowSize
	leftView := s.left.View(n)
	rightView := s.right.View(n)
	if leftView.Len() != rightView.Len() || leftView.Len() < n {
		return nil
	}

	left := make([]Sample, n)
	right := make([]Sample, n)
	for i := 0; i < n; i++ {
		left[i] = leftView.At(i)
		right[i] = rightView.At(i)
	}

	s.resonators.ResonateReal([][]Sample{left, right}, n)

	numLanes := c.ChannelsOut() * c.AxisPoints
	mapped := make([]complex128, numLanes)
	s.resonators.GetWholeWindowedState(c.Window, mapped, c.AxisPoints)

	return s.finishFrame(p, c, mapped, numLanes)
}

func (s *StreamState) finishFrame(p StreamParams, c *TransformConstant, mapped []complex128, numLanes int) error {
	values := make([]float64, numLanes)
	phaseMode := c.ChannelConfig == Phase
	s.post.Apply(mapped, values, p.SlopeMap, c.ChannelsOut(), p.LowDb, p.HighDb, p.Pole, phaseMode)

	s.sequence++
	s.queue.Push(Frame{Values: values, Channels: c.ChannelsOut(), Sequence: s.sequence})
	return nil
}

// PollFrame returns the oldest queued frame (§6's pollFrame), or false if
// none is available. Call from the renderer thread only.
func (s *StreamState) PollFrame() (Frame, bool) {
	return s.queue.Pop()
}

// ApproximateStoredFrames reports how many frames are currently queued
// (§6's getApproximateStoredFrames).
func (s *StreamState) ApproximateStoredFrames() int {
	return s.queue.ApproxSize()
}
