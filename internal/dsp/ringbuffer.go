package dsp

import "go.uber.org/atomic"

// AudioBufferView is a read-only pair of contiguous segments spanning the
// most recent W samples of a channel. Iteration order is newest-last:
// Seg0 then Seg1 reproduce the samples oldest-to-newest.
type AudioBufferView struct {
	Seg0 []Sample
	Seg1 []Sample
}

// Len returns the total number of samples spanned by the view.
func (v AudioBufferView) Len() int {
	return len(v.Seg0) + len(v.Seg1)
}

// At returns the i-th oldest sample in the view.
func (v AudioBufferView) At(i int) Sample {
	if i < len(v.Seg0) {
		return v.Seg0[i]
	}
	return v.Seg1[i-len(v.Seg0)]
}

// RingBuffer is a fixed-capacity circular store of recent stereo samples.
// A single writer (the audio callback) appends new samples; any number of
// readers may concurrently take zero-copy AudioBufferView snapshots of the
// most recent samples. The write cursor is published with a single atomic
// store so a reader never observes a torn write, matching the "lock-free
// multi-producer-safe" storage spec.md requires for C1 (readers are the only
// concurrent parties in this system; the writer itself is single-threaded
// per stream, consistent with §5's audio-thread-exclusive ownership of
// StreamState).
type RingBuffer struct {
	data   []Sample
	cap    int
	cursor atomic.Uint64 // total number of samples ever written
}

// NewRingBuffer allocates a ring buffer holding up to capacity samples.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		data: make([]Sample, capacity),
		cap:  capacity,
	}
}

// Write appends samples to the buffer, overwriting the oldest data once the
// buffer wraps. Only ever called from the audio thread.
func (r *RingBuffer) Write(samples []Sample) {
	written := r.cursor.Load()
	for _, s := range samples {
		r.data[int(written%uint64(r.cap))] = s
		written++
	}
	r.cursor.Store(written)
}

// View returns a view of the last n samples written (n is clamped to the
// amount of data actually available and to the buffer's capacity).
func (r *RingBuffer) View(n int) AudioBufferView {
	written := r.cursor.Load()
	available := written
	if available > uint64(r.cap) {
		available = uint64(r.cap)
	}
	if uint64(n) > available {
		n = int(available)
	}
	if n <= 0 {
		return AudioBufferView{}
	}

	start := (written - uint64(n)) % uint64(r.cap)
	end := written % uint64(r.cap)

	if start < end {
		return AudioBufferView{Seg0: r.data[start:end]}
	}
	if n == 0 {
		return AudioBufferView{}
	}
	// wrapped: oldest samples are the tail of the array, newest are the head
	return AudioBufferView{
		Seg0: r.data[start:r.cap],
		Seg1: r.data[0:end],
	}
}

// Len reports how many samples are currently stored (<= capacity).
func (r *RingBuffer) Len() int {
	written := r.cursor.Load()
	if written > uint64(r.cap) {
		return r.cap
	}
	return int(written)
}
