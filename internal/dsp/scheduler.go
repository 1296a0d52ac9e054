package dsp

import (
	"fmt"
	"log"
	"math"
	"sync"
)

// BlobSize returns the number of audio samples to accumulate between frame
// emissions, per §4.10: B = max(10, floor(blobSizeMs * 0.001 * sampleRate)).
func BlobSize(blobSizeMs, sampleRate float64) int {
	b := int(math.Floor(blobSizeMs * 0.001 * sampleRate))
	if b < 10 {
		b = 10
	}
	return b
}

// FrameProducer is whatever a Scheduler drives on each blob boundary: prepare
// the transform, run the algorithm, map, post-filter and push the result.
type FrameProducer interface {
	ProduceFrame() error
}

// Scheduler counts incoming samples against BlobSize and invokes the
// producer once per accumulated blob, non-blocking and single-threaded per
// stream (§4.10). It is driven by repeated calls to Tick from the audio
// callback, not its own goroutine -- the teacher's WidgetScheduler polls on
// a timer because its producers are independent widgets; a DSP stream's
// cadence is the audio callback itself, so Tick is called inline rather than
// ticker-driven.
type Scheduler struct {
	mu       sync.Mutex
	blobSize int
	counter  int
	producer FrameProducer
	onError  func(error)
}

// NewScheduler creates a scheduler that calls producer.ProduceFrame() every
// blobSize accumulated samples. onError, if non-nil, receives any error
// ProduceFrame returns; a nil onError logs it, matching the teacher's
// "log and continue" treatment of per-widget update errors.
func NewScheduler(blobSize int, producer FrameProducer, onError func(error)) *Scheduler {
	if blobSize < 1 {
		blobSize = 1
	}
	return &Scheduler{blobSize: blobSize, producer: producer, onError: onError}
}

// SetBlobSize updates the accumulation threshold, e.g. after a sample-rate
// or blob-size-ms configuration change. The in-flight counter is preserved.
func (s *Scheduler) SetBlobSize(blobSize int) {
	if blobSize < 1 {
		blobSize = 1
	}
	s.mu.Lock()
	s.blobSize = blobSize
	s.mu.Unlock()
}

// Tick advances the sample counter by n and fires the producer once for
// every full blob accumulated (more than one if n exceeds a single blob).
func (s *Scheduler) Tick(n int) {
	s.mu.Lock()
	s.counter += n
	var fires int
	for s.counter >= s.blobSize {
		s.counter -= s.blobSize
		fires++
	}
	s.mu.Unlock()

	for i := 0; i < fires; i++ {
		if err := s.produceOne(); err != nil {
			s.reportError(err)
		}
	}
}

func (s *Scheduler) produceOne() (err error) {
	defer logPanic("Scheduler.Tick")
	return s.producer.ProduceFrame()
}

// Reset zeroes the accumulated sample counter, e.g. on a stream restart.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.counter = 0
	s.mu.Unlock()
}

func (s *Scheduler) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
		return
	}
	log.Printf("spectrum scheduler: %v", err)
}

// logPanic recovers a panic in a producer callback and logs it, mirroring
// the teacher's widget update-loop panic guard.
func logPanic(context string) {
	if r := recover(); r != nil {
		log.Printf("spectrum scheduler: recovered panic in %s: %v", context, fmt.Errorf("%v", r))
	}
}
