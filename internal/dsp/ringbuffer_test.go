package dsp

import "testing"

func TestRingBufferViewReturnsMostRecentSamples(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]Sample{1, 2, 3, 4, 5})

	view := rb.View(4)
	want := []Sample{2, 3, 4, 5}
	if view.Len() != len(want) {
		t.Fatalf("view.Len() = %d, want %d", view.Len(), len(want))
	}
	for i, w := range want {
		if view.At(i) != w {
			t.Errorf("view.At(%d) = %v, want %v", i, view.At(i), w)
		}
	}
}

func TestRingBufferViewClampsToAvailable(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]Sample{1, 2})

	view := rb.View(10)
	if view.Len() != 2 {
		t.Fatalf("view.Len() = %d, want 2", view.Len())
	}
}

func TestRingBufferLenClampsToCapacity(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Write([]Sample{1, 2, 3, 4, 5})

	if got := rb.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestRingBufferWrappedViewSpansTwoSegments(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]Sample{1, 2, 3, 4})
	rb.Write([]Sample{5, 6}) // wraps: buffer now holds 3,4,5,6

	view := rb.View(4)
	want := []Sample{3, 4, 5, 6}
	for i, w := range want {
		if view.At(i) != w {
			t.Errorf("view.At(%d) = %v, want %v", i, view.At(i), w)
		}
	}
}
