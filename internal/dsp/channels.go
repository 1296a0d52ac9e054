package dsp

// PrepareTransform pulls the last constant.WindowSize samples from left and
// right, fans them into the analysis channel(s) per constant.ChannelConfig,
// applies the window kernel and zero-pads the tail, writing into scratch
// (which must be constant.TransformSize long). It returns false and leaves
// scratch untouched when the two views differ in length or are shorter than
// the window — the caller should retry on the next frame (§4.3, §7
// TransientSkip).
func PrepareTransform(constant *TransformConstant, left, right AudioBufferView, scratch []complex128) bool {
	if left.Len() != right.Len() || left.Len() < constant.WindowSize {
		return false
	}

	n := constant.WindowSize
	offset := left.Len() - n
	k := constant.WindowKernel

	fanIn(constant.ChannelConfig, n, k, func(i int) (Sample, Sample) {
		return left.At(offset + i), right.At(offset + i)
	}, scratch)

	zeroPad(scratch, n, constant.TransformSize)
	return true
}

// PrepareTransformWithPreliminary is the overload that additionally accepts
// "preliminary" audio already observed by the current callback but not yet
// ingested into the ring buffer. The preliminary samples (the newest "stop"
// samples, stop <= windowSize) are placed at the end of the windowed scratch;
// the older tail is drawn from the ring buffer views. This resolves the
// ignored-extra-samples behaviour §9's Open Question leaves undefined for
// the non-preliminary path by always accounting for the offset here.
func PrepareTransformWithPreliminary(
	constant *TransformConstant,
	left, right AudioBufferView,
	preliminaryLeft, preliminaryRight []Sample,
	scratch []complex128,
) bool {
	if left.Len() != right.Len() {
		return false
	}

	n := constant.WindowSize
	stop := len(preliminaryLeft)
	if stop > n {
		stop = n
	}
	if len(preliminaryRight) < stop {
		stop = len(preliminaryRight)
	}

	fromRing := n - stop
	if left.Len() < fromRing {
		return false
	}
	ringOffset := left.Len() - fromRing
	preOffset := len(preliminaryLeft) - stop

	k := constant.WindowKernel

	fanIn(constant.ChannelConfig, n, k, func(i int) (Sample, Sample) {
		if i < fromRing {
			return left.At(ringOffset + i), right.At(ringOffset + i)
		}
		j := preOffset + (i - fromRing)
		return preliminaryLeft[j], preliminaryRight[j]
	}, scratch)

	zeroPad(scratch, n, constant.TransformSize)
	return true
}

// fanIn writes n windowed, channel-fanned-in samples into scratch using the
// supplied per-index (left,right) accessor.
func fanIn(cfg ChannelConfig, n int, k WindowKernel, at func(i int) (Sample, Sample), scratch []complex128) {
	switch cfg {
	case Left:
		for i := 0; i < n; i++ {
			l, _ := at(i)
			scratch[i] = complex(float64(l)*k[i], 0)
		}
	case Right:
		for i := 0; i < n; i++ {
			_, r := at(i)
			scratch[i] = complex(float64(r)*k[i], 0)
		}
	case Merge:
		for i := 0; i < n; i++ {
			l, r := at(i)
			scratch[i] = complex(0.5*float64(l+r)*k[i], 0)
		}
	case Side:
		for i := 0; i < n; i++ {
			l, r := at(i)
			scratch[i] = complex(0.5*float64(l-r)*k[i], 0)
		}
	case MidSide:
		for i := 0; i < n; i++ {
			l, r := at(i)
			scratch[i] = complex(0.5*float64(l+r)*k[i], 0.5*float64(l-r)*k[i])
		}
	case Separate, Phase, Complex:
		for i := 0; i < n; i++ {
			l, r := at(i)
			scratch[i] = complex(float64(l)*k[i], float64(r)*k[i])
		}
	case Mid:
		for i := 0; i < n; i++ {
			l, r := at(i)
			scratch[i] = complex(0.5*float64(l+r)*k[i], 0)
		}
	default:
		for i := 0; i < n; i++ {
			l, _ := at(i)
			scratch[i] = complex(float64(l)*k[i], 0)
		}
	}
}

func zeroPad(scratch []complex128, from, to int) {
	for i := from; i < to; i++ {
		scratch[i] = 0
	}
}
