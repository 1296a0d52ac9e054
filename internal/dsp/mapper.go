package dsp

import (
	"math"
	"math/cmplx"
)

const lanczosRadius = 5

// MapToLinearSpace maps a transformSize-length (complex, Hermitian-symmetric)
// transform into axisPoints logical display points (mono configurations) or
// 2*axisPoints real-valued lanes packed as complex128 with a zero imaginary
// part (dual configurations), per §4.6. csf must be at least
// constant.TransformSize+1 long (dual/phase decode needs the extra slot);
// out must be constant.ChannelsOut()*constant.AxisPoints long. Complex mode
// counts as dual for that length but writes only one value per axis point,
// into out[0:AxisPoints]; the rest of out is left unchanged.
//
// Returns without writing when SampleRate is zero or TransformSize < 3, the
// boundary spec.md §8 requires.
func MapToLinearSpace(constant *TransformConstant, csf []complex128, interp BinInterpolation, out []complex128) {
	N := constant.TransformSize
	sr := constant.SampleRate

	if sr <= 0 || N < 3 {
		return
	}

	numBins := N / 2
	freqToBin := float64(numBins) / (sr / 2)
	invSize := constant.WindowKernelScale / (float64(constant.WindowSize) * 0.5)
	fftBandwidth := 1.0 / float64(numBins)

	// Step 1: DC and nyquist bin normalisation.
	csf[0] = complex(real(csf[0])*0.5, imag(csf[0])*0.5)
	csf[numBins] *= 0.5

	dual := constant.ChannelsOut() == 2
	phase := constant.ChannelConfig == Phase

	if !dual {
		for i := 0; i <= numBins; i++ {
			csf[i] = complex(cmplx.Abs(csf[i]), 0)
		}
		mapSingleLane(constant, csf, interp, out, N, freqToBin, invSize, fftBandwidth)
		return
	}

	// Step 2: decode the two-for-one packed transform.
	csf[N] = complex(imag(csf[0])*0.5, 0)
	csf[0] = complex(real(csf[0])*0.5, 0)
	csf[numBins] *= 0.5
	csf[numBins-1] *= 0.5

	if phase {
		mapPhase(constant, csf, interp, out, N, numBins, freqToBin, invSize, fftBandwidth)
		return
	}

	if constant.ChannelConfig == Complex {
		for i := 1; i < N; i++ {
			csf[i] = complex(cmplx.Abs(csf[i]), 0)
		}
		mapSingleLane(constant, csf, interp, out, N, freqToBin, invSize, fftBandwidth)
		return
	}

	// Separate / MidSide: two independent real lanes decoded via mirroring.
	for i := 1; i < N; i++ {
		csf[i] = complex(cmplx.Abs(csf[i]), 0)
	}
	mapDualLanes(constant, csf, interp, out, N, freqToBin, invSize, fftBandwidth)
}

// mapSingleLane handles mono configurations (already-abs'd csf) as well as
// Complex mode, writing one complex output value per axis point.
func mapSingleLane(constant *TransformConstant, csf []complex128, interp BinInterpolation, out []complex128, N int, freqToBin, invSize, fftBandwidth float64) {
	f := constant.MappedFrequencies
	P := constant.AxisPoints
	oldBin := 0
	interpolating := true

	for x := 0; x < P; x++ {
		bwForLine := nextBandwidth(f, x, P, constant.SampleRate)

		if interpolating && bwForLine <= fftBandwidth {
			pos := f[x] * freqToBin
			out[x] = complex(invSize, 0) * interpolate(csf, N+1, pos, interp)
			oldBin = int(pos)
			continue
		}

		interpolating = false
		bin := int(f[x] * freqToBin)
		maxBin, _ := argmaxMagnitude(csf, oldBin, bin)
		out[x] = complex(invSize, 0) * csf[maxBin]
		oldBin = bin
	}
}

// mapDualLanes handles Separate and MidSide: two real lanes, the second
// decoded from the mirrored index N-bin.
func mapDualLanes(constant *TransformConstant, csf []complex128, interp BinInterpolation, out []complex128, N int, freqToBin, invSize, fftBandwidth float64) {
	f := constant.MappedFrequencies
	P := constant.AxisPoints
	oldBin := 0
	interpolating := true

	for x := 0; x < P; x++ {
		bwForLine := nextBandwidth(f, x, P, constant.SampleRate)

		if interpolating && bwForLine <= fftBandwidth {
			pos := f[x] * freqToBin
			iLeft := interpolate(csf, N+1, pos, interp)
			iRight := interpolate(csf, N+1, float64(N)-pos, interp)
			out[2*x] = complex(invSize, 0) * iLeft
			out[2*x+1] = complex(invSize, 0) * iRight
			oldBin = int(pos)
			continue
		}

		interpolating = false
		bin := int(f[x] * freqToBin)
		maxLBin, _ := argmaxMagnitude(csf, oldBin, bin)
		maxRBin, _ := argmaxMagnitudeMirrored(csf, oldBin, bin, N)
		out[2*x] = complex(invSize, 0) * csf[maxLBin]
		out[2*x+1] = complex(invSize, 0) * csf[maxRBin]
		oldBin = bin
	}
}

// mapPhase handles Phase mode: lane 0 carries |L|+|R|, lane 1 carries the
// cancellation metric 1-|L+R|/(|L|+|R|). Because magnitude interpolation is
// meaningless on phase-rotating vectors, the normalise-then-interpolate pass
// rewrites touched bins as |csf[i]| per source bin, advancing just ahead of
// the interpolation filter's radius, bounded by the bandwidth-break point
// (§9 Open Question resolved this way, following the original's per-bin
// normalisation order).
func mapPhase(constant *TransformConstant, csf []complex128, interp BinInterpolation, out []complex128, N, numBins int, freqToBin, invSize, fftBandwidth float64) {
	f := constant.MappedFrequencies
	P := constant.AxisPoints
	oldBin := 0
	interpolating := true
	normalised := make([]bool, N+1)

	normaliseNear := func(pos float64) {
		radius := 1
		if interp == Lanczos {
			radius = lanczosRadius
		}
		center := int(pos)
		for i := center - radius; i <= center+radius+1; i++ {
			if i < 0 || i > N || normalised[i] {
				continue
			}
			csf[i] = complex(cmplx.Abs(csf[i]), 0)
			normalised[i] = true
		}
	}

	for x := 0; x < P; x++ {
		bwForLine := nextBandwidth(f, x, P, constant.SampleRate)

		if interpolating && bwForLine <= fftBandwidth {
			pos := f[x] * freqToBin
			normaliseNear(pos)
			normaliseNear(float64(N) - pos)

			iLeft := interpolate(csf, N+1, pos, interp)
			iRight := interpolate(csf, N+1, float64(N)-pos, interp)

			mid := invSize * (cmplx.Abs(iLeft) + cmplx.Abs(iRight))
			interference := invSize * cmplx.Abs(iLeft+iRight)
			cancellation := 0.0
			if mid > 0 {
				cancellation = interference / mid
			}

			out[2*x] = complex(mid, 0)
			out[2*x+1] = complex(1-cancellation, 0)
			oldBin = int(pos)
			continue
		}

		interpolating = false
		bin := int(f[x] * freqToBin)

		for i := oldBin; i <= bin && i <= N; i++ {
			if !normalised[i] {
				csf[i] = complex(cmplx.Abs(csf[i]), 0)
				normalised[i] = true
			}
			mirror := N - i
			if mirror >= 0 && mirror <= N && !normalised[mirror] {
				csf[mirror] = complex(cmplx.Abs(csf[mirror]), 0)
				normalised[mirror] = true
			}
		}

		maxBin, maxMag := oldBin, -1.0
		for i := oldBin; i <= bin && i <= N; i++ {
			leftMag := real(csf[i])
			rightMag := real(csf[N-i])
			m := leftMag
			if rightMag > m {
				m = rightMag
			}
			if m > maxMag {
				maxMag = m
				maxBin = i
			}
		}

		leftMax := csf[maxBin]
		rightMax := csf[N-maxBin]
		mid := invSize * (cmplx.Abs(leftMax) + cmplx.Abs(rightMax))
		interference := invSize * cmplx.Abs(leftMax+rightMax)
		cancellation := 0.0
		if mid > 0 {
			cancellation = interference / mid
		}

		out[2*x] = complex(mid, 0)
		out[2*x+1] = complex(1-cancellation, 0)
		oldBin = bin
	}
}

// nextBandwidth computes (f[x+1]-f[x])/(sr/2), reusing the last interval's
// bandwidth for the final axis point so every index is still visited exactly
// once by the interpolate-or-maxpick dispatch.
func nextBandwidth(f []float64, x, P int, sampleRate float64) float64 {
	if x+1 >= P {
		if x > 0 {
			return (f[x] - f[x-1]) / (sampleRate / 2)
		}
		return 0
	}
	return (f[x+1] - f[x]) / (sampleRate / 2)
}

// argmaxMagnitude returns the bin in (oldBin, bin] with the largest squared
// magnitude (bin itself is always included, matching the "at least one
// iteration" behaviour of the original's do/while).
func argmaxMagnitude(csf []complex128, oldBin, bin int) (int, float64) {
	maxBin := bin
	maxMag := -1.0
	start := oldBin + 1
	if bin == oldBin {
		start = oldBin
	}
	for i := start; i <= bin; i++ {
		if i < 0 || i >= len(csf) {
			continue
		}
		mag := sq(csf[i])
		if mag > maxMag {
			maxMag = mag
			maxBin = i
		}
	}
	return maxBin, maxMag
}

// argmaxMagnitudeMirrored is argmaxMagnitude computed against the mirrored
// index N-i for the second (right) lane of dual configurations.
func argmaxMagnitudeMirrored(csf []complex128, oldBin, bin, N int) (int, float64) {
	maxBin := N - bin
	maxMag := -1.0
	start := oldBin + 1
	if bin == oldBin {
		start = oldBin
	}
	for i := start; i <= bin; i++ {
		mirror := N - i
		if mirror < 0 || mirror >= len(csf) {
			continue
		}
		mag := sq(csf[mirror])
		if mag > maxMag {
			maxMag = mag
			maxBin = mirror
		}
	}
	return maxBin, maxMag
}

func sq(c complex128) float64 {
	r, i := real(c), imag(c)
	return r*r + i*i
}

// interpolate samples csf (logical length `length`) at fractional position
// pos using the requested method.
func interpolate(csf []complex128, length int, pos float64, method BinInterpolation) complex128 {
	switch method {
	case None:
		idx := confine(int(pos+0.5), 0, length-1)
		return csf[idx]
	case Linear:
		return linearFilter(csf, length, pos)
	case Lanczos:
		return lanczosFilter(csf, length, pos, lanczosRadius)
	default:
		return linearFilter(csf, length, pos)
	}
}

func linearFilter(csf []complex128, length int, pos float64) complex128 {
	i0 := int(pos)
	frac := pos - float64(i0)
	i0 = confine(i0, 0, length-1)
	i1 := confine(i0+1, 0, length-1)
	return csf[i0]*complex(1-frac, 0) + csf[i1]*complex(frac, 0)
}

func lanczosFilter(csf []complex128, length int, pos float64, radius int) complex128 {
	center := int(pos)
	var sum complex128
	for i := center - radius + 1; i <= center+radius; i++ {
		idx := confine(i, 0, length-1)
		d := pos - float64(i)
		sum += csf[idx] * complex(lanczosKernel(d, radius), 0)
	}
	return sum
}

func lanczosKernel(x float64, radius int) float64 {
	if x == 0 {
		return 1
	}
	r := float64(radius)
	if x <= -r || x >= r {
		return 0
	}
	return sinc(x) * sinc(x/r)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	piX := math.Pi * x
	return math.Sin(piX) / piX
}

func confine(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
