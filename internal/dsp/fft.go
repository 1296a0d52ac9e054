package dsp

import "github.com/mjibson/go-dsp/fft"

// DoTransform performs an in-place forward DFT of length
// constant.TransformSize over scratch. The length must already be a power
// of two >= 16 (guaranteed by TransformConstant.SetStorage); there is no
// error path here — earlier components validate sizes (§4.4).
func DoTransform(constant *TransformConstant, scratch []complex128) {
	result := fft.FFT(scratch[:constant.TransformSize])
	copy(scratch, result)
}
