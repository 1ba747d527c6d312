// Package floatsunrolled holds the residual update loops of the booster unrolled in
// batches of 4. Tails shorter than a batch are handled one element at a time.
package floatsunrolled

import (
	"errors"
)

const UnrollBatch = 4

var (
	ErrSliceLengthMismatch       = errors.New("slices must have equal lengths")
	ErrOutputSliceLengthMismatch = errors.New("output slice length not the same as input")
)

// SubTo computes dst = s - t element wise. A nil dst is allocated.
func SubTo(dst, s, t []float64) []float64 {
	if len(s) != len(t) {
		panic(ErrSliceLengthMismatch)
	}

	if dst == nil {
		dst = make([]float64, len(s))
	} else if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	n := len(s) - len(s)%UnrollBatch
	for i := 0; i < n; i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		tTmp := t[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = sTmp[0] - tTmp[0]
		dstTmp[1] = sTmp[1] - tTmp[1]
		dstTmp[2] = sTmp[2] - tTmp[2]
		dstTmp[3] = sTmp[3] - tTmp[3]
	}
	for i := n; i < len(s); i++ {
		dst[i] = s[i] - t[i]
	}
	return dst
}

// AddScaled performs dst = dst + alpha * s
func AddScaled(dst []float64, alpha float64, s []float64) []float64 {
	if len(dst) != len(s) {
		panic(ErrSliceLengthMismatch)
	}

	n := len(s) - len(s)%UnrollBatch
	for i := 0; i < n; i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] += alpha * sTmp[0]
		dstTmp[1] += alpha * sTmp[1]
		dstTmp[2] += alpha * sTmp[2]
		dstTmp[3] += alpha * sTmp[3]
	}
	for i := n; i < len(s); i++ {
		dst[i] += alpha * s[i]
	}
	return dst
}
