package cpu

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Softmax normalizes x along dim: exp(x - max) / sum(exp(x - max)).
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return cpu.softmax("softmax", x, dim, false)
}

// LogSoftmax computes x - max - log(sum(exp(x - max))) along dim.
func (cpu *CPUBackend) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return cpu.softmax("logSoftmax", x, dim, true)
}

func (cpu *CPUBackend) softmax(name string, x *tensor.RawTensor, dim int, logSpace bool) *tensor.RawTensor {
	axis, err := x.Shape().NormalizeAxis(dim)
	if err != nil {
		panic(errors.WithMessage(err, name))
	}
	outer, n, inner := splitAxis(x.Shape(), axis)
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		softmaxRows(result.AsFloat32(), x.AsFloat32(), outer, n, inner, logSpace)
	case tensor.Float64:
		softmaxRows(result.AsFloat64(), x.AsFloat64(), outer, n, inner, logSpace)
	default:
		exceptions.Panicf("%s: unsupported dtype %s", name, x.DType())
	}
	return result
}

// softmaxRows normalizes every (outer, inner) slice of length n. Sums are
// accumulated in float64.
func softmaxRows[T ~float32 | ~float64](out, x []T, outer, n, inner int, logSpace bool) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			maxVal := math.Inf(-1)
			for j := 0; j < n; j++ {
				maxVal = max(maxVal, float64(x[base+j*inner]))
			}
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += math.Exp(float64(x[base+j*inner]) - maxVal)
			}
			logSum := math.Log(sum)
			for j := 0; j < n; j++ {
				idx := base + j*inner
				shifted := float64(x[idx]) - maxVal
				if logSpace {
					out[idx] = T(shifted - logSum)
				} else {
					out[idx] = T(math.Exp(shifted) / sum)
				}
			}
		}
	}
}
