package cpu

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("log", x, math.Log)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sqrt", x, math.Sqrt)
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("relu", x, func(v float64) float64 { return max(v, 0) })
}

func (cpu *CPUBackend) unaryFloat(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		out := result.AsFloat32()
		for i, v := range x.AsFloat32() {
			out[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		out := result.AsFloat64()
		for i, v := range x.AsFloat64() {
			out[i] = f(v)
		}
	default:
		exceptions.Panicf("%s: unsupported dtype %s", name, x.DType())
	}
	return result
}
