package cpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the result are split across goroutines.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "matmul: only 2D tensors supported, got %v and %v", aShape, bShape))
	}
	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.MustNewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	cfg := cpu.ParallelConfig()
	switch a.DType() {
	case tensor.Float32:
		matmulRows(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cfg)
	case tensor.Float64:
		matmulRows(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cfg)
	default:
		exceptions.Panicf("matmul: unsupported dtype %s", a.DType())
	}
	return result
}

// matmulRows computes C[i,j] = sum_k A[i,k] * B[k,j] with one work item per row.
func matmulRows[T number](c, a, b []T, m, k, n int, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		matmulRow(c[i*n:(i+1)*n], a[i*k:(i+1)*k], b, k, n)
	}, cfg)
}

// matmulRow writes one output row. The k-outer loop walks B row-major.
func matmulRow[T number](cRow, aRow, b []T, k, n int) {
	for j := range cRow {
		cRow[j] = 0
	}
	for kIdx := 0; kIdx < k; kIdx++ {
		av := aRow[kIdx]
		bRow := b[kIdx*n : (kIdx+1)*n]
		for j, bv := range bRow {
			cRow[j] += av * bv
		}
	}
}
