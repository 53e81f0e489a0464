package cpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// The last two dimensions are treated as matrix dimensions and all leading
// dimensions must match. Work is split over the (first dim) x (remaining
// batch dims) grid, one matrix per item.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	ndim := len(aShape)

	if ndim < 3 {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "BatchMatMul: inputs must be at least 3D, got %v", aShape))
	}
	if len(bShape) != ndim {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "BatchMatMul: rank mismatch %v vs %v", aShape, bShape))
	}
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			panic(errors.Wrapf(tensor.ErrShapeMismatch,
				"BatchMatMul: batch dimension mismatch at dim %d: %d vs %d", i, aShape[i], bShape[i]))
		}
	}

	m := aShape[ndim-2]
	k1 := aShape[ndim-1]
	k2 := bShape[ndim-2]
	n := bShape[ndim-1]
	if k1 != k2 {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "BatchMatMul: inner dimension mismatch: %d vs %d", k1, k2))
	}

	outer := aShape[0]
	inner := 1
	for i := 1; i < ndim-2; i++ {
		inner *= aShape[i]
	}

	outShape := make(tensor.Shape, ndim)
	copy(outShape, aShape[:ndim-2])
	outShape[ndim-2] = m
	outShape[ndim-1] = n
	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	cfg := cpu.ParallelConfig()
	switch a.DType() {
	case tensor.Float32:
		batchMatmul(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outer, inner, m, k1, n, cfg)
	case tensor.Float64:
		batchMatmul(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outer, inner, m, k1, n, cfg)
	default:
		exceptions.Panicf("BatchMatMul: unsupported dtype %s", a.DType())
	}
	return result
}

func batchMatmul[T number](c, a, b []T, outer, inner, m, k, n int, cfg parallel.Config) {
	sizeA, sizeB, sizeC := m*k, k*n, m*n
	parallel.ForBatch(outer, inner, func(o, h int) {
		idx := o*inner + h
		aMat := a[idx*sizeA : (idx+1)*sizeA]
		bMat := b[idx*sizeB : (idx+1)*sizeB]
		cMat := c[idx*sizeC : (idx+1)*sizeC]
		for i := 0; i < m; i++ {
			matmulRow(cMat[i*n:(i+1)*n], aMat[i*k:(i+1)*k], bMat, k, n)
		}
	}, cfg)
}
