package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func rawFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func rawInt32(t *testing.T, data []int32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsInt32(), data)
	return r
}

func randRaw(t *testing.T, rng *rand.Rand, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	for i := range r.AsFloat32() {
		r.AsFloat32()[i] = float32(rng.NormFloat64())
	}
	return r
}

// recoverErr runs f and returns the error it panicked with.
func recoverErr(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	f()
	return nil
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, parallel.DefaultConfig(), backend.ParallelConfig())
}

func TestAdd(t *testing.T) {
	backend := New()
	a := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFloat32(t, []float32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3})

	t.Run("same shape", func(t *testing.T) {
		out := backend.Add(a, b)
		assert.Equal(t, []float32{11, 22, 33, 44, 55, 66}, out.AsFloat32())
		assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, a.AsFloat32(), "inputs are never written")
	})
	t.Run("broadcast row", func(t *testing.T) {
		row := rawFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
		out := backend.Add(a, row)
		assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
		assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())
	})
	t.Run("broadcast column", func(t *testing.T) {
		col := rawFloat32(t, []float32{100, 200}, tensor.Shape{2, 1})
		out := backend.Sub(a, col)
		assert.Equal(t, []float32{-99, -98, -97, -196, -195, -194}, out.AsFloat32())
	})
	t.Run("incompatible", func(t *testing.T) {
		bad := rawFloat32(t, []float32{1, 2}, tensor.Shape{2})
		err := recoverErr(func() { backend.Add(a, bad) })
		assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	})
}

func TestMulDiv(t *testing.T) {
	backend := New()
	a := rawFloat32(t, []float32{2, 4, 6}, tensor.Shape{3})
	b := rawFloat32(t, []float32{2}, tensor.Shape{1})
	assert.Equal(t, []float32{4, 8, 12}, backend.Mul(a, b).AsFloat32())
	assert.Equal(t, []float32{1, 2, 3}, backend.Div(a, b).AsFloat32())
	assert.Equal(t, []float32{3, 5, 7}, backend.AddScalar(a, float32(1)).AsFloat32())
	assert.Equal(t, []float32{1, 2, 3}, backend.MulScalar(a, float32(0.5)).AsFloat32())
	assert.Panics(t, func() { backend.MulScalar(a, 0.5) }, "float64 scalar on a float32 tensor")
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	c := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, c.AsFloat32())

	err := recoverErr(func() { backend.MatMul(a, a) })
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestBatchMatMul_MatchesPerBatch(t *testing.T) {
	backend := New()
	rng := rand.New(rand.NewSource(1))
	a := randRaw(t, rng, tensor.Shape{2, 3, 4, 5})
	b := randRaw(t, rng, tensor.Shape{2, 3, 5, 6})
	c := backend.BatchMatMul(a, b)
	require.Equal(t, tensor.Shape{2, 3, 4, 6}, c.Shape())

	for i := 0; i < 6; i++ {
		ai := rawFloat32(t, a.AsFloat32()[i*20:(i+1)*20], tensor.Shape{4, 5})
		bi := rawFloat32(t, b.AsFloat32()[i*30:(i+1)*30], tensor.Shape{5, 6})
		want := backend.MatMul(ai, bi).AsFloat32()
		assert.InDeltaSlice(t, want, c.AsFloat32()[i*24:(i+1)*24], 1e-5)
	}
}

func TestBatchMatMul_ParallelIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := randRaw(t, rng, tensor.Shape{4, 8, 16, 8})
	b := randRaw(t, rng, tensor.Shape{4, 8, 8, 16})

	seqBackend := New()
	seqBackend.SetParallelConfig(parallel.Sequential())
	parBackend := New()
	parBackend.SetParallelConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})

	assert.Equal(t, seqBackend.BatchMatMul(a, b).AsFloat32(), parBackend.BatchMatMul(a, b).AsFloat32())
	assert.Equal(t, seqBackend.MatMul(
		rawFloat32(t, a.AsFloat32()[:128], tensor.Shape{16, 8}),
		rawFloat32(t, b.AsFloat32()[:128], tensor.Shape{8, 16})).AsFloat32(),
		parBackend.MatMul(
			rawFloat32(t, a.AsFloat32()[:128], tensor.Shape{16, 8}),
			rawFloat32(t, b.AsFloat32()[:128], tensor.Shape{8, 16})).AsFloat32())
}

func TestTransposeReshape(t *testing.T) {
	backend := New()
	x := rawFloat32(t, []float32{0, 1, 2, 3, 4, 5}, tensor.Shape{2, 3})
	xt := backend.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, xt.Shape())
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, xt.AsFloat32())

	rng := rand.New(rand.NewSource(2))
	h := randRaw(t, rng, tensor.Shape{2, 3, 4, 5})
	z := backend.Transpose(h, 0, 2, 1, 3)
	assert.Equal(t, tensor.Shape{2, 4, 3, 5}, z.Shape())
	assert.Equal(t, h.AsFloat32(), backend.Transpose(z, 0, 2, 1, 3).AsFloat32())
	assert.Equal(t, h.AsFloat32()[1*60+2*20+3*5+4], z.AsFloat32()[1*60+3*15+2*5+4])

	err := recoverErr(func() { backend.Transpose(h, 0, 0, 1, 2) })
	assert.True(t, errors.Is(err, tensor.ErrInvalidAxis))

	r := backend.Reshape(x, tensor.Shape{3, 2})
	assert.Equal(t, x.AsFloat32(), r.AsFloat32())
	err = recoverErr(func() { backend.Reshape(x, tensor.Shape{4, 2}) })
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestSoftmax(t *testing.T) {
	backend := New()
	x := rawFloat32(t, []float32{1, 2, 3, 1000, 1000, -1e9}, tensor.Shape{2, 3})
	d := backend.Softmax(x, -1).AsFloat32()
	assert.InDelta(t, 1.0, float64(d[0]+d[1]+d[2]), 1e-6)
	assert.InDelta(t, 0.5, float64(d[3]), 1e-6)
	assert.InDelta(t, 0.0, float64(d[5]), 1e-9)
	assert.Less(t, d[0], d[1])

	cols := backend.Softmax(rawFloat32(t, []float32{0, 0, 1, 1}, tensor.Shape{2, 2}), 0).AsFloat32()
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5, 0.5}, cols, 1e-6)
}

func TestLogSoftmax(t *testing.T) {
	backend := New()
	rng := rand.New(rand.NewSource(3))
	x := backend.MulScalar(randRaw(t, rng, tensor.Shape{3, 7}), float32(5))
	ls := backend.LogSoftmax(x, -1).AsFloat32()
	sm := backend.Softmax(x, -1).AsFloat32()
	for i, v := range ls {
		assert.InDelta(t, math.Log(float64(sm[i])), float64(v), 1e-4)
	}
}

func TestReduce(t *testing.T) {
	backend := New()
	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	s := backend.SumDim(x, -1, true)
	assert.Equal(t, tensor.Shape{2, 1}, s.Shape())
	assert.Equal(t, []float32{6, 15}, s.AsFloat32())

	m := backend.MeanDim(x, 0, false)
	assert.Equal(t, tensor.Shape{3}, m.Shape())
	assert.Equal(t, []float32{2.5, 3.5, 4.5}, m.AsFloat32())

	total := backend.SumDim(backend.SumDim(x, 1, false), 0, false)
	assert.Equal(t, 1, total.NumElements())
	assert.Equal(t, float32(21), total.AsFloat32()[0])

	err := recoverErr(func() { backend.SumDim(x, 2, false) })
	assert.True(t, errors.Is(err, tensor.ErrInvalidAxis))
}

func TestGather(t *testing.T) {
	backend := New()
	x := rawFloat32(t, []float32{0.1, 0.2, 0.7, 0.5, 0.3, 0.2}, tensor.Shape{2, 3})
	idx := rawInt32(t, []int32{2, 0}, tensor.Shape{2, 1})
	out := backend.Gather(x, -1, idx)
	assert.Equal(t, tensor.Shape{2, 1}, out.Shape())
	assert.Equal(t, []float32{0.7, 0.5}, out.AsFloat32())

	bad := rawInt32(t, []int32{3, 0}, tensor.Shape{2, 1})
	err := recoverErr(func() { backend.Gather(x, -1, bad) })
	assert.True(t, errors.Is(err, tensor.ErrIndexOutOfRange))
}

func TestEmbedding(t *testing.T) {
	backend := New()
	table := rawFloat32(t, []float32{0, 0, 1, 1, 2, 2}, tensor.Shape{3, 2})
	ids := rawInt32(t, []int32{2, 0, 1, 1}, tensor.Shape{2, 2})
	out := backend.Embedding(table, ids)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1, 1, 1}, out.AsFloat32())

	err := recoverErr(func() { backend.Embedding(table, rawInt32(t, []int32{3}, tensor.Shape{1})) })
	assert.True(t, errors.Is(err, tensor.ErrIndexOutOfRange))
}

func TestWhere_BroadcastMask(t *testing.T) {
	backend := New()
	scores := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	mask := rawFloat32(t, []float32{1, 1, 0}, tensor.Shape{1, 3})
	fill := rawFloat32(t, []float32{-1e9}, tensor.Shape{1})
	out := backend.Where(mask, scores, fill)
	assert.Equal(t, []float32{1, 2, -1e9, 4, 5, -1e9}, out.AsFloat32())
}
