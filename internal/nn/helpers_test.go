package nn

import (
	"math/rand"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

const testPad = int32(0)

// cpuB is the backend most tests run on.
type cpuB = *cpu.CPUBackend

var testCPU = cpu.New()

// smallConfig is a model small enough to run every test in milliseconds.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.SrcVocabSize = 23
	cfg.TgtVocabSize = 19
	cfg.DModel = 16
	cfg.Heads = 4
	cfg.DFF = 32
	cfg.Layers = 2
	cfg.SrcSeqLen = 12
	cfg.TgtSeqLen = 10
	cfg.Seed = 42
	return cfg
}

func buildSmall(t *testing.T) *Transformer[cpuB] {
	t.Helper()
	model, err := Build(smallConfig(), testCPU)
	require.NoError(t, err)
	return model
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(1234))
}

func randn(rng *rand.Rand, dims ...int) *tensor.Tensor[float32, cpuB] {
	return tensor.Randn(tensor.Shape(dims), rng, testCPU)
}

func ones(dims ...int) *tensor.Tensor[float32, cpuB] {
	return tensor.Ones[float32](tensor.Shape(dims), testCPU)
}

func fromSlice(data []float32, dims ...int) *tensor.Tensor[float32, cpuB] {
	return must.M1(tensor.FromSlice(data, tensor.Shape(dims), testCPU))
}

func idRows(rows ...[]int32) *tensor.Tensor[int32, cpuB] {
	return must.M1(tensor.FromRows(rows, testCPU))
}

// randomIDs draws ids in [1, vocab) so no position is padding.
func randomIDs(rng *rand.Rand, batch, seq, vocab int) *tensor.Tensor[int32, cpuB] {
	data := make([]int32, batch*seq)
	for i := range data {
		data[i] = int32(1 + rng.Intn(vocab-1))
	}
	return must.M1(tensor.FromSlice(data, tensor.Shape{batch, seq}, testCPU))
}
