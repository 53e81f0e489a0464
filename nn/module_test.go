// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/autodiff"
	"github.com/born-ml/seq2seq/backend/cpu"
	"github.com/born-ml/seq2seq/nn"
	"github.com/born-ml/seq2seq/tensor"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.Backend]
		count  int
	}{
		{"Linear", nn.NewLinear(10, 5, rng, backend), 2},
		{"LayerNorm", nn.NewLayerNorm(8, 1e-6, backend), 2},
		{"FeedForward", nn.NewFeedForward[*cpu.Backend](8, 16, nil, rng, backend), 4},
		{"MultiHeadAttention", nn.NewMultiHeadAttention[*cpu.Backend](8, 2, nil, rng, backend), 8},
		{"ResidualConnection", nn.NewResidualConnection[*cpu.Backend](8, 1e-6, nil, backend), 2},
		{"Projection", nn.NewProjection(8, 11, rng, backend), 2},
		{"PositionalEncoding", nn.NewPositionalEncoding[*cpu.Backend](8, 4, nil, backend), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.module.Parameters(), tt.count)
		})
	}
}

func tinyConfig() nn.Config {
	cfg := nn.DefaultConfig()
	cfg.SrcVocabSize, cfg.TgtVocabSize = 30, 31
	cfg.DModel, cfg.Heads, cfg.DFF, cfg.Layers = 8, 2, 16, 1
	cfg.SrcSeqLen, cfg.TgtSeqLen = 6, 6
	return cfg
}

// TestEndToEnd runs a full translation step through the public API.
func TestEndToEnd(t *testing.T) {
	backend := cpu.New()
	model, err := nn.Build(tinyConfig(), backend)
	require.NoError(t, err)

	src := must.M1(tensor.FromRows([][]int32{{4, 7, 9, 0}, {3, 3, 0, 0}}, backend))
	tgt := must.M1(tensor.FromRows([][]int32{{1, 5, 6}, {1, 8, 0}}, backend))
	srcMask := nn.PaddingMask(src, 0)

	enc, err := model.Encode(src, srcMask)
	require.NoError(t, err)
	dec, err := model.Decode(enc, srcMask, tgt, nn.DecoderMask(tgt, 0))
	require.NoError(t, err)
	logProbs, err := model.Project(dec)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 31}, logProbs.Shape())

	loss, err := nn.NLLLoss(logProbs, tgt, 0)
	require.NoError(t, err)
	assert.Greater(t, loss.Item(), float32(0))
}

// TestGradients builds the model on the autodiff backend and collects a
// gradient for every parameter.
func TestGradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, err := nn.Build(tinyConfig(), backend)
	require.NoError(t, err)

	src := must.M1(tensor.FromRows([][]int32{{4, 7, 9, 0}}, backend))
	tgt := must.M1(tensor.FromRows([][]int32{{1, 5, 6}}, backend))
	labels := must.M1(tensor.FromRows([][]int32{{5, 6, 2}}, backend))
	srcMask := nn.PaddingMask(src, 0)

	backend.Tape().StartRecording()
	enc := must.M1(model.Encode(src, srcMask))
	dec := must.M1(model.Decode(enc, srcMask, tgt, nn.DecoderMask(tgt, 0)))
	logProbs := must.M1(model.Project(dec))
	loss := must.M1(nn.NLLLoss(logProbs, labels, 0))

	grads := autodiff.Backward(loss, backend)
	params := model.Parameters()
	assert.Equal(t, len(params), nn.CollectGradients(params, grads, backend))
	for _, p := range params {
		require.NotNil(t, p.Grad(), p.Name())
		assert.Equal(t, p.Tensor().Shape(), p.Grad().Shape(), p.Name())
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	doc := "src_vocab_size: 40\ntgt_vocab_size: 41\nd_model: 32\nheads: 4\nlayers: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := nn.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.DModel)
	assert.Equal(t, nn.DefaultConfig().DFF, cfg.DFF)

	_, err = nn.Build(nn.Config{}, cpu.New())
	assert.ErrorIs(t, err, nn.ErrInvalidConfig)
}
