// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the encoder-decoder Transformer and its building blocks.
//
// # Overview
//
// This package contains:
//   - Composition root: Transformer, Config, Build
//   - Blocks: InputEmbedding, PositionalEncoding, LayerNorm, FeedForward,
//     MultiHeadAttention, ResidualConnection, EncoderLayer, DecoderLayer,
//     Encoder, Decoder, Projection
//   - Masks: PaddingMask, CausalMask, DecoderMask
//   - Loss: NLLLoss
//   - Utilities: Module interface, Parameter, CollectGradients, XavierUniform
//
// Every block is generic over the compute backend B. Build the model on
// cpu.New() for inference, or on autodiff.New(cpu.New()) to obtain gradients.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/seq2seq/backend/cpu"
//	    "github.com/born-ml/seq2seq/nn"
//	    "github.com/born-ml/seq2seq/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    cfg := nn.DefaultConfig()
//	    cfg.SrcVocabSize, cfg.TgtVocabSize = 8000, 8000
//	    model, err := nn.Build(cfg, backend)
//
//	    src, _ := tensor.FromRows([][]int32{{5, 81, 17, 0}}, backend)
//	    tgt, _ := tensor.FromRows([][]int32{{1, 44}}, backend)
//	    srcMask := nn.PaddingMask(src, 0)
//
//	    enc, err := model.Encode(src, srcMask)
//	    dec, err := model.Decode(enc, srcMask, tgt, nn.DecoderMask(tgt, 0))
//	    logProbs, err := model.Project(dec) // [1, 2, 8000]
//	}
//
// # Masks
//
// Masks hold 1 where attention is allowed and 0 where it is blocked. Masks of
// rank 2 or 3 are aligned with the trailing axes of [batch, heads, seq_q, seq_k];
// per-batch masks must be rank 4. Any mask broadcastable after that alignment
// is accepted; nil disables masking.
//
// # Training Mode
//
// A built model is in evaluation mode: dropout is off and forward passes are
// deterministic and safe to run concurrently. SetTraining(true) enables
// dropout for use by an external training loop.
//
// # Gradients
//
// On an autodiff backend the forward pass is recorded and differentiated:
//
//	backend := autodiff.New(cpu.New())
//	model, _ := nn.Build(cfg, backend)
//	backend.Tape().StartRecording()
//	loss, _ := nn.NLLLoss(logProbs, labels, pad)
//	grads := autodiff.Backward(loss, backend)
//	nn.CollectGradients(model.Parameters(), grads, backend)
//
// The positional tables are constants and never receive a gradient.
//
// # Parameter Management
//
// Parameters carry dotted names for optimizers and checkpoint stores:
//
//	for name, p := range model.NamedParameters() {
//	    fmt.Println(name, p.Tensor().Shape())
//	}
//	state := model.StateDict()
//	err := other.LoadStateDict(state)
package nn
