package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// NLLLoss computes the mean negative log-likelihood of targets under logProbs.
//
// Shapes:
//   - logProbs: [batch, seq, vocab] (output of Projection)
//   - targets: [batch, seq]
//
// Returns a scalar tensor built from logProbs, so on an autodiff backend it can
// be passed straight to autodiff.Backward.
//
// Positions whose target equals ignoreIndex do not contribute. If every
// position is ignored the loss is 0.
func NLLLoss[B tensor.Backend](
	logProbs *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	ignoreIndex int32,
) (*tensor.Tensor[float32, B], error) {
	if logProbs.Rank() != 3 || targets.Rank() != 2 ||
		logProbs.Dim(0) != targets.Dim(0) || logProbs.Dim(1) != targets.Dim(1) {
		return nil, errors.Wrapf(ErrInputShape, "NLLLoss: log-probs %v vs targets %v", logProbs.Shape(), targets.Shape())
	}

	batch, seq, vocab := logProbs.Dim(0), logProbs.Dim(1), logProbs.Dim(2)
	backend := logProbs.Backend()
	index := tensor.Zeros[int32](tensor.Shape{batch, seq, 1}, backend)
	weights := tensor.Zeros[float32](tensor.Shape{batch, seq, 1}, backend)
	indexData, weightData := index.Data(), weights.Data()

	count := 0
	for i, target := range targets.Data() {
		if target == ignoreIndex {
			continue
		}
		if target < 0 || int(target) >= vocab {
			return nil, errors.Wrapf(ErrTokenOutOfRange, "NLLLoss: target %d at position %d, vocabulary size %d",
				target, i, vocab)
		}
		indexData[i] = target
		weightData[i] = 1
		count++
	}
	if count > 0 {
		scale := 1 / float32(count)
		for i := range weightData {
			weightData[i] *= scale
		}
	}

	picked := logProbs.Gather(-1, index) // [batch, seq, 1]
	total := picked.Mul(weights).SumDim(2, false).SumDim(1, false).SumDim(0, false)
	return total.MulScalar(-1), nil
}
