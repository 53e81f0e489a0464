package nn

import (
	"github.com/pkg/errors"
)

// Config holds every construction parameter of a Transformer.
type Config struct {
	SrcVocabSize int     `yaml:"src_vocab_size"`
	TgtVocabSize int     `yaml:"tgt_vocab_size"`
	DModel       int     `yaml:"d_model"`  // Width of every hidden state
	Heads        int     `yaml:"heads"`    // Must divide DModel
	DFF          int     `yaml:"d_ff"`     // Feed-forward hidden width
	Layers       int     `yaml:"layers"`   // N, for both encoder and decoder
	Dropout      float32 `yaml:"dropout"`  // Probability in [0, 1]
	SrcSeqLen    int     `yaml:"src_seq_len"`
	TgtSeqLen    int     `yaml:"tgt_seq_len"`
	NormEps      float32 `yaml:"norm_eps"`
	Seed         int64   `yaml:"seed"` // Seeds initialization and dropout masks
}

// DefaultConfig returns the base model from "Attention Is All You Need" with
// 350-token position tables. Vocabulary sizes must still be set.
func DefaultConfig() Config {
	return Config{
		DModel:    512,
		Heads:     8,
		DFF:       2048,
		Layers:    6,
		Dropout:   0.1,
		SrcSeqLen: 350,
		TgtSeqLen: 350,
		NormEps:   DefaultNormEps,
		Seed:      1,
	}
}

// Validate reports the first configuration error, wrapping ErrInvalidConfig or
// ErrHeadsNotDivisible.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"src_vocab_size", c.SrcVocabSize},
		{"tgt_vocab_size", c.TgtVocabSize},
		{"d_model", c.DModel},
		{"heads", c.Heads},
		{"d_ff", c.DFF},
		{"layers", c.Layers},
		{"src_seq_len", c.SrcSeqLen},
		{"tgt_seq_len", c.TgtSeqLen},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.DModel%c.Heads != 0 {
		return errors.Wrapf(ErrHeadsNotDivisible, "d_model %d, heads %d", c.DModel, c.Heads)
	}
	if c.Dropout < 0 || c.Dropout > 1 {
		return errors.Wrapf(ErrInvalidConfig, "dropout must be in [0, 1], got %g", c.Dropout)
	}
	if c.NormEps <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "norm_eps must be positive, got %g", c.NormEps)
	}
	return nil
}
