package nn

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// NamedParameters indexes the model's parameters by their dotted names.
func (t *Transformer[B]) NamedParameters() map[string]*Parameter[B] {
	params := t.Parameters()
	named := make(map[string]*Parameter[B], len(params))
	for _, p := range params {
		named[p.Name()] = p
	}
	return named
}

// StateDict returns a copy of every parameter tensor keyed by name.
//
// The positional tables are constants derived from the config and are not included.
func (t *Transformer[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	params := t.Parameters()
	state := make(map[string]*tensor.Tensor[float32, B], len(params))
	for _, p := range params {
		state[p.Name()] = p.Tensor().Clone()
	}
	return state
}

// LoadStateDict copies tensors from state into the model's parameters.
//
// Every parameter must be present, non-nil and with a matching shape, and no
// unknown names may appear; otherwise an error wrapping ErrStateDict is returned
// and the model is left unchanged.
func (t *Transformer[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	named := t.NamedParameters()

	var missing, unexpected []string
	for name := range named {
		if _, ok := state[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range state {
		if _, ok := named[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		sort.Strings(missing)
		sort.Strings(unexpected)
		return errors.Wrapf(ErrStateDict, "missing [%s], unexpected [%s]",
			strings.Join(missing, ", "), strings.Join(unexpected, ", "))
	}

	for name, p := range named {
		src := state[name]
		if src == nil {
			return errors.Wrapf(ErrStateDict, "%s: nil tensor", name)
		}
		if !src.Shape().Equal(p.Tensor().Shape()) {
			return errors.Wrapf(ErrStateDict, "%s: shape mismatch: expected %v, got %v",
				name, p.Tensor().Shape(), src.Shape())
		}
	}
	for name, p := range named {
		copy(p.Tensor().Data(), state[name].Data())
	}
	return nil
}
