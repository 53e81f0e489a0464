// Package config loads model configurations from YAML.
//
// Fields absent from the document keep their nn.DefaultConfig values. Unknown
// keys are rejected so a misspelled field never silently falls back to a
// default.
//
// Example document:
//
//	src_vocab_size: 32000
//	tgt_vocab_size: 32000
//	d_model: 256
//	heads: 4
//	layers: 3
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/seq2seq/internal/nn"
)

// ErrParse is returned when a document is not valid YAML for nn.Config.
var ErrParse = errors.New("invalid config document")

// Load reads and parses the YAML file at path.
func Load(path string) (nn.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nn.Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nn.Config{}, errors.WithMessagef(err, "config %s", path)
	}
	klog.V(1).Infof("loaded config from %s", path)
	return cfg, nil
}

// Parse decodes data over nn.DefaultConfig and validates the result.
// An empty document yields the defaults, which still need vocabulary sizes.
func Parse(data []byte) (nn.Config, error) {
	cfg := nn.DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nn.Config{}, errors.Wrapf(ErrParse, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nn.Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML, the inverse of Parse.
func Marshal(cfg nn.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return data, nil
}
