// Package main provides the seq2seq command-line tool.
//
// Usage:
//
//	seq2seq [flags] version
//	seq2seq [flags] summary
//	seq2seq [flags] bench
//	seq2seq [flags] attend
//	seq2seq [flags] grad
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/seq2seq/internal/autodiff"
	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/config"
	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/internal/tensor"
)

const version = "v0.1.0-dev"

const padID = int32(0)

var (
	flagConfig   = flag.String("config", "", "YAML model config. If empty a small demo model is used.")
	flagSeed     = flag.Int64("seed", 0, "Overrides the config seed when non-zero.")
	flagTraining = flag.Bool("training", false, "Run forward passes with dropout enabled.")
	flagBatch    = flag.Int("batch", 8, "Batch size for bench, attend and grad.")
	flagSeqLen   = flag.Int("seq_len", 32, "Sequence length for bench, attend and grad, capped by the config.")
	flagSteps    = flag.Int("steps", 20, "Number of encode/decode/project passes for bench.")
	flagHead     = flag.Int("head", 0, "Attention head printed by attend.")
	flagWorkers  = flag.Int("workers", 0, "Goroutines for matrix kernels: 0 uses every CPU, 1 runs sequentially.")
)

type cpuBackend = *cpu.CPUBackend

type gradBackend = *autodiff.AutodiffBackend[cpuBackend]

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "version" {
		fmt.Printf("seq2seq %s\n", version)
		return
	}

	var run func(cfg nn.Config, backend cpuBackend) error
	switch cmd {
	case "summary":
		run = withModel(summary[cpuBackend])
	case "bench":
		run = withModel(bench[cpuBackend])
	case "attend":
		run = withModel(attend[cpuBackend])
	case "grad":
		run = func(cfg nn.Config, backend cpuBackend) error {
			return withModel(grad)(cfg, autodiff.New(backend))
		}
	default:
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		klog.Fatalf("Failed to load config: %+v", err)
	}
	if err := run(cfg, newBackend(*flagWorkers)); err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

// withModel builds the model on the given backend and runs cmd, converting
// panics into errors.
func withModel[B tensor.Backend](cmd func(model *nn.Transformer[B])) func(cfg nn.Config, backend B) error {
	return func(cfg nn.Config, backend B) error {
		model, err := nn.Build(cfg, backend)
		if err != nil {
			return errors.WithMessage(err, "failed to build model")
		}
		model.SetTraining(*flagTraining)
		return exceptions.TryCatch[error](func() { cmd(model) })
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "seq2seq %s - encoder-decoder Transformer\n\n", version)
	fmt.Fprintln(flag.CommandLine.Output(), "Usage: seq2seq [flags] <command>")
	fmt.Fprintln(flag.CommandLine.Output(), "")
	fmt.Fprintln(flag.CommandLine.Output(), "Commands:")
	fmt.Fprintln(flag.CommandLine.Output(), "  version    Show version")
	fmt.Fprintln(flag.CommandLine.Output(), "  summary    Print parameter counts per module")
	fmt.Fprintln(flag.CommandLine.Output(), "  bench      Time encode/decode/project passes on random tokens")
	fmt.Fprintln(flag.CommandLine.Output(), "  attend     Print first encoder layer attention for one head")
	fmt.Fprintln(flag.CommandLine.Output(), "  grad       Run one backward pass and print gradient norms per module")
	fmt.Fprintln(flag.CommandLine.Output(), "")
	fmt.Fprintln(flag.CommandLine.Output(), "Flags:")
	flag.PrintDefaults()
}

// newBackend creates the CPU backend with the requested kernel fan-out.
func newBackend(workers int) cpuBackend {
	backend := cpu.New()
	switch {
	case workers == 1:
		backend.SetParallelConfig(parallel.Sequential())
	case workers > 1:
		cfg := parallel.DefaultConfig()
		cfg.Enabled = true
		cfg.NumWorkers = workers
		backend.SetParallelConfig(cfg)
	}
	klog.V(1).Infof("cpu backend: %+v", backend.ParallelConfig())
	return backend
}

// demoConfig is small enough to run on a laptop in seconds.
func demoConfig() nn.Config {
	cfg := nn.DefaultConfig()
	cfg.SrcVocabSize = 1000
	cfg.TgtVocabSize = 1000
	cfg.DModel = 128
	cfg.Heads = 4
	cfg.DFF = 512
	cfg.Layers = 2
	cfg.SrcSeqLen = 64
	cfg.TgtSeqLen = 64
	return cfg
}

func loadConfig() (nn.Config, error) {
	cfg := demoConfig()
	if *flagConfig != "" {
		var err error
		if cfg, err = config.Load(*flagConfig); err != nil {
			return nn.Config{}, err
		}
	}
	if *flagSeed != 0 {
		cfg.Seed = *flagSeed
	}
	return cfg, cfg.Validate()
}

// groupKey groups a parameter name by its first two components.
func groupKey(name string) string {
	parts := strings.SplitN(name, ".", 3)
	key := parts[0]
	if len(parts) == 3 && parts[1] != "embedding" && parts[1] != "linear" {
		key += "." + parts[1]
	}
	return key
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// summary prints parameter counts grouped by the first two name components.
func summary[B tensor.Backend](model *nn.Transformer[B]) {
	fmt.Println(model)

	groups := make(map[string]int)
	for _, p := range model.Parameters() {
		groups[groupKey(p.Name())] += p.Tensor().NumElements()
	}
	for _, k := range sortedKeys(groups) {
		fmt.Printf("  %-24s %12s\n", k, humanize.Comma(int64(groups[k])))
	}
	total := model.NumParameters()
	fmt.Printf("  %-24s %12s (%s as float32)\n", "total", humanize.Comma(int64(total)),
		humanize.Bytes(uint64(total)*4))
}

// bench runs full encode/decode/project passes over random token batches.
func bench[B tensor.Backend](model *nn.Transformer[B]) {
	cfg := model.Config()
	backend := model.Backend()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Benchmark data only
	srcLen := min(*flagSeqLen, cfg.SrcSeqLen)
	tgtLen := min(*flagSeqLen, cfg.TgtSeqLen)

	bar := progressbar.NewOptions(*flagSteps,
		progressbar.OptionSetDescription("bench"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)

	var loss float32
	start := time.Now()
	for step := 0; step < *flagSteps; step++ {
		src := must.M1(randomTokens(rng, *flagBatch, srcLen, cfg.SrcVocabSize, backend))
		tgt := must.M1(randomTokens(rng, *flagBatch, tgtLen, cfg.TgtVocabSize, backend))
		srcMask := nn.PaddingMask(src, padID)

		enc := must.M1(model.Encode(src, srcMask))
		dec := must.M1(model.Decode(enc, srcMask, tgt, nn.DecoderMask(tgt, padID)))
		logProbs := must.M1(model.Project(dec))
		loss = must.M1(nn.NLLLoss(logProbs, tgt, padID)).Item()
		must.M(errors.WithMessage(bar.Add(1), "progress bar"))
	}
	must.M(errors.WithMessage(bar.Finish(), "progress bar"))
	fmt.Println()

	elapsed := time.Since(start)
	tokens := *flagSteps * *flagBatch * (srcLen + tgtLen)
	klog.V(1).Infof("bench: %d steps in %s", *flagSteps, elapsed)
	fmt.Printf("%d steps, batch %d, %s tokens in %s (%.0f tokens/s), last loss %.4f\n",
		*flagSteps, *flagBatch, humanize.Comma(int64(tokens)), elapsed.Round(time.Millisecond),
		float64(tokens)/elapsed.Seconds(), loss)
}

// attend prints the first encoder layer's attention weights for one head of
// the first sequence in a random batch.
func attend[B tensor.Backend](model *nn.Transformer[B]) {
	cfg := model.Config()
	if *flagHead < 0 || *flagHead >= cfg.Heads {
		panic(errors.Errorf("-head must be in [0, %d), got %d", cfg.Heads, *flagHead))
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Demo data only
	seqLen := min(*flagSeqLen, cfg.SrcSeqLen, 12)
	src := must.M1(randomTokens(rng, 1, seqLen, cfg.SrcVocabSize, model.Backend()))

	_, trace := must.M2(model.EncodeWithAttention(src, nn.PaddingMask(src, padID)))
	weights := trace[0].Self

	fmt.Printf("tokens: %v\n", src.Data())
	fmt.Printf("layer 0, head %d:\n", *flagHead)
	for i := 0; i < seqLen; i++ {
		row := make([]string, seqLen)
		for j := range row {
			row[j] = fmt.Sprintf("%.3f", weights.At(0, *flagHead, i, j))
		}
		fmt.Printf("  %s\n", strings.Join(row, " "))
	}
}

// grad runs one recorded forward pass on random tokens, backpropagates the
// loss and prints the L2 norm of the gradient per parameter group.
func grad(model *nn.Transformer[gradBackend]) {
	cfg := model.Config()
	backend := model.Backend()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Demo data only
	srcLen := min(*flagSeqLen, cfg.SrcSeqLen)
	tgtLen := min(*flagSeqLen, cfg.TgtSeqLen)

	src := must.M1(randomTokens(rng, *flagBatch, srcLen, cfg.SrcVocabSize, backend))
	tgt := must.M1(randomTokens(rng, *flagBatch, tgtLen, cfg.TgtVocabSize, backend))
	labels := must.M1(randomTokens(rng, *flagBatch, tgtLen, cfg.TgtVocabSize, backend))
	srcMask := nn.PaddingMask(src, padID)

	tape := backend.Tape()
	tape.StartRecording()
	enc := must.M1(model.Encode(src, srcMask))
	dec := must.M1(model.Decode(enc, srcMask, tgt, nn.DecoderMask(tgt, padID)))
	logProbs := must.M1(model.Project(dec))
	loss := must.M1(nn.NLLLoss(logProbs, labels, padID))
	tape.StopRecording()

	start := time.Now()
	grads := autodiff.Backward(loss, backend)
	params := model.Parameters()
	reached := nn.CollectGradients(params, grads, backend)
	klog.V(1).Infof("backward over %d ops in %s", tape.NumOps(), time.Since(start))
	tape.Clear()

	sumSquares := make(map[string]float64)
	for _, p := range params {
		if p.Grad() == nil {
			continue
		}
		for _, v := range p.Grad().Data() {
			sumSquares[groupKey(p.Name())] += float64(v) * float64(v)
		}
	}

	fmt.Printf("loss %.4f, %d/%d parameter tensors received gradients\n", loss.Item(), reached, len(params))
	for _, k := range sortedKeys(sumSquares) {
		fmt.Printf("  %-24s %12.6f\n", k, math.Sqrt(sumSquares[k]))
	}
}

// randomTokens draws ids in [1, vocab) and pads the tail of every other row.
// Id 0 is padding, so vocab must be at least 2.
func randomTokens[B tensor.Backend](rng *rand.Rand, batch, seqLen, vocab int, backend B) (*tensor.Tensor[int32, B], error) {
	if vocab < 2 {
		return nil, errors.Errorf("random tokens need a vocabulary of at least 2 ids (id %d is padding), got %d",
			padID, vocab)
	}
	rows := make([][]int32, batch)
	for b := range rows {
		rows[b] = make([]int32, seqLen)
		valid := seqLen
		if b%2 == 1 {
			valid = 1 + rng.Intn(seqLen)
		}
		for s := 0; s < valid; s++ {
			rows[b][s] = int32(1 + rng.Intn(vocab-1))
		}
	}
	return tensor.FromRows(rows, backend)
}
