// Package cpu implements the tensor.Backend kernels in pure Go.
//
// Row-parallel kernels (matrix products) fan out over goroutines according
// to the backend's parallel.Config.
package cpu

import (
	"sync/atomic"

	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/internal/tensor"
)

var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    atomic.Pointer[parallel.Config]
}

// New creates a new CPU backend using parallel.DefaultConfig.
func New() *CPUBackend {
	cpu := &CPUBackend{device: tensor.CPU}
	cpu.SetParallelConfig(parallel.DefaultConfig())
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// SetParallelConfig replaces the goroutine fan-out used by MatMul and
// BatchMatMul. Results do not depend on it.
func (cpu *CPUBackend) SetParallelConfig(cfg parallel.Config) {
	cpu.par.Store(&cfg)
}

// ParallelConfig returns the current fan-out configuration.
func (cpu *CPUBackend) ParallelConfig() parallel.Config {
	return *cpu.par.Load()
}
