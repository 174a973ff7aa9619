// Package autodiff implements reverse-mode automatic differentiation over a
// dynamically built computation graph.
//
// Every operation on Tensors computes its forward value immediately. When
// the owning Context is recording and an operand requires a gradient, the
// result also carries a Record: the operation kind, its operands and what
// the backward rule needs. Backward walks these records from a root back to
// the leaves and accumulates gradients into trainable leaves.
//
// Example:
//
//	ctx := autodiff.NewContext()
//	w, _ := ctx.Parameter([]float64{0.5, -1}, tensor.Shape{2})
//	x, _ := ctx.FromSlice([]float64{3, 4}, tensor.Shape{2})
//	y, _ := autodiff.Mul(w, x)
//	loss, _ := autodiff.Sum(y)
//	_ = loss.Backward()
//	fmt.Println(w.GradData()) // [3 4]
//
// A Context and every tensor it creates are confined to one goroutine.
package autodiff

import (
	"github.com/born-ml/autograd/internal/backend/cpu"
	"github.com/born-ml/autograd/internal/tensor"
)

// Config holds the settings of a Context.
type Config struct {
	// DType is the data type of tensors created without an explicit one.
	DType tensor.DataType

	// Recording is the initial state of the recording flag.
	Recording bool

	// TrackLiveness registers every recorded tensor in the liveness Tracker.
	TrackLiveness bool

	// Backend runs the numeric kernels.
	Backend tensor.Backend
}

// DefaultConfig returns float32 tensors, recording enabled, liveness
// tracking enabled and the CPU backend.
func DefaultConfig() Config {
	return Config{
		DType:         tensor.Float32,
		Recording:     true,
		TrackLiveness: true,
		Backend:       cpu.New(),
	}
}

// Option configures a Context.
type Option func(*Config)

// WithDType sets the default data type.
func WithDType(dtype tensor.DataType) Option {
	return func(c *Config) {
		c.DType = dtype
	}
}

// WithRecordingEnabled sets the initial recording state.
func WithRecordingEnabled(enabled bool) Option {
	return func(c *Config) {
		c.Recording = enabled
	}
}

// WithLivenessTracking enables or disables the liveness Tracker.
func WithLivenessTracking(enabled bool) Option {
	return func(c *Config) {
		c.TrackLiveness = enabled
	}
}

// WithBackend sets the kernel backend.
func WithBackend(backend tensor.Backend) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// Context is the execution context of a graph: the recording switch, the
// backend and the liveness tracker. Tensors remember the Context that
// created them, and operations refuse to mix tensors of different contexts.
type Context struct {
	config    Config
	recording bool
	tracker   *Tracker // nil when liveness tracking is disabled
}

// NewContext creates a Context from DefaultConfig and the given options.
func NewContext(opts ...Option) *Context {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Backend == nil {
		config.Backend = cpu.New()
	}
	if !config.DType.Valid() {
		config.DType = tensor.Float32
	}
	ctx := &Context{
		config:    config,
		recording: config.Recording,
	}
	if config.TrackLiveness {
		ctx.tracker = newTracker()
	}
	return ctx
}

// Config returns the configuration the context was created with.
func (ctx *Context) Config() Config {
	return ctx.config
}

// Backend returns the kernel backend.
func (ctx *Context) Backend() tensor.Backend {
	return ctx.config.Backend
}

// DType returns the default data type.
func (ctx *Context) DType() tensor.DataType {
	return ctx.config.DType
}

// IsRecording reports whether operations currently record graph edges.
func (ctx *Context) IsRecording() bool {
	return ctx.recording
}

// WithRecording sets the recording flag and returns a function restoring the
// value it had before the call. Scopes nest: each restore puts back exactly
// the value its own call replaced. Calling restore more than once is a no-op.
//
//	restore := ctx.WithRecording(false)
//	defer restore()
func (ctx *Context) WithRecording(enabled bool) (restore func()) {
	previous := ctx.recording
	ctx.recording = enabled
	restored := false
	return func() {
		if restored {
			return
		}
		restored = true
		ctx.recording = previous
	}
}

// NoGrad runs fn with recording disabled (inference mode). The previous
// state is restored when fn returns, fails or panics.
func (ctx *Context) NoGrad(fn func() error) error {
	restore := ctx.WithRecording(false)
	defer restore()
	return fn()
}

// EnableGrad runs fn with recording enabled, restoring the previous state
// when fn returns, fails or panics.
func (ctx *Context) EnableGrad(fn func() error) error {
	restore := ctx.WithRecording(true)
	defer restore()
	return fn()
}

// Tracker returns the liveness tracker, or nil when tracking is disabled.
func (ctx *Context) Tracker() *Tracker {
	return ctx.tracker
}

// LiveNodes returns the recorded tensors still alive, in creation order.
func (ctx *Context) LiveNodes() []*Tensor {
	if ctx.tracker == nil {
		return nil
	}
	return ctx.tracker.Live()
}

// Prune detaches every live recorded tensor, turning each into a leaf so the
// graph behind it can be collected. It returns the number of detached nodes.
func (ctx *Context) Prune() int {
	if ctx.tracker == nil {
		return 0
	}
	return ctx.tracker.DetachAll()
}

// Stats summarizes the live recorded tensors.
func (ctx *Context) Stats() Stats {
	if ctx.tracker == nil {
		return Stats{}
	}
	return ctx.tracker.Stats()
}

// ZeroGrad clears the gradient of every given tensor.
func (ctx *Context) ZeroGrad(ts ...*Tensor) {
	for _, t := range ts {
		t.ZeroGrad()
	}
}
