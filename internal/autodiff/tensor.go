package autodiff

import (
	"fmt"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/tensor"
)

// Tensor is a node of the computation graph: a dense value plus, for
// operation outputs recorded by the Context, the Record that produced it.
//
// Only trainable leaves own a gradient buffer. It is created on the first
// accumulation, always has the data's shape, and is cleared by ZeroGrad.
type Tensor struct {
	id        uuid.UUID
	name      string
	ctx       *Context
	data      *tensor.RawTensor
	grad      *tensor.RawTensor
	trainable bool
	record    *Record
	seq       uint64 // tracker key, 0 when not tracked
}

// ID returns the tensor's unique identifier.
func (t *Tensor) ID() uuid.UUID {
	return t.id
}

// Name returns the optional name given at construction.
func (t *Tensor) Name() string {
	return t.name
}

// Context returns the context that created t.
func (t *Tensor) Context() *Context {
	return t.ctx
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() tensor.Shape {
	return t.data.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor) DType() tensor.DataType {
	return t.data.DType()
}

// NumElements returns the number of elements.
func (t *Tensor) NumElements() int {
	return t.data.NumElements()
}

// Raw returns the underlying buffer.
func (t *Tensor) Raw() *tensor.RawTensor {
	return t.data
}

// Data returns the live data slice, nil once released. Optimizers may write
// parameters through it; SetData does the same with rounding.
func (t *Tensor) Data() []float64 {
	return t.data.Data()
}

// Value returns a copy of the data.
func (t *Tensor) Value() []float64 {
	return t.data.Values()
}

// Item returns the single value of a one-element tensor.
func (t *Tensor) Item() (float64, error) {
	if err := t.data.Check(); err != nil {
		return 0, err
	}
	if t.NumElements() != 1 {
		return 0, tensor.ShapeErrorf("item of a tensor with shape %v", t.Shape())
	}
	return t.data.Data()[0], nil
}

// SetData overwrites the values in place, rounded to the tensor's type.
// Every alias of the buffer observes the change.
func (t *Tensor) SetData(values []float64) error {
	if err := t.data.Check(); err != nil {
		return err
	}
	dst := t.data.Data()
	if len(values) != len(dst) {
		return tensor.ShapeErrorf("set data: %d values for shape %v", len(values), t.Shape())
	}
	for i, v := range values {
		dst[i] = t.DType().Round(v)
	}
	return nil
}

// Grad returns the accumulated gradient, or nil when none was accumulated.
func (t *Tensor) Grad() *tensor.RawTensor {
	return t.grad
}

// GradData returns the accumulated gradient values, or nil.
func (t *Tensor) GradData() []float64 {
	if t.grad == nil {
		return nil
	}
	return t.grad.Data()
}

// Trainable reports whether t is a leaf accumulating gradients.
func (t *Tensor) Trainable() bool {
	return t.trainable
}

// SetTrainable marks a leaf as trainable or not. Clearing the flag drops any
// accumulated gradient. Only leaves can be trainable.
func (t *Tensor) SetTrainable(trainable bool) error {
	if t.record != nil {
		return tensor.ValidationErrorf("set trainable: %s is the output of %s, not a leaf", t, t.record.name)
	}
	t.trainable = trainable
	if !trainable {
		t.grad = nil
	}
	return nil
}

// RequiresGrad reports whether gradients flow into t: it is trainable or it
// was recorded.
func (t *Tensor) RequiresGrad() bool {
	return t.trainable || t.record != nil
}

// IsLeaf reports whether t has no Record.
func (t *Tensor) IsLeaf() bool {
	return t.record == nil
}

// Record returns the operation record that produced t, or nil for leaves.
func (t *Tensor) Record() *Record {
	return t.record
}

// ZeroGrad clears the gradient. Calling it again is a no-op.
func (t *Tensor) ZeroGrad() {
	t.grad = nil
}

// Detach severs t's Record in place, turning it into a non-trainable leaf.
// Its value is kept; the graph behind it is no longer reachable from t.
func (t *Tensor) Detach() {
	if t.record == nil {
		return
	}
	klog.V(2).Infof("detach %s (%s)", t, t.record.name)
	t.record = nil
	if t.ctx.tracker != nil {
		t.ctx.tracker.forget(t.seq)
	}
	t.seq = 0
}

// Detached returns a new non-trainable leaf aliasing t's data.
func (t *Tensor) Detached() (*Tensor, error) {
	alias, err := t.data.Reshape(t.Shape())
	if err != nil {
		return nil, err
	}
	return t.ctx.newLeaf(alias, t.name, false), nil
}

// Release drops t's reference to its data buffer. Any later operation on t
// fails with ErrUseAfterFree; aliases created by Reshape or Detached stay
// usable until they are released too. It reports whether the storage itself
// was dropped.
func (t *Tensor) Release() bool {
	if !t.data.Released() && !t.data.IsUnique() {
		klog.V(2).Infof("release %s: buffer still backs %d aliases", t, t.data.RefCount()-1)
	}
	return t.data.Release()
}

// String renders a short summary.
func (t *Tensor) String() string {
	name := t.name
	if name == "" {
		name = t.id.String()[:8]
	}
	kind := "leaf"
	switch {
	case t.record != nil:
		kind = t.record.name
	case t.trainable:
		kind = "param"
	}
	return fmt.Sprintf("Tensor(%s %s %s%v)", name, kind, t.DType(), t.Shape())
}

// newLeaf wraps data as a leaf tensor owned by ctx.
func (ctx *Context) newLeaf(data *tensor.RawTensor, name string, trainable bool) *Tensor {
	return &Tensor{
		id:        uuid.New(),
		name:      name,
		ctx:       ctx,
		data:      data,
		trainable: trainable,
	}
}

// accumulateGrad adds g into t's gradient buffer, creating it on first use.
func (t *Tensor) accumulateGrad(g *tensor.RawTensor) error {
	if !g.Shape().Equal(t.Shape()) {
		return tensor.ShapeErrorf("gradient %v for %s", g.Shape(), t)
	}
	if t.grad == nil {
		grad, err := g.AsType(t.DType())
		if err != nil {
			return err
		}
		t.grad = grad
		return nil
	}
	dst, src := t.grad.Data(), g.Data()
	dtype := t.DType()
	for i := range dst {
		dst[i] = dtype.Round(dst[i] + src[i])
	}
	return nil
}
