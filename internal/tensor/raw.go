package tensor

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// tensorBuffer is a reference-counted buffer shared by a tensor and its
// aliases (reshapes). Data is never mutated by forward kernels, so sharing is
// safe; the count only decides when the storage can be dropped.
type tensorBuffer struct {
	data     []float64
	refCount atomic.Int32
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]float64, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for aliases).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and drops the storage when it
// reaches 0. It reports whether the storage was dropped.
func (tb *tensorBuffer) release() bool {
	if tb.refCount.Add(-1) == 0 {
		tb.data = nil
		return true
	}
	return false
}

// RawTensor is the low-level dense tensor: a row-major buffer, its shape and
// its data type. It carries no graph information.
type RawTensor struct {
	buffer   *tensorBuffer
	shape    Shape
	dtype    DataType
	released bool
}

// NewRaw creates a zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !dtype.Valid() {
		return nil, ValidationErrorf("unsupported data type %d", int(dtype))
	}
	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements()),
		shape:  shape.Clone(),
		dtype:  dtype,
	}, nil
}

// FromSlice copies data into a new RawTensor, rounding values to dtype.
func FromSlice(data []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, ShapeErrorf("data has %d elements, shape %v needs %d", len(data), shape, shape.NumElements())
	}
	copy(r.buffer.data, data)
	dtype.RoundSlice(r.buffer.data)
	return r, nil
}

// Full creates a RawTensor with every element set to value.
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	v := dtype.Round(value)
	for i := range r.buffer.data {
		r.buffer.data[i] = v
	}
	return r, nil
}

// Scalar creates a rank-0 RawTensor.
func Scalar(value float64, dtype DataType) *RawTensor {
	r, err := Full(Shape{}, dtype, value)
	if err != nil {
		panic(fmt.Sprintf("scalar: %v", err))
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the memory size in bytes the data type accounts for.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Check returns ErrUseAfterFree when this handle was released.
func (r *RawTensor) Check() error {
	if r == nil {
		return UseAfterFreeErrorf("nil tensor buffer")
	}
	if r.released || r.buffer.data == nil {
		return UseAfterFreeErrorf("tensor buffer %v was released", r.shape)
	}
	return nil
}

// Released reports whether Release was called on this handle.
func (r *RawTensor) Released() bool {
	return r.released
}

// Data returns the live backing slice (nil once released).
// Writes must keep values representable in the tensor's data type.
func (r *RawTensor) Data() []float64 {
	if r.released {
		return nil
	}
	return r.buffer.data
}

// Values returns a copy of the data.
func (r *RawTensor) Values() []float64 {
	return append([]float64(nil), r.Data()...)
}

// At returns the element at the given coordinates.
func (r *RawTensor) At(idx ...int) (float64, error) {
	if err := r.Check(); err != nil {
		return 0, err
	}
	if len(idx) != len(r.shape) {
		return 0, ShapeErrorf("At: %d indices for rank %d", len(idx), len(r.shape))
	}
	strides := r.shape.ComputeStrides()
	flat := 0
	for i, x := range idx {
		if x < 0 || x >= r.shape[i] {
			return 0, ShapeErrorf("At: index %d out of range for axis %d of %v", x, i, r.shape)
		}
		flat += x * strides[i]
	}
	return r.buffer.data[flat], nil
}

// Copy returns a deep copy with its own buffer.
func (r *RawTensor) Copy() (*RawTensor, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	return FromSlice(r.buffer.data, r.shape, r.dtype)
}

// AsType returns a copy converted (and rounded) to dtype.
func (r *RawTensor) AsType(dtype DataType) (*RawTensor, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	return FromSlice(r.buffer.data, r.shape, dtype)
}

// Reshape returns an alias with a new shape sharing this buffer.
// The element count must not change.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != r.NumElements() {
		return nil, ShapeErrorf("cannot reshape %v (%d elements) to %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements())
	}
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  shape.Clone(),
		dtype:  r.dtype,
	}, nil
}

// Release drops this handle's reference to the buffer. The storage itself is
// dropped once every alias has been released. It reports whether the storage
// was dropped; releasing twice is a no-op.
func (r *RawTensor) Release() bool {
	if r.released {
		return false
	}
	r.released = true
	return r.buffer.release()
}

// IsUnique returns true if this handle is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.refCount.Load() == 1
}

// RefCount returns the number of live handles sharing the buffer.
func (r *RawTensor) RefCount() int {
	return int(r.buffer.refCount.Load())
}

// SharesBuffer reports whether r and other alias the same storage.
func (r *RawTensor) SharesBuffer(other *RawTensor) bool {
	return other != nil && r.buffer == other.buffer
}

// String renders a short summary, with values for small tensors.
func (r *RawTensor) String() string {
	if r.released {
		return fmt.Sprintf("RawTensor(%s%v, released)", r.dtype, r.shape)
	}
	if r.NumElements() > 16 {
		return fmt.Sprintf("RawTensor(%s%v)", r.dtype, r.shape)
	}
	vals := make([]string, len(r.buffer.data))
	for i, v := range r.buffer.data {
		vals[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("RawTensor(%s%v [%s])", r.dtype, r.shape, strings.Join(vals, " "))
}
