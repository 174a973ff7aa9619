package autodiff

import (
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/tensor"
)

// contextOf returns the context shared by the operands. Nil operands and
// operands from different contexts are validation errors; released operands
// are use-after-free errors.
func contextOf(op string, operands ...*Tensor) (*Context, error) {
	if len(operands) == 0 {
		return nil, tensor.ValidationErrorf("%s: no operands", op)
	}
	var ctx *Context
	for i, t := range operands {
		if t == nil {
			return nil, tensor.ValidationErrorf("%s: operand %d is nil", op, i)
		}
		if err := t.data.Check(); err != nil {
			return nil, tensor.UseAfterFreeErrorf("%s: operand %d (%s) was released", op, i, t)
		}
		if ctx == nil {
			ctx = t.ctx
		} else if t.ctx != ctx {
			return nil, tensor.ValidationErrorf("%s: operand %d belongs to another context", op, i)
		}
	}
	return ctx, nil
}

// result wraps the output of an operation. It is recorded only when the
// context is recording and some operand requires a gradient.
func (ctx *Context) result(data *tensor.RawTensor, kind Kind, name string, r rule, operands ...*Tensor) *Tensor {
	t := ctx.newLeaf(data, "", false)
	if !ctx.recording || !anyRequiresGrad(operands) {
		return t
	}
	t.record = &Record{
		kind:     kind,
		name:     name,
		operands: operands,
		rule:     r,
	}
	if ctx.tracker != nil {
		t.seq = ctx.tracker.register(t)
	}
	if klog.V(2).Enabled() {
		klog.Infof("record %s %s -> %v", kind, name, data.Shape())
	}
	return t
}

func anyRequiresGrad(ts []*Tensor) bool {
	for _, t := range ts {
		if t.RequiresGrad() {
			return true
		}
	}
	return false
}

func raws(ts []*Tensor) []*tensor.RawTensor {
	out := make([]*tensor.RawTensor, len(ts))
	for i, t := range ts {
		out[i] = t.data
	}
	return out
}

func dtypes(ts []*Tensor) []tensor.DataType {
	out := make([]tensor.DataType, len(ts))
	for i, t := range ts {
		out[i] = t.DType()
	}
	return out
}
