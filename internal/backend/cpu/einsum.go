package cpu

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/autograd/internal/parallel"
	"github.com/born-ml/autograd/internal/tensor"
)

// Einsum evaluates a contraction.
//
// Two-operand contractions without diagonals or lone indices are rewritten
// as a batched matrix multiplication (lhs permuted to [batch, free, contract],
// rhs to [batch, contract, free]) and run through gonum; everything else
// goes through the generic loop kernel.
func (cpu *CPUBackend) Einsum(spec *tensor.Subscripts, sizes map[byte]int, dtype tensor.DataType,
	operands ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := tensor.CheckAll(operands...); err != nil {
		return nil, err
	}
	if len(operands) != len(spec.Inputs) {
		return nil, tensor.ValidationErrorf("einsum %s: %d operands given", spec, len(operands))
	}
	for k, term := range spec.Inputs {
		shape := operands[k].Shape()
		if len(term) != len(shape) {
			return nil, tensor.ValidationErrorf("einsum %s: operand %d has %d indices but rank %d", spec, k, len(term), len(shape))
		}
		for j := 0; j < len(term); j++ {
			if sizes[term[j]] != shape[j] {
				return nil, tensor.ShapeErrorf("einsum %s: index %q has size %d, operand %d has %d",
					spec, string(term[j]), sizes[term[j]], k, shape[j])
			}
		}
	}
	for j := 0; j < len(spec.Output); j++ {
		if sizes[spec.Output[j]] <= 0 {
			return nil, tensor.ValidationErrorf("einsum %s: no size for output index %q", spec, string(spec.Output[j]))
		}
	}

	if cpu.useGEMM {
		if plan, ok := planGEMM(spec); ok {
			return cpu.einsumGEMM(plan, spec, sizes, dtype, operands[0], operands[1])
		}
	}
	return einsumLoop(spec, sizes, dtype, operands)
}

// loopLetters returns every distinct letter of spec: output letters first,
// in order, then summed letters in order of appearance.
func loopLetters(spec *tensor.Subscripts) []byte {
	seen := make(map[byte]bool)
	var letters []byte
	add := func(term string) {
		for j := 0; j < len(term); j++ {
			if !seen[term[j]] {
				seen[term[j]] = true
				letters = append(letters, term[j])
			}
		}
	}
	add(spec.Output)
	for _, term := range spec.Inputs {
		add(term)
	}
	return letters
}

// letterStrides returns, for each loop letter, how far the flat index of a
// term moves when that letter advances by one. Repeated letters add up,
// which walks the diagonal.
func letterStrides(term string, letters []byte, sizes map[byte]int) []int {
	shape := make(tensor.Shape, len(term))
	for j := 0; j < len(term); j++ {
		shape[j] = sizes[term[j]]
	}
	strides := shape.ComputeStrides()
	per := make([]int, len(letters))
	for j := 0; j < len(term); j++ {
		per[strings.IndexByte(string(letters), term[j])] += strides[j]
	}
	return per
}

// einsumLoop is the generic kernel: it walks every assignment of the loop
// letters and accumulates the product of the addressed operand elements into
// the addressed output element.
func einsumLoop(spec *tensor.Subscripts, sizes map[byte]int, dtype tensor.DataType,
	operands []*tensor.RawTensor) (*tensor.RawTensor, error) {
	letters := loopLetters(spec)
	dims := make([]int, len(letters))
	total := 1
	for l, c := range letters {
		dims[l] = sizes[c]
		total *= dims[l]
	}

	result, err := tensor.NewRaw(spec.OutputShape(sizes), dtype)
	if err != nil {
		return nil, err
	}
	dst := result.Data()

	data := make([][]float64, len(operands))
	opStrides := make([][]int, len(operands))
	for k, op := range operands {
		data[k] = op.Data()
		opStrides[k] = letterStrides(spec.Inputs[k], letters, sizes)
	}
	outStrides := letterStrides(spec.Output, letters, sizes)

	idx := make([]int, len(letters))
	offs := make([]int, len(operands))
	outOff := 0
	for n := 0; n < total; n++ {
		prod := 1.0
		for k := range operands {
			prod *= data[k][offs[k]]
		}
		dst[outOff] += prod

		// Odometer step over the loop letters, last letter fastest.
		for l := len(letters) - 1; l >= 0; l-- {
			idx[l]++
			for k := range offs {
				offs[k] += opStrides[k][l]
			}
			outOff += outStrides[l]
			if idx[l] < dims[l] {
				break
			}
			for k := range offs {
				offs[k] -= opStrides[k][l] * dims[l]
			}
			outOff -= outStrides[l] * dims[l]
			idx[l] = 0
		}
	}
	dtype.RoundSlice(dst)
	return result, nil
}

// gemmParallelWork is the per-batch multiply-add count above which GEMM
// batches run on separate goroutines.
const gemmParallelWork = 1 << 12

// gemmPlan classifies the letters of a two-operand contraction.
type gemmPlan struct {
	batch    string // in both operands and the output
	freeA    string // only in lhs, kept
	contract string // in both operands, summed
	freeB    string // only in rhs, kept
}

func planGEMM(spec *tensor.Subscripts) (*gemmPlan, bool) {
	if len(spec.Inputs) != 2 || spec.HasRepeats() {
		return nil, false
	}
	a, b, out := spec.Inputs[0], spec.Inputs[1], spec.Output
	for j := 0; j < len(out); j++ {
		if strings.IndexByte(a, out[j]) < 0 && strings.IndexByte(b, out[j]) < 0 {
			return nil, false
		}
	}
	plan := &gemmPlan{}
	for j := 0; j < len(a); j++ {
		c := a[j]
		inB, inOut := strings.IndexByte(b, c) >= 0, strings.IndexByte(out, c) >= 0
		switch {
		case inB && inOut:
			plan.batch += string(c)
		case inB:
			plan.contract += string(c)
		case inOut:
			plan.freeA += string(c)
		default:
			return nil, false
		}
	}
	for j := 0; j < len(b); j++ {
		c := b[j]
		if strings.IndexByte(a, c) >= 0 {
			continue
		}
		if strings.IndexByte(out, c) < 0 {
			return nil, false
		}
		plan.freeB += string(c)
	}
	return plan, true
}

func axesOf(term, order string) []int {
	axes := make([]int, len(order))
	for i := 0; i < len(order); i++ {
		axes[i] = strings.IndexByte(term, order[i])
	}
	return axes
}

func extent(letters string, sizes map[byte]int) int {
	n := 1
	for j := 0; j < len(letters); j++ {
		n *= sizes[letters[j]]
	}
	return n
}

func (cpu *CPUBackend) einsumGEMM(plan *gemmPlan, spec *tensor.Subscripts, sizes map[byte]int,
	dtype tensor.DataType, lhs, rhs *tensor.RawTensor) (*tensor.RawTensor, error) {
	pa, err := cpu.Permute(lhs, axesOf(spec.Inputs[0], plan.batch+plan.freeA+plan.contract))
	if err != nil {
		return nil, err
	}
	pb, err := cpu.Permute(rhs, axesOf(spec.Inputs[1], plan.batch+plan.contract+plan.freeB))
	if err != nil {
		return nil, err
	}

	nb := extent(plan.batch, sizes)
	m := extent(plan.freeA, sizes)
	k := extent(plan.contract, sizes)
	n := extent(plan.freeB, sizes)

	aData, bData := pa.Data(), pb.Data()
	mid := make([]float64, nb*m*n)
	batches := cpu.parallel
	batches.MinChunkSize = 1
	if m*k*n < gemmParallelWork {
		batches.Enabled = false
	}
	parallel.ForRange(nb, func(start, end int) {
		for bi := start; bi < end; bi++ {
			am := mat.NewDense(m, k, aData[bi*m*k:(bi+1)*m*k])
			bm := mat.NewDense(k, n, bData[bi*k*n:(bi+1)*k*n])
			cm := mat.NewDense(m, n, mid[bi*m*n:(bi+1)*m*n])
			cm.Mul(am, bm)
		}
	}, batches)

	midLetters := plan.batch + plan.freeA + plan.freeB
	midShape := make(tensor.Shape, len(midLetters))
	for j := 0; j < len(midLetters); j++ {
		midShape[j] = sizes[midLetters[j]]
	}
	midRaw, err := tensor.FromSlice(mid, midShape, tensor.Float64)
	if err != nil {
		return nil, err
	}
	ordered, err := cpu.Permute(midRaw, axesOf(midLetters, spec.Output))
	if err != nil {
		return nil, err
	}
	return ordered.AsType(dtype)
}
