// Package ops is the operation registry: pure, stateless forward and
// derivative rules for the elementwise and reduction operations the graph
// records.
//
// Rules are grouped by arity:
//   - Unary: elementwise, one operand and an optional scalar parameter
//     (d(exp(x))/dx = exp(x), d(x^p)/dx = p*x^(p-1), ...)
//   - Binary: elementwise, two broadcast operands
//     (d(a*b)/da = b, d(a*b)/db = a, ...)
//   - Reduce: axis collapsing (sum, mean, max)
//
// Rules never allocate tensors; the graph applies them through the backend's
// Map and Zip kernels. Contractions need no table: their backward rule is
// derived from the subscripts themselves (see tensor.Subscripts.Backward).
package ops

// Reduce identifies an axis-collapsing rule.
type Reduce int

// Reductions.
const (
	Sum Reduce = iota
	Mean
	Max
)

// String returns the rule name.
func (r Reduce) String() string {
	switch r {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// Routed reports whether the backward rule sends the gradient only to the
// selected element instead of spreading it over the collapsed axes.
func (r Reduce) Routed() bool {
	return r == Max
}
