package ops

import (
	"math"
)

// Unary identifies an elementwise one-operand rule.
type Unary int

// Unary rules.
const (
	Neg Unary = iota
	Exp
	Log
	Sqrt
	Pow
	Sin
	Cos
	Tanh
	Sigmoid
	GeLU
	Abs
	AddScalar
	MulScalar
	MaxScalar
	numUnary
)

// GeLU tanh approximation constants: sqrt(2/pi) and the cubic coefficient.
const (
	geluScale = 0.7978845608028654
	geluCubic = 0.044715
)

// UnaryRule is the forward function and analytic derivative of an
// elementwise operation. p is the rule's scalar parameter (the exponent for
// pow, the constant for the scalar rules) and is ignored by the others.
type UnaryRule struct {
	Name string

	// InDomain reports whether x is a valid input. Nil means every input is.
	InDomain func(x, p float64) bool

	Forward func(x, p float64) float64

	// Deriv returns dy/dx at input x with forward output y.
	Deriv func(x, y, p float64) float64
}

var unaryRules = [numUnary]UnaryRule{
	Neg: {
		Name:    "neg",
		Forward: func(x, _ float64) float64 { return -x },
		Deriv:   func(_, _, _ float64) float64 { return -1 },
	},
	Exp: {
		Name:    "exp",
		Forward: func(x, _ float64) float64 { return math.Exp(x) },
		Deriv:   func(_, y, _ float64) float64 { return y },
	},
	Log: {
		Name:     "log",
		InDomain: func(x, _ float64) bool { return x >= 0 },
		// log(0) = -Inf, and its derivative 1/0 = +Inf.
		Forward: func(x, _ float64) float64 { return math.Log(x) },
		Deriv:   func(x, _, _ float64) float64 { return 1 / x },
	},
	Sqrt: {
		Name:     "sqrt",
		InDomain: func(x, _ float64) bool { return x >= 0 },
		Forward:  func(x, _ float64) float64 { return math.Sqrt(x) },
		// +Inf at 0.
		Deriv: func(_, y, _ float64) float64 { return 0.5 / y },
	},
	Pow: {
		Name: "pow",
		InDomain: func(x, p float64) bool {
			return x >= 0 || p == math.Trunc(p)
		},
		Forward: func(x, p float64) float64 { return math.Pow(x, p) },
		Deriv: func(x, _, p float64) float64 {
			if p == 0 {
				return 0
			}
			return p * math.Pow(x, p-1)
		},
	},
	Sin: {
		Name:    "sin",
		Forward: func(x, _ float64) float64 { return math.Sin(x) },
		Deriv:   func(x, _, _ float64) float64 { return math.Cos(x) },
	},
	Cos: {
		Name:    "cos",
		Forward: func(x, _ float64) float64 { return math.Cos(x) },
		Deriv:   func(x, _, _ float64) float64 { return -math.Sin(x) },
	},
	Tanh: {
		Name:    "tanh",
		Forward: func(x, _ float64) float64 { return math.Tanh(x) },
		Deriv:   func(_, y, _ float64) float64 { return 1 - y*y },
	},
	Sigmoid: {
		Name:    "sigmoid",
		Forward: func(x, _ float64) float64 { return sigmoid(x) },
		Deriv:   func(_, y, _ float64) float64 { return y * (1 - y) },
	},
	GeLU: {
		Name: "gelu",
		Forward: func(x, _ float64) float64 {
			return 0.5 * x * (1 + math.Tanh(geluScale*(x+geluCubic*x*x*x)))
		},
		Deriv: func(x, _, _ float64) float64 {
			t := math.Tanh(geluScale * (x + geluCubic*x*x*x))
			return 0.5*(1+t) + 0.5*x*(1-t*t)*geluScale*(1+3*geluCubic*x*x)
		},
	},
	Abs: {
		Name:    "abs",
		Forward: func(x, _ float64) float64 { return math.Abs(x) },
		// Subgradient 0 at 0.
		Deriv: func(x, _, _ float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			default:
				return 0
			}
		},
	},
	AddScalar: {
		Name:    "add_scalar",
		Forward: func(x, p float64) float64 { return x + p },
		Deriv:   func(_, _, _ float64) float64 { return 1 },
	},
	MulScalar: {
		Name:    "mul_scalar",
		Forward: func(x, p float64) float64 { return x * p },
		Deriv:   func(_, _, p float64) float64 { return p },
	},
	MaxScalar: {
		Name:    "max_scalar",
		Forward: func(x, p float64) float64 { return math.Max(x, p) },
		// The constant wins ties, so relu'(0) = 0.
		Deriv: func(x, _, p float64) float64 {
			if x > p {
				return 1
			}
			return 0
		},
	},
}

// Rule returns the registered rule for u. It panics on an unknown id.
func (u Unary) Rule() *UnaryRule {
	return &unaryRules[u]
}

// String returns the rule name.
func (u Unary) String() string {
	if u < 0 || u >= numUnary {
		return "unknown"
	}
	return unaryRules[u].Name
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
