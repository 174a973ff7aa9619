package ops

// Binary identifies an elementwise two-operand rule.
type Binary int

// Binary rules.
const (
	Add Binary = iota
	Sub
	Mul
	Div
	Maximum
	Minimum
	numBinary
)

// BinaryRule is the forward function and the partial derivatives of an
// elementwise two-operand operation, evaluated at the (broadcast) operand
// values a and b.
type BinaryRule struct {
	Name    string
	Forward func(a, b float64) float64
	DA      func(a, b float64) float64
	DB      func(a, b float64) float64
}

var binaryRules = [numBinary]BinaryRule{
	Add: {
		Name:    "add",
		Forward: func(a, b float64) float64 { return a + b },
		DA:      func(_, _ float64) float64 { return 1 },
		DB:      func(_, _ float64) float64 { return 1 },
	},
	Sub: {
		Name:    "sub",
		Forward: func(a, b float64) float64 { return a - b },
		DA:      func(_, _ float64) float64 { return 1 },
		DB:      func(_, _ float64) float64 { return -1 },
	},
	Mul: {
		Name:    "mul",
		Forward: func(a, b float64) float64 { return a * b },
		DA:      func(_, b float64) float64 { return b },
		DB:      func(a, _ float64) float64 { return a },
	},
	Div: {
		// Division by zero yields the IEEE infinities and NaN.
		Name:    "div",
		Forward: func(a, b float64) float64 { return a / b },
		DA:      func(_, b float64) float64 { return 1 / b },
		DB:      func(a, b float64) float64 { return -a / (b * b) },
	},
	// Ties route the gradient to the first operand.
	Maximum: {
		Name: "maximum",
		Forward: func(a, b float64) float64 {
			if a >= b {
				return a
			}
			return b
		},
		DA: func(a, b float64) float64 { return indicator(a >= b) },
		DB: func(a, b float64) float64 { return indicator(a < b) },
	},
	Minimum: {
		Name: "minimum",
		Forward: func(a, b float64) float64 {
			if a <= b {
				return a
			}
			return b
		},
		DA: func(a, b float64) float64 { return indicator(a <= b) },
		DB: func(a, b float64) float64 { return indicator(a > b) },
	},
}

// Rule returns the registered rule for b. It panics on an unknown id.
func (b Binary) Rule() *BinaryRule {
	return &binaryRules[b]
}

// String returns the rule name.
func (b Binary) String() string {
	if b < 0 || b >= numBinary {
		return "unknown"
	}
	return binaryRules[b].Name
}

func indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}
