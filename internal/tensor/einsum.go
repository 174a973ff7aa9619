package tensor

import (
	"sort"
	"strings"
)

// Subscripts is a parsed contraction specification such as "ij,jk->ik".
//
// Each input term names the axes of one operand with one letter per axis.
// Letters shared between terms are aligned; letters missing from the output
// are summed over. A letter repeated inside one term selects the diagonal.
//
// Subscripts built by Backward may repeat a letter in Output (the result is
// written on the diagonal) or use output letters no input carries (the
// result is broadcast along them); ParseSubscripts never produces those.
type Subscripts struct {
	Inputs []string
	Output string
}

// ParseSubscripts parses and validates spec for numOperands operands.
//
// Both the explicit form "ij,jk->ik" and the implicit form "ij,jk" are
// accepted. In the implicit form the output holds the letters that appear
// exactly once across the inputs, in alphabetical order. Spaces are ignored.
func ParseSubscripts(spec string, numOperands int) (*Subscripts, error) {
	clean := strings.ReplaceAll(spec, " ", "")
	parts := strings.Split(clean, "->")
	if len(parts) > 2 {
		return nil, ValidationErrorf("einsum %q: more than one \"->\"", spec)
	}
	inputs := strings.Split(parts[0], ",")
	if len(inputs) != numOperands {
		return nil, ValidationErrorf("einsum %q describes %d operands, %d given", spec, len(inputs), numOperands)
	}

	counts := make(map[byte]int)
	for i, term := range inputs {
		for j := 0; j < len(term); j++ {
			c := term[j]
			if !isLetter(c) {
				return nil, ValidationErrorf("einsum %q: operand %d has invalid index %q", spec, i, string(c))
			}
			counts[c]++
		}
	}

	var output string
	if len(parts) == 2 {
		output = parts[1]
		seen := make(map[byte]bool, len(output))
		for j := 0; j < len(output); j++ {
			c := output[j]
			if !isLetter(c) {
				return nil, ValidationErrorf("einsum %q: output has invalid index %q", spec, string(c))
			}
			if seen[c] {
				return nil, ValidationErrorf("einsum %q: output index %q repeated", spec, string(c))
			}
			if counts[c] == 0 {
				return nil, ValidationErrorf("einsum %q: output index %q not found in any operand", spec, string(c))
			}
			seen[c] = true
		}
	} else {
		var once []byte
		for c, n := range counts {
			if n == 1 {
				once = append(once, c)
			}
		}
		sort.Slice(once, func(i, j int) bool { return once[i] < once[j] })
		output = string(once)
	}

	return &Subscripts{Inputs: inputs, Output: output}, nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// String renders the explicit form.
func (s *Subscripts) String() string {
	return strings.Join(s.Inputs, ",") + "->" + s.Output
}

// Sizes checks each operand's rank against its term and returns the size of
// every letter. A term whose length differs from the operand rank is a
// validation error; one letter bound to two different sizes is a shape error.
func (s *Subscripts) Sizes(shapes []Shape) (map[byte]int, error) {
	if len(shapes) != len(s.Inputs) {
		return nil, ValidationErrorf("einsum %s: %d operands given", s, len(shapes))
	}
	sizes := make(map[byte]int)
	for i, term := range s.Inputs {
		shape := shapes[i]
		if len(term) != len(shape) {
			return nil, ValidationErrorf("einsum %s: operand %d has %d indices but rank %d", s, i, len(term), len(shape))
		}
		for j := 0; j < len(term); j++ {
			c := term[j]
			if prev, ok := sizes[c]; ok && prev != shape[j] {
				return nil, ShapeErrorf("einsum %s: index %q has size %d and %d", s, string(c), prev, shape[j])
			}
			sizes[c] = shape[j]
		}
	}
	return sizes, nil
}

// OutputShape returns the result shape for the given letter sizes.
func (s *Subscripts) OutputShape(sizes map[byte]int) Shape {
	out := make(Shape, len(s.Output))
	for i := 0; i < len(s.Output); i++ {
		out[i] = sizes[s.Output[i]]
	}
	return out
}

// Backward returns the specification computing the gradient of operand k:
// the incoming gradient takes operand k's place (its term is the forward
// output) and operand k's term becomes the output. The remaining operands
// keep their relative order after the gradient.
//
//	"ij,jk->ik", k=0 → "ik,jk->ij"
//	"ij,jk->ik", k=1 → "ik,ij->jk"
func (s *Subscripts) Backward(k int) *Subscripts {
	inputs := make([]string, 0, len(s.Inputs))
	inputs = append(inputs, s.Output)
	for i, term := range s.Inputs {
		if i != k {
			inputs = append(inputs, term)
		}
	}
	return &Subscripts{Inputs: inputs, Output: s.Inputs[k]}
}

// HasRepeats reports whether any term, output included, repeats a letter.
func (s *Subscripts) HasRepeats() bool {
	for _, term := range append(append([]string(nil), s.Inputs...), s.Output) {
		seen := make(map[byte]bool, len(term))
		for j := 0; j < len(term); j++ {
			if seen[term[j]] {
				return true
			}
			seen[term[j]] = true
		}
	}
	return false
}
