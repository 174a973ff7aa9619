package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/autograd/internal/tensor"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length

	maxElements = 1 << 40
)

// ValidateTensorName rejects names that could escape a directory when a
// file is unpacked, and names too long to be real.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: TypeInvalidName, Details: "empty name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    TypeNameTooLong,
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if name == MetadataKey {
		return &ValidationError{Type: TypeInvalidName, Tensor: name, Details: "reserved for metadata"}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{Type: TypeInvalidName, Tensor: name, Details: "contains '..' (path traversal attempt)"}
	}
	if strings.ContainsAny(name, "/\\") {
		return &ValidationError{Type: TypeInvalidName, Tensor: name, Details: "contains path separator (/ or \\)"}
	}
	if strings.Contains(name, "\x00") {
		return &ValidationError{Type: TypeInvalidName, Tensor: name, Details: "contains null byte"}
	}
	return nil
}

// validateEntry checks an entry's dtype and that its byte range matches its
// shape.
func validateEntry(e entry) error {
	dt, ok := stringToDtype(e.DType)
	if !ok {
		return &ValidationError{Type: TypeInvalidDType, Tensor: e.Name, Details: fmt.Sprintf("dtype %q", e.DType)}
	}
	if e.DataOffsets[0] < 0 || e.DataOffsets[1] < e.DataOffsets[0] {
		return &ValidationError{
			Type:    TypeNegativeOffset,
			Tensor:  e.Name,
			Details: fmt.Sprintf("data_offsets [%d, %d]", e.DataOffsets[0], e.DataOffsets[1]),
		}
	}
	n := int64(1)
	for _, d := range e.Shape {
		if d < 0 || (d > 0 && n > maxElements/d) {
			return &ValidationError{Type: TypeSizeMismatch, Tensor: e.Name, Details: fmt.Sprintf("shape %v", e.Shape)}
		}
		n *= d
	}
	if want := n * int64(dt.Size()); want != e.Size() {
		return &ValidationError{
			Type:    TypeSizeMismatch,
			Tensor:  e.Name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, offsets span %d", e.Shape, e.DType, want, e.Size()),
		}
	}
	return nil
}

// ValidateTensorOffsets checks for overlapping tensor regions and regions
// beyond the data section. Malformed files could otherwise leak or alias
// data.
func ValidateTensorOffsets(infos map[string]TensorInfo, dataSize int64) error {
	if len(infos) > MaxTensorCount {
		return &ValidationError{
			Type:    TypeTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(infos), MaxTensorCount),
		}
	}

	sorted := make([]entry, 0, len(infos))
	for name, info := range infos {
		sorted = append(sorted, entry{Name: name, TensorInfo: info})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DataOffsets[0] != sorted[j].DataOffsets[0] {
			return sorted[i].DataOffsets[0] < sorted[j].DataOffsets[0]
		}
		return sorted[i].Name < sorted[j].Name
	})

	for i, e := range sorted {
		if e.DataOffsets[0] < 0 || e.DataOffsets[1] < e.DataOffsets[0] {
			return &ValidationError{
				Type:    TypeNegativeOffset,
				Tensor:  e.Name,
				Details: fmt.Sprintf("data_offsets [%d, %d]", e.DataOffsets[0], e.DataOffsets[1]),
			}
		}
		if e.DataOffsets[1] > dataSize {
			return &ValidationError{
				Type:    TypeOutOfBounds,
				Tensor:  e.Name,
				Details: fmt.Sprintf("end %d > data_size %d", e.DataOffsets[1], dataSize),
			}
		}
		// Empty tensors occupy no bytes and cannot overlap.
		if i < len(sorted)-1 && e.Size() > 0 {
			next := sorted[i+1]
			if next.Size() > 0 && e.DataOffsets[1] > next.DataOffsets[0] {
				return &ValidationError{
					Type:    TypeOffsetOverlap,
					Tensor:  e.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						e.DataOffsets[0], e.DataOffsets[1], next.DataOffsets[0], next.DataOffsets[1]),
				}
			}
		}
	}
	return nil
}

// ValidateHeader performs every header check against a data section of
// dataSize bytes.
func ValidateHeader(infos map[string]TensorInfo, dataSize int64) error {
	if len(infos) > MaxTensorCount {
		return &ValidationError{
			Type:    TypeTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(infos), MaxTensorCount),
		}
	}
	names := sortedNames(infos)
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if err := validateEntry(entry{Name: name, TensorInfo: infos[name]}); err != nil {
			return err
		}
	}
	return ValidateTensorOffsets(infos, dataSize)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// shapeOf converts a validated header shape.
func shapeOf(dims []int64) tensor.Shape {
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape
}
