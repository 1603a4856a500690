package rules

import "github.com/matzehuels/themecheck/pkg/theme"

// Shape classifies the value of one config field.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeNull
	ShapeEmptyCollection
	ShapeNonEmptyCollection
	ShapeScalar
)

var shapeNames = [...]string{"absent", "null", "empty collection", "non-empty collection", "scalar"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// Mergeable reports whether a field of this shape can be replaced by a
// site-level default without losing theme-provided entries. Only a non-empty
// collection cannot.
func (s Shape) Mergeable() bool {
	switch s {
	case ShapeAbsent, ShapeNull, ShapeEmptyCollection, ShapeScalar:
		return true
	case ShapeNonEmptyCollection:
		return false
	}
	return false
}

// ShapeOf classifies field in doc.
func ShapeOf(doc *theme.Document, field string) Shape {
	v, ok := doc.Field(field)
	if !ok {
		return ShapeAbsent
	}
	return classify(v)
}

func classify(v any) Shape {
	switch c := v.(type) {
	case nil:
		return ShapeNull
	case map[string]any:
		return collection(len(c))
	case map[any]any:
		return collection(len(c))
	case []any:
		return collection(len(c))
	default:
		return ShapeScalar
	}
}

func collection(n int) Shape {
	if n == 0 {
		return ShapeEmptyCollection
	}
	return ShapeNonEmptyCollection
}
