package theme

// Document is a parsed configuration file.
//
// The root may be any decoded value; only mapping roots have fields. Values
// are the generic shapes produced by a YAML decoder: map[string]any, []any,
// and scalars.
type Document struct {
	root any
}

// NewDocument wraps a decoded configuration value.
func NewDocument(root any) *Document {
	return &Document{root: root}
}

// Root returns the decoded value the document wraps.
func (d *Document) Root() any { return d.root }

// Field returns the value stored under name. ok is false when the root is
// not a mapping or has no such key; a key mapped to null is present with a
// nil value.
func (d *Document) Field(name string) (value any, ok bool) {
	if d == nil {
		return nil, false
	}
	switch m := d.root.(type) {
	case map[string]any:
		value, ok = m[name]
	case map[any]any:
		value, ok = m[name]
	}
	return value, ok
}

// Fields returns the number of top-level keys.
func (d *Document) Fields() int {
	if d == nil {
		return 0
	}
	switch m := d.root.(type) {
	case map[string]any:
		return len(m)
	case map[any]any:
		return len(m)
	}
	return 0
}
