package schema

import "github.com/artpar/syncgate/domain/document"

// DynamicFn computes a constraint parameter for one item. It receives the
// candidate document, the effective prior revision (nil when absent), and the
// item's current and prior values.
type DynamicFn func(doc, oldDoc document.Document, value, oldValue any) any

// Dynamic is a constraint parameter that is either a fixed literal or
// computed per item. The zero value is unset and disables the constraint.
type Dynamic struct {
	value any
	fn    DynamicFn
}

// Static wraps a fixed constraint parameter.
func Static(value any) Dynamic {
	return Dynamic{value: value}
}

// Computed wraps a constraint parameter that is evaluated per item.
func Computed(fn DynamicFn) Dynamic {
	return Dynamic{fn: fn}
}

// IsSet reports whether the parameter was configured at all.
func (d Dynamic) IsSet() bool {
	return d.value != nil || d.fn != nil
}

// Resolve returns the effective parameter value for the given item. A nil
// result means the constraint does not apply to this item.
func (d Dynamic) Resolve(doc, oldDoc document.Document, value, oldValue any) any {
	if d.fn != nil {
		return d.fn(doc, oldDoc, value, oldValue)
	}
	return d.value
}

// StaticValue returns the literal parameter when the constraint was
// configured with a fixed value. Computed parameters return false: they
// cannot be inspected without a write to evaluate against.
func (d Dynamic) StaticValue() (any, bool) {
	if d.fn != nil || d.value == nil {
		return nil, false
	}
	return d.value, true
}

// ResolveBool resolves the parameter and coerces it to a boolean. Unset or
// non-boolean results are false.
func (d Dynamic) ResolveBool(doc, oldDoc document.Document, value, oldValue any) bool {
	b, _ := d.Resolve(doc, oldDoc, value, oldValue).(bool)
	return b
}

// ResolveInt resolves the parameter and coerces it to an integer. The second
// result is false when the parameter is unset or not numeric.
func (d Dynamic) ResolveInt(doc, oldDoc document.Document, value, oldValue any) (int, bool) {
	switch n := d.Resolve(doc, oldDoc, value, oldValue).(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
