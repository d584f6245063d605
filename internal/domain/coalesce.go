package domain

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Or returns the first non-nil value among ptrs, or current when all are nil.
// Partial updates and optional import fields resolve through it.
func Or[T any](current T, ptrs ...*T) T {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return current
}

// DefaultWeight is the weight of a node or subtask created without one.
const DefaultWeight = 1.0
