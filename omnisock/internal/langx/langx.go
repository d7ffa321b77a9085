package langx

// Autoptr converts a value into a pointer to that value.
func Autoptr[T any](v T) *T {
	return &v
}

// Clone copies the provided value and applies the given mutations to the copy.
func Clone[T any, O ~func(*T)](v T, opts ...O) T {
	for _, opt := range opts {
		opt(&v)
	}

	return v
}
