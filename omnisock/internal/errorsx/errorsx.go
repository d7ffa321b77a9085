package errorsx

// Must panics when err is non-nil. reserved for impossible failures.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

// Compact returns the first non-nil error.
func Compact(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
