package omnisock

import "errors"

var (
	// ErrFamilyMismatch reports hints or rule components whose address
	// families contradict each other or name a family this package does not
	// handle.
	ErrFamilyMismatch = errors.New("omnisock: address family mismatch")

	// ErrPathTooLong reports a unix socket path that cannot fit the
	// platform's sun_path buffer together with its terminator.
	ErrPathTooLong = errors.New("omnisock: unix socket path exceeds platform capacity")

	// ErrInvalidFormat reports text that does not parse as an address of the
	// inferred family.
	ErrInvalidFormat = errors.New("omnisock: invalid address text")
)
