//go:build !unix

package omnisock

import "os"

// ensure we can at least compile on platforms without the unix package.

func unixPathCapacity() int { return 108 }

func unlink(path string) error { return os.Remove(path) }
