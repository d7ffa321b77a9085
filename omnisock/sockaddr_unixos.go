//go:build unix

package omnisock

import (
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// UnixSockaddr converts sa for use with unix.Bind and unix.Connect.
func UnixSockaddr(sa Sockaddr) (unix.Sockaddr, error) {
	switch t := sa.(type) {
	case *SockaddrInet4:
		return &unix.SockaddrInet4{Port: t.Port, Addr: t.Addr}, nil
	case *SockaddrInet6:
		return &unix.SockaddrInet6{Port: t.Port, Addr: t.Addr, ZoneId: t.ZoneId}, nil
	case *SockaddrUnix:
		name := t.Name
		if len(name) == 0 {
			// For consistency across platforms, replace empty unix socket
			// addresses with @. On Linux, addresses where the first byte is
			// a null byte are considered abstract unix sockets, and the first
			// byte is replaced with @.
			name = "@"
		}
		return &unix.SockaddrUnix{Name: name}, nil
	default:
		return nil, syscall.ENOTSUP
	}
}

// FromUnixSockaddr converts addresses returned by unix.Getsockname and
// friends.
func FromUnixSockaddr(sa unix.Sockaddr) (Sockaddr, error) {
	switch t := sa.(type) {
	case *unix.SockaddrInet4:
		return &SockaddrInet4{Port: t.Port, Addr: t.Addr}, nil
	case *unix.SockaddrInet6:
		return &SockaddrInet6{Port: t.Port, Addr: t.Addr, ZoneId: t.ZoneId}, nil
	case *unix.SockaddrUnix:
		return &SockaddrUnix{Name: t.Name}, nil
	default:
		slog.Debug("unsupported unix.Sockaddr", slog.Any("sa", sa))
		return nil, syscall.EINVAL
	}
}

// sun_path sizing straight from the platform's sockaddr_un definition.
func unixPathCapacity() int {
	var raw unix.RawSockaddrUnix
	return len(raw.Path)
}

func unlink(path string) error {
	return os.NewSyscallError("unlink", unix.Unlink(path))
}
