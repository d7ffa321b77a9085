// Package omnisock presents IPv4, IPv6, and unix domain socket endpoints
// through one sealed address type, with name resolution, text conversion,
// and interop with the net, netip, and x/sys address representations
// layered on top.
package omnisock

import "syscall"

// IsInetFamily reports whether af names one of the internet address
// families. unix domain sockets and unrecognized values are excluded.
func IsInetFamily(af int) bool {
	return af == syscall.AF_INET || af == syscall.AF_INET6
}

// IsInet reports whether sa is an internet address.
func IsInet(sa Sockaddr) bool {
	return sa != nil && IsInetFamily(sa.Family())
}

// SocketType maps a net package network name to its socket type.
func SocketType(network string) (int, error) {
	switch network {
	case "tcp", "tcp4", "tcp6", "unix":
		return syscall.SOCK_STREAM, nil
	case "udp", "udp4", "udp6", "unixgram":
		return syscall.SOCK_DGRAM, nil
	case "unixpacket":
		return syscall.SOCK_SEQPACKET, nil
	default:
		return -1, syscall.EPROTOTYPE
	}
}
