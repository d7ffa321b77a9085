package omnisock

import (
	"fmt"
	"net/netip"
	"strings"
)

// Format renders the host portion of sa: dotted decimal for IPv4, RFC 5952
// for IPv6. unmap rewrites an IPv4 mapped IPv6 address to its embedded
// dotted decimal form. Every other variant renders as the empty string, the
// fallback for display paths that must not fail.
func Format(sa Sockaddr, unmap bool) string {
	return string(AppendFormat(nil, sa, unmap))
}

// AppendFormat appends the textual form of sa to dst.
func AppendFormat(dst []byte, sa Sockaddr, unmap bool) []byte {
	switch t := sa.(type) {
	case *SockaddrInet4:
		return netip.AddrFrom4(t.Addr).AppendTo(dst)
	case *SockaddrInet6:
		addr := netip.AddrFrom16(t.Addr)
		if unmap && addr.Is4In6() {
			addr = addr.Unmap()
		}
		return addr.AppendTo(dst)
	default:
		return dst
	}
}

// Parse interprets text as an address, inferring the family rather than
// accepting one: text containing a colon is parsed as IPv6, anything else
// as IPv4. The inference is part of the rule file syntax contract, which
// also means malformed input carrying a stray colon always fails as an
// IPv6 parse. Zone suffixes are not accepted; the port of the returned
// variant is zero.
func Parse(s string) (Sockaddr, error) {
	if strings.ContainsRune(s, ':') {
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is6() || addr.Zone() != "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return &SockaddrInet6{Addr: addr.As16()}, nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return &SockaddrInet4{Addr: addr.As4()}, nil
}
