package omnisock

import (
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"syscall"
)

// Sockaddr is the sealed union of socket endpoint addresses. The dynamic
// type is the family discriminant; a payload can never disagree with its
// family tag because implementations live in this package only.
type Sockaddr interface {
	// Family returns the syscall.AF_* value for the concrete variant.
	Family() int
	sockaddr()
}

// SockaddrInet4 is an IPv4 endpoint, address in network byte order.
type SockaddrInet4 struct {
	Port int
	Addr [4]byte
}

func (t *SockaddrInet4) Family() int { return syscall.AF_INET }
func (t *SockaddrInet4) sockaddr()   {}

// Netip returns the endpoint as an addr port pair.
func (t *SockaddrInet4) Netip() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4(t.Addr), uint16(t.Port))
}

// SockaddrInet6 is an IPv6 endpoint, address in network byte order. ZoneId
// carries the scope for link local addresses; the text codec never renders
// it.
type SockaddrInet6 struct {
	Port   int
	ZoneId uint32
	Addr   [16]byte
}

func (t *SockaddrInet6) Family() int { return syscall.AF_INET6 }
func (t *SockaddrInet6) sockaddr()   {}

func (t *SockaddrInet6) Netip() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom16(t.Addr), uint16(t.Port))
}

// IsV4Mapped reports whether the address embeds an IPv4 address, i.e. has
// the ::ffff:a.b.c.d form.
func (t *SockaddrInet6) IsV4Mapped() bool {
	return netip.AddrFrom16(t.Addr).Is4In6()
}

// SockaddrUnix is a unix domain socket endpoint. Name is a filesystem path
// or an abstract name beginning with @.
type SockaddrUnix struct {
	Name string
}

func (t *SockaddrUnix) Family() int { return syscall.AF_UNIX }
func (t *SockaddrUnix) sockaddr()   {}

// FromNetip converts an addr port pair into the matching variant. IPv4
// mapped addresses keep their IPv6 representation.
func FromNetip(nap netip.AddrPort) Sockaddr {
	if nap.Addr().Is4() {
		return &SockaddrInet4{Addr: nap.Addr().As4(), Port: int(nap.Port())}
	}

	return &SockaddrInet6{Addr: nap.Addr().As16(), Port: int(nap.Port()), ZoneId: zoneID(nap.Addr().Zone())}
}

// Netip returns an internet endpoint as an addr port pair.
func Netip(sa Sockaddr) (zero netip.AddrPort, err error) {
	switch t := sa.(type) {
	case *SockaddrInet4:
		return t.Netip(), nil
	case *SockaddrInet6:
		return t.Netip(), nil
	default:
		slog.Debug("unsupported address", slog.Any("sa", t))
		return zero, syscall.EAFNOSUPPORT
	}
}

// FromNetAddr converts the net package address types.
func FromNetAddr(addr net.Addr) (Sockaddr, error) {
	ipaddr := func(ip net.IP, zone string, port int) (Sockaddr, error) {
		if ipv4 := ip.To4(); ipv4 != nil {
			return &SockaddrInet4{Addr: ([4]byte)(ipv4), Port: port}, nil
		} else if len(ip) == net.IPv6len {
			return &SockaddrInet6{Addr: ([16]byte)(ip), Port: port, ZoneId: zoneID(zone)}, nil
		} else {
			return nil, &net.AddrError{
				Err:  "unsupported address type",
				Addr: addr.String(),
			}
		}
	}

	switch a := addr.(type) {
	case *net.IPAddr:
		return ipaddr(a.IP, a.Zone, 0)
	case *net.TCPAddr:
		return ipaddr(a.IP, a.Zone, a.Port)
	case *net.UDPAddr:
		return ipaddr(a.IP, a.Zone, a.Port)
	case *net.UnixAddr:
		return &SockaddrUnix{Name: a.Name}, nil
	}

	return nil, &net.AddrError{
		Err:  "unsupported address type",
		Addr: addr.String(),
	}
}

// NetAddr converts sa into the net package address matching the socket
// type, nil for combinations the net package has no type for.
func NetAddr(sotype int, sa Sockaddr) net.Addr {
	switch t := sa.(type) {
	case *SockaddrInet4:
		return ipNetAddr(sotype, net.IP(t.Addr[:]), t.Port)
	case *SockaddrInet6:
		return ipNetAddr(sotype, net.IP(t.Addr[:]), t.Port)
	case *SockaddrUnix:
		return unixNetAddr(sotype, t.Name)
	default:
		return nil
	}
}

func ipNetAddr(sotype int, ip net.IP, port int) net.Addr {
	switch sotype {
	case syscall.SOCK_STREAM:
		return &net.TCPAddr{IP: ip, Port: port}
	case syscall.SOCK_DGRAM:
		return &net.UDPAddr{IP: ip, Port: port}
	case syscall.SOCK_RAW:
		return &net.IPAddr{IP: ip}
	default:
		return nil
	}
}

func unixNetAddr(sotype int, name string) net.Addr {
	switch sotype {
	case syscall.SOCK_STREAM:
		return &net.UnixAddr{Name: name, Net: "unix"}
	case syscall.SOCK_DGRAM:
		return &net.UnixAddr{Name: name, Net: "unixgram"}
	case syscall.SOCK_SEQPACKET:
		return &net.UnixAddr{Name: name, Net: "unixpacket"}
	default:
		return nil
	}
}

// zoneID translates a zone name into its interface index, accepting a
// numeric index verbatim. unknown zones collapse to zero.
func zoneID(zone string) uint32 {
	if zone == "" {
		return 0
	}

	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}

	if n, err := strconv.Atoi(zone); err == nil && n >= 0 {
		return uint32(n)
	}

	return 0
}
