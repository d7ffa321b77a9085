package omnisock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"syscall"

	"github.com/egdaemon/omnisock/omnisock/internal/langx"
)

// Hints narrows a resolution, mirroring the platform resolver's hint
// fields. The zero value lets the resolver pick: any internet family,
// stream sockets for unix domain targets, port zero for an empty service.
type Hints struct {
	Family      int // syscall.AF_UNSPEC, AF_INET, AF_INET6, or AF_UNIX
	SockType    int // syscall.SOCK_*, propagated onto candidates
	Protocol    int
	Passive     bool // resolving for bind/listen rather than dial
	NumericHost bool // require a literal address, never consult the resolver
}

type Option func(*Resolver)

// OptionResolver swaps the platform resolver consulted for host and
// service lookups.
func OptionResolver(r *net.Resolver) Option {
	return func(t *Resolver) {
		t.resolver = r
	}
}

// OptionAllow restricts internet candidates to the given networks. IPv4
// mapped answers count as their embedded IPv4 address. An empty set admits
// everything.
func OptionAllow(cidrs ...netip.Prefix) Option {
	return func(t *Resolver) {
		t.allow = append(t.allow, cidrs...)
	}
}

// New builds a resolver. the zero configuration delegates to
// net.DefaultResolver and is unrestricted.
func New(opts ...Option) *Resolver {
	return langx.Autoptr(langx.Clone(Resolver{}, opts...))
}

var defaultResolver = New()

// Resolve resolves with the default configuration.
func Resolve(ctx context.Context, host, service string, hints Hints) (*AddrList, error) {
	return defaultResolver.Resolve(ctx, host, service, hints)
}

// Resolver turns host and service pairs into candidate endpoints,
// synthesizing the answer for unix domain targets and delegating to the
// platform resolver for internet ones. Safe for concurrent use.
type Resolver struct {
	resolver *net.Resolver
	allow    []netip.Prefix
}

func (t *Resolver) lookup() *net.Resolver {
	if t.resolver == nil {
		return net.DefaultResolver
	}
	return t.resolver
}

// Resolve translates a host and service pair into candidates. When hints
// request the unix domain family the service argument names the socket
// path and host is ignored. Otherwise an empty host stands for the
// wildcard address in passive mode and the loopback address when dialing,
// matching the platform's null host convention. The returned list must be
// released by the caller; only the platform resolver delegation blocks,
// under ctx.
func (t *Resolver) Resolve(ctx context.Context, host, service string, hints Hints) (*AddrList, error) {
	switch hints.Family {
	case syscall.AF_UNIX:
		if host != "" {
			slog.WarnContext(ctx, "host ignored for unix domain resolution, the service argument carries the path")
		}
		return t.resolveunix(service, hints)
	case syscall.AF_UNSPEC, syscall.AF_INET, syscall.AF_INET6:
		return t.resolveip(ctx, host, service, hints)
	default:
		return nil, fmt.Errorf("%w: family %d", ErrFamilyMismatch, hints.Family)
	}
}

// ResolveNetwork resolves a net package style network and address pair,
// e.g. ("tcp", "localhost:5432") or ("unix", "/tmp/.s.PGSQL.5432").
func (t *Resolver) ResolveNetwork(ctx context.Context, network, address string, passive bool) (*AddrList, error) {
	sotype, err := SocketType(network)
	if err != nil {
		return nil, err
	}

	hints := Hints{SockType: sotype, Passive: passive}

	switch network {
	case "unix", "unixgram", "unixpacket":
		hints.Family = syscall.AF_UNIX
		return t.Resolve(ctx, "", address, hints)
	case "tcp4", "udp4":
		hints.Family = syscall.AF_INET
	case "tcp6", "udp6":
		hints.Family = syscall.AF_INET6
	}

	host, service, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	return t.Resolve(ctx, host, service, hints)
}

func (t *Resolver) resolveunix(path string, hints Hints) (*AddrList, error) {
	sotype := hints.SockType
	if sotype == 0 {
		sotype = syscall.SOCK_STREAM
	}

	// capacity covers the terminator, hence >=. checked before anything is
	// allocated, and never truncated.
	if len(path) >= unixPathCapacity() {
		return nil, fmt.Errorf("%w: %d byte path, capacity %d", ErrPathTooLong, len(path), unixPathCapacity())
	}

	if hints.Passive && !strings.HasPrefix(path, "@") {
		// remove a stale socket file so the caller's bind does not fail
		// with address in use. racy against concurrent binds, accepted.
		if err := unlink(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	ai := addrinfos.Get().(*AddrInfo)
	ai.Sockaddr = &SockaddrUnix{Name: path}
	ai.SockType = sotype
	ai.Protocol = hints.Protocol

	l := &AddrList{release: releaseSynth}
	l.push(ai)
	return l, nil
}

func (t *Resolver) resolveip(ctx context.Context, host, service string, hints Hints) (*AddrList, error) {
	port, err := t.lookupPort(ctx, hints, service)
	if err != nil {
		return nil, err
	}

	addrs, err := t.lookupHost(ctx, hints, host)
	if err != nil {
		return nil, err
	}

	if addrs = t.permitted(addrs); len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no candidate inside the allowed networks", Name: host, IsNotFound: true}
	}

	l := &AddrList{release: releaseLookup}
	for _, addr := range addrs {
		ai := addrinfos.Get().(*AddrInfo)
		ai.Sockaddr = FromNetip(netip.AddrPortFrom(addr, uint16(port)))
		ai.SockType = hints.SockType
		ai.Protocol = hints.Protocol
		l.push(ai)
	}
	return l, nil
}

func (t *Resolver) lookupHost(ctx context.Context, hints Hints, host string) ([]netip.Addr, error) {
	if host == "" {
		if hints.Passive {
			if hints.Family == syscall.AF_INET6 {
				return []netip.Addr{netip.IPv6Unspecified()}, nil
			}
			return []netip.Addr{netip.IPv4Unspecified()}, nil
		}

		if hints.Family == syscall.AF_INET6 {
			return []netip.Addr{netip.IPv6Loopback()}, nil
		}
		return []netip.Addr{netip.AddrFrom4([4]byte{127, 0, 0, 1})}, nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if mismatched(hints.Family, addr) {
			return nil, fmt.Errorf("%w: literal %q does not satisfy the requested family", ErrFamilyMismatch, host)
		}
		return []netip.Addr{addr}, nil
	}

	if hints.NumericHost {
		return nil, &net.DNSError{Err: "hints require a literal address", Name: host, IsNotFound: true}
	}

	ips, err := t.lookup().LookupNetIP(ctx, lookupNetwork(hints.Family), host)
	if err != nil {
		return nil, err
	}

	// the go resolver hands IPv4 answers back in mapped form.
	for i, ip := range ips {
		ips[i] = ip.Unmap()
	}
	return ips, nil
}

func (t *Resolver) lookupPort(ctx context.Context, hints Hints, service string) (int, error) {
	if service == "" {
		return 0, nil
	}

	if port, err := strconv.Atoi(service); err == nil {
		if port < 0 || port > 65535 {
			return 0, &net.AddrError{Err: "invalid port", Addr: service}
		}
		return port, nil
	}

	return t.lookup().LookupPort(ctx, serviceNetwork(hints), service)
}

func (t *Resolver) permitted(addrs []netip.Addr) []netip.Addr {
	if len(t.allow) == 0 {
		return addrs
	}

	ok := make([]netip.Addr, 0, len(addrs))
	for _, addr := range addrs {
		for _, cidr := range t.allow {
			if cidr.Contains(addr.Unmap()) {
				ok = append(ok, addr)
				break
			}
		}
	}
	return ok
}

// mismatched reports a literal whose form contradicts the hinted family.
// mapped text like ::ffff:10.1.2.3 is IPv6 for this purpose.
func mismatched(family int, addr netip.Addr) bool {
	switch family {
	case syscall.AF_INET:
		return !addr.Is4()
	case syscall.AF_INET6:
		return !addr.Is6()
	default:
		return false
	}
}

func lookupNetwork(family int) string {
	switch family {
	case syscall.AF_INET:
		return "ip4"
	case syscall.AF_INET6:
		return "ip6"
	default:
		return "ip"
	}
}

func serviceNetwork(hints Hints) string {
	if hints.SockType == syscall.SOCK_DGRAM {
		return "udp"
	}
	return "tcp"
}
