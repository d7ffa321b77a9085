// Package iprange implements the family aware netmask matching behind host
// based access rules.
package iprange

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/egdaemon/omnisock/omnisock"
	"github.com/egdaemon/omnisock/omnisock/internal/errorsx"
)

// Match reports whether addr falls inside the network and mask pair. Equal
// families compare under the mask; an IPv4 mapped IPv6 address is unwrapped
// when the rule is IPv4, which lets a single IPv4 rule cover connections
// arriving over a dual stack listener. A plain IPv4 address never matches
// an IPv6 rule, mapped or not. Unix domain addresses and mixed family
// rules are false, never an error.
func Match(addr, network, mask omnisock.Sockaddr) bool {
	if network == nil || mask == nil || network.Family() != mask.Family() {
		return false
	}

	switch rule := network.(type) {
	case *omnisock.SockaddrInet4:
		return match4(normalize4(addr), rule, mask.(*omnisock.SockaddrInet4))
	case *omnisock.SockaddrInet6:
		a6, ok := addr.(*omnisock.SockaddrInet6)
		if !ok {
			return false
		}
		return match6(a6, rule, mask.(*omnisock.SockaddrInet6))
	default:
		return false
	}
}

// normalize4 canonicalizes addr toward the IPv4 family: native IPv4 passes
// through, an IPv4 mapped IPv6 address is unwrapped, anything else is nil.
func normalize4(addr omnisock.Sockaddr) *omnisock.SockaddrInet4 {
	switch t := addr.(type) {
	case *omnisock.SockaddrInet4:
		return t
	case *omnisock.SockaddrInet6:
		return Unmap(t)
	default:
		return nil
	}
}

func match4(addr, network, mask *omnisock.SockaddrInet4) bool {
	if addr == nil {
		return false
	}

	a := binary.BigEndian.Uint32(addr.Addr[:])
	n := binary.BigEndian.Uint32(network.Addr[:])
	m := binary.BigEndian.Uint32(mask.Addr[:])
	return (a^n)&m == 0
}

func match6(addr, network, mask *omnisock.SockaddrInet6) bool {
	for i := range addr.Addr {
		if (addr.Addr[i]^network.Addr[i])&mask.Addr[i] != 0 {
			return false
		}
	}
	return true
}

// Unmap extracts the IPv4 address embedded in an IPv4 mapped IPv6 address,
// preserving the port. nil when addr is not mapped.
func Unmap(addr *omnisock.SockaddrInet6) *omnisock.SockaddrInet4 {
	if addr == nil || !addr.IsV4Mapped() {
		return nil
	}

	return &omnisock.SockaddrInet4{
		Port: addr.Port,
		Addr: [4]byte(addr.Addr[12:]),
	}
}

// Rule is a validated network and mask pair sharing one internet family.
type Rule struct {
	network omnisock.Sockaddr
	mask    omnisock.Sockaddr
}

// NewRule rejects pairs that are not internet addresses of one family.
func NewRule(network, mask omnisock.Sockaddr) (Rule, error) {
	if !omnisock.IsInet(network) || !omnisock.IsInet(mask) {
		return Rule{}, fmt.Errorf("%w: rules require internet addresses", omnisock.ErrFamilyMismatch)
	}
	if network.Family() != mask.Family() {
		return Rule{}, fmt.Errorf("%w: network and mask families differ", omnisock.ErrFamilyMismatch)
	}

	return Rule{network: network, mask: mask}, nil
}

// ParseRule reads the rule file forms: a CIDR prefix length (10.0.0.0/8),
// an explicit mask after the slash (10.0.0.0/255.0.0.0), a whitespace
// separated address and mask pair, or a bare address implying the full
// length mask.
func ParseRule(s string) (Rule, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
	case 2:
		return parsePair(fields[0], fields[1])
	default:
		return Rule{}, fmt.Errorf("%w: %q", omnisock.ErrInvalidFormat, s)
	}

	addrtext, masktext, slashed := strings.Cut(fields[0], "/")
	if !slashed {
		network, err := omnisock.Parse(addrtext)
		if err != nil {
			return Rule{}, err
		}
		return NewRule(network, fullMask(network.Family()))
	}

	if bits, err := strconv.Atoi(masktext); err == nil {
		network, err := omnisock.Parse(addrtext)
		if err != nil {
			return Rule{}, err
		}
		mask, err := lengthMask(network.Family(), bits)
		if err != nil {
			return Rule{}, err
		}
		return NewRule(network, mask)
	}

	return parsePair(addrtext, masktext)
}

func parsePair(addrtext, masktext string) (Rule, error) {
	network, err := omnisock.Parse(addrtext)
	if err != nil {
		return Rule{}, err
	}

	mask, err := omnisock.Parse(masktext)
	if err != nil {
		return Rule{}, err
	}

	return NewRule(network, mask)
}

func fullMask(family int) omnisock.Sockaddr {
	if family == syscall.AF_INET6 {
		return errorsx.Must(lengthMask(family, 128))
	}
	return errorsx.Must(lengthMask(family, 32))
}

func lengthMask(family int, bits int) (omnisock.Sockaddr, error) {
	if family == syscall.AF_INET6 {
		if m := net.CIDRMask(bits, 128); m != nil {
			return &omnisock.SockaddrInet6{Addr: [16]byte(m)}, nil
		}
	} else if m := net.CIDRMask(bits, 32); m != nil {
		return &omnisock.SockaddrInet4{Addr: [4]byte(m)}, nil
	}

	return nil, fmt.Errorf("%w: /%d", omnisock.ErrInvalidFormat, bits)
}

// Contains reports whether addr matches the rule.
func (t Rule) Contains(addr omnisock.Sockaddr) bool {
	return Match(addr, t.network, t.mask)
}

// Network returns the rule's network address.
func (t Rule) Network() omnisock.Sockaddr { return t.network }

// Mask returns the rule's netmask.
func (t Rule) Mask() omnisock.Sockaddr { return t.mask }

// String renders the rule in address slash mask form.
func (t Rule) String() string {
	return omnisock.Format(t.network, false) + "/" + omnisock.Format(t.mask, false)
}
