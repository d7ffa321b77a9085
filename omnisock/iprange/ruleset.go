package iprange

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/egdaemon/omnisock/omnisock"
	"go4.org/netipx"
)

// ErrNonContiguousMask rejects masks that cannot be expressed as a prefix
// length when converting rules to prefix form.
var ErrNonContiguousMask = errors.New("iprange: mask bits are not contiguous")

// Prefix converts the rule to prefix form. Fails when the mask is not a
// contiguous run of leading one bits, which Match tolerates but prefix
// sets cannot represent.
func (t Rule) Prefix() (zero netip.Prefix, err error) {
	var (
		addr netip.Addr
		mask net.IPMask
	)

	switch network := t.network.(type) {
	case *omnisock.SockaddrInet4:
		addr = netip.AddrFrom4(network.Addr)
		m := t.mask.(*omnisock.SockaddrInet4).Addr
		mask = net.IPMask(m[:])
	case *omnisock.SockaddrInet6:
		addr = netip.AddrFrom16(network.Addr)
		m := t.mask.(*omnisock.SockaddrInet6).Addr
		mask = net.IPMask(m[:])
	default:
		return zero, fmt.Errorf("%w: rules require internet addresses", omnisock.ErrFamilyMismatch)
	}

	ones, bits := mask.Size()
	if ones == 0 && bits == 0 {
		return zero, fmt.Errorf("%w: %s", ErrNonContiguousMask, t)
	}

	return netip.PrefixFrom(addr, ones).Masked(), nil
}

// RuleSet merges prefix shaped rules into one queryable set. Unlike Match,
// lookups normalize IPv4 mapped addresses to IPv4 before the containment
// test, so one IPv4 rule covers both presentations.
type RuleSet struct {
	set *netipx.IPSet
}

// NewRuleSet compiles the rules; every mask must be contiguous.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	var b netipx.IPSetBuilder

	for _, r := range rules {
		p, err := r.Prefix()
		if err != nil {
			return nil, err
		}
		b.AddPrefix(p)
	}

	set, err := b.IPSet()
	if err != nil {
		return nil, err
	}

	return &RuleSet{set: set}, nil
}

// ContainsAddr reports whether the set covers addr.
func (t *RuleSet) ContainsAddr(addr netip.Addr) bool {
	if t == nil || t.set == nil {
		return false
	}
	return t.set.Contains(addr.Unmap())
}

// Contains reports whether the set covers the internet address sa.
func (t *RuleSet) Contains(sa omnisock.Sockaddr) bool {
	nap, err := omnisock.Netip(sa)
	if err != nil {
		return false
	}
	return t.ContainsAddr(nap.Addr())
}

// Prefixes returns the set's merged prefixes, suitable for
// omnisock.OptionAllow.
func (t *RuleSet) Prefixes() []netip.Prefix {
	if t == nil || t.set == nil {
		return nil
	}
	return t.set.Prefixes()
}
