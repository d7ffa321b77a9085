package netrules_test

import (
	"net/netip"
	"testing"

	"github.com/egdaemon/omnisock/omnisock"
	"github.com/egdaemon/omnisock/omnisock/netrules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyYAML = `
allow:
  - 10.0.0.0/8
  - 192.168.0.0/255.255.0.0
deny:
  - 10.13.0.0/16
`

const policyJSON = `{
  "allow": ["10.0.0.0/8", "192.168.0.0/255.255.0.0"],
  "deny": ["10.13.0.0/16"]
}`

func checkPolicy(t *testing.T, set *netrules.Set) {
	for text, admitted := range map[string]bool{
		"10.1.2.3":         true,
		"192.168.5.5":      true,
		"10.13.1.1":        false, // deny wins over allow
		"::ffff:10.13.1.1": false, // mapped form of a denied address
		"::ffff:10.1.2.3":  true,
		"172.16.0.1":       false, // no allow rule covers it
		"2001:db8::1":      false,
	} {
		sa, err := omnisock.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, admitted, set.Permitted(sa), text)
	}
}

func TestPolicyYAML(t *testing.T) {
	set, err := netrules.ParseYAML([]byte(policyYAML))
	require.NoError(t, err)
	checkPolicy(t, set)
}

func TestPolicyJSON(t *testing.T) {
	set, err := netrules.ParseJSON([]byte(policyJSON))
	require.NoError(t, err)
	checkPolicy(t, set)
}

func TestPolicyEmptyAllowAdmits(t *testing.T) {
	set, err := netrules.ParseYAML([]byte("deny:\n  - 10.13.0.0/16\n"))
	require.NoError(t, err)

	sa, err := omnisock.Parse("8.8.8.8")
	require.NoError(t, err)
	assert.True(t, set.Permitted(sa))

	sa, err = omnisock.Parse("10.13.9.9")
	require.NoError(t, err)
	assert.False(t, set.Permitted(sa))

	// without allow rules, unix addresses pass too
	assert.True(t, set.Permitted(&omnisock.SockaddrUnix{Name: "/tmp/x.sock"}))
}

func TestPolicyAllowExcludesUnix(t *testing.T) {
	set, err := netrules.ParseYAML([]byte("allow:\n  - 0.0.0.0/0\n"))
	require.NoError(t, err)
	assert.False(t, set.Permitted(&omnisock.SockaddrUnix{Name: "/tmp/x.sock"}))
}

func TestPolicyNilAdmits(t *testing.T) {
	var set *netrules.Set
	assert.True(t, set.Permitted(&omnisock.SockaddrInet4{Addr: [4]byte{10, 1, 2, 3}}))
}

func TestCompileRejectsBadRule(t *testing.T) {
	_, err := netrules.Compile(netrules.Document{Allow: []string{"10.0.0.0/33"}})
	require.ErrorIs(t, err, omnisock.ErrInvalidFormat)

	_, err = netrules.Compile(netrules.Document{Deny: []string{"10.0.0.0/ffff::"}})
	require.ErrorIs(t, err, omnisock.ErrFamilyMismatch)
}

func TestParseYAMLMalformed(t *testing.T) {
	_, err := netrules.ParseYAML([]byte("allow: ["))
	require.Error(t, err)
}

func TestParseYAMLBadRule(t *testing.T) {
	_, err := netrules.ParseYAML([]byte("allow:\n  - 10.0.0.0/33\n"))
	require.ErrorIs(t, err, omnisock.ErrInvalidFormat)
}

func TestAllowSet(t *testing.T) {
	set, err := netrules.ParseYAML([]byte(policyYAML))
	require.NoError(t, err)

	allowed, err := set.AllowSet()
	require.NoError(t, err)
	require.Equal(t,
		[]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("192.168.0.0/16")},
		allowed.Prefixes())

	// feeds straight into the resolver's admission option
	r := omnisock.New(omnisock.OptionAllow(allowed.Prefixes()...))
	require.NotNil(t, r)
}

func TestAllowSetNil(t *testing.T) {
	var set *netrules.Set

	allowed, err := set.AllowSet()
	require.NoError(t, err)
	assert.Empty(t, allowed.Prefixes())
}
