package omnisock_test

import (
	"testing"

	"github.com/egdaemon/omnisock/omnisock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip(t *testing.T) {
	for _, text := range []string{
		"0.0.0.0",
		"127.0.0.1",
		"10.1.2.3",
		"255.255.255.255",
		"::",
		"::1",
		"2001:db8::1",
		"fe80::1",
		"::ffff:192.0.2.1",
	} {
		sa, err := omnisock.Parse(text)
		require.NoError(t, err, text)
		require.Equal(t, text, omnisock.Format(sa, false), text)
	}
}

func TestTextCanonicalizes(t *testing.T) {
	sa, err := omnisock.Parse("0:0:0:0:0:0:0:1")
	require.NoError(t, err)
	require.Equal(t, "::1", omnisock.Format(sa, false))
}

func TestTextUnmapRewrites(t *testing.T) {
	mapped, err := omnisock.Parse("::ffff:192.0.2.1")
	require.NoError(t, err)

	assert.Equal(t, "::ffff:192.0.2.1", omnisock.Format(mapped, false))
	assert.Equal(t, "192.0.2.1", omnisock.Format(mapped, true))
}

func TestTextUnmapLeavesOthersAlone(t *testing.T) {
	v4, err := omnisock.Parse("10.1.2.3")
	require.NoError(t, err)
	v6, err := omnisock.Parse("2001:db8::1")
	require.NoError(t, err)

	assert.Equal(t, "10.1.2.3", omnisock.Format(v4, true))
	assert.Equal(t, "2001:db8::1", omnisock.Format(v6, true))
}

func TestTextUnixFormatsEmpty(t *testing.T) {
	assert.Equal(t, "", omnisock.Format(&omnisock.SockaddrUnix{Name: "/tmp/x.sock"}, false))
	assert.Equal(t, "", omnisock.Format(nil, false))
}

func TestTextAppendFormat(t *testing.T) {
	v4, err := omnisock.Parse("10.1.2.3")
	require.NoError(t, err)

	assert.Equal(t, []byte("addr=10.1.2.3"), omnisock.AppendFormat([]byte("addr="), v4, false))
	assert.Equal(t, []byte("addr="), omnisock.AppendFormat([]byte("addr="), &omnisock.SockaddrUnix{}, false))
}

func TestTextParseMappedStaysInet6(t *testing.T) {
	sa, err := omnisock.Parse("::ffff:192.0.2.1")
	require.NoError(t, err)

	v6, ok := sa.(*omnisock.SockaddrInet6)
	require.True(t, ok)
	require.True(t, v6.IsV4Mapped())
	require.Equal(t, 0, v6.Port)
}

func TestTextParseRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"1.2.3",
		"256.1.1.1",
		"01.2.3.4",
		"10.0.0.0/8",
		"192.168.0.1:80",
		"fe80::1%eth0",
		"fe80::1%3",
		":::1",
		"hostname",
	} {
		_, err := omnisock.Parse(text)
		require.ErrorIs(t, err, omnisock.ErrInvalidFormat, text)
	}
}
