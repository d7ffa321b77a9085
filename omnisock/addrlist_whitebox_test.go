package omnisock

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddrListOrder(t *testing.T) {
	l := &AddrList{release: releaseLookup}
	for _, b := range []byte{1, 2, 3} {
		ai := addrinfos.Get().(*AddrInfo)
		ai.Sockaddr = &SockaddrInet4{Addr: [4]byte{10, 0, 0, b}}
		ai.SockType = syscall.SOCK_STREAM
		l.push(ai)
	}
	defer l.Release()

	require.Equal(t, 3, l.Len())

	var got []byte
	for ai := l.First(); ai != nil; ai = ai.Next() {
		got = append(got, ai.Sockaddr.(*SockaddrInet4).Addr[3])
	}
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestAddrListReleaseIdempotent(t *testing.T) {
	l := &AddrList{release: releaseLookup}
	ai := addrinfos.Get().(*AddrInfo)
	ai.Sockaddr = &SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}
	l.push(ai)

	l.Release()
	assert.Nil(t, l.First())
	assert.Equal(t, 0, l.Len())

	// released twice, still quiescent
	l.Release()
	assert.Nil(t, l.First())
}

func TestAddrListNil(t *testing.T) {
	var l *AddrList

	assert.Nil(t, l.First())
	assert.Equal(t, 0, l.Len())
	l.Release()
}

func TestAddrListSynthReleaseScrubsPath(t *testing.T) {
	ua := &SockaddrUnix{Name: "/tmp/secret.sock"}
	ai := addrinfos.Get().(*AddrInfo)
	ai.Sockaddr = ua

	l := &AddrList{release: releaseSynth}
	l.push(ai)
	l.Release()

	assert.Equal(t, "", ua.Name)
}
