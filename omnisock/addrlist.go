package omnisock

import (
	"net"
	"sync"
)

// AddrInfo is a single resolution candidate.
type AddrInfo struct {
	Sockaddr  Sockaddr
	SockType  int
	Protocol  int
	Canonical string
	next      *AddrInfo
}

// Next returns the following candidate, nil at the end of the sequence.
func (t *AddrInfo) Next() *AddrInfo { return t.next }

// NetAddr converts the candidate into its net package address.
func (t *AddrInfo) NetAddr() net.Addr { return NetAddr(t.SockType, t.Sockaddr) }

// nodes are recycled across resolutions.
var addrinfos = sync.Pool{
	New: func() any { return new(AddrInfo) },
}

// AddrList is an owned sequence of resolution candidates in the order the
// resolver produced them. The caller that requested the resolution releases
// the list exactly once when done; the teardown strategy was chosen when
// the list was produced, so the caller never needs to know which path
// produced it.
type AddrList struct {
	head    *AddrInfo
	tail    *AddrInfo
	release func(*AddrInfo)
}

// First returns the first candidate, nil once the list has been released.
func (t *AddrList) First() *AddrInfo {
	if t == nil {
		return nil
	}
	return t.head
}

// Len counts the candidates.
func (t *AddrList) Len() (n int) {
	for ai := t.First(); ai != nil; ai = ai.Next() {
		n++
	}
	return n
}

// Release returns every candidate to the shared pool. Extra calls on an
// already released list do nothing.
func (t *AddrList) Release() {
	if t == nil || t.head == nil {
		return
	}

	for ai := t.head; ai != nil; {
		next := ai.next
		t.release(ai)
		ai = next
	}
	t.head, t.tail = nil, nil
}

func (t *AddrList) push(ai *AddrInfo) {
	if t.tail == nil {
		t.head, t.tail = ai, ai
		return
	}
	t.tail.next = ai
	t.tail = ai
}

// releaseLookup recycles candidates built from platform resolver answers.
func releaseLookup(ai *AddrInfo) {
	*ai = AddrInfo{}
	addrinfos.Put(ai)
}

// releaseSynth recycles synthesized unix domain candidates, scrubbing the
// path so a retained variant cannot leak it past the release.
func releaseSynth(ai *AddrInfo) {
	if ua, ok := ai.Sockaddr.(*SockaddrUnix); ok {
		ua.Name = ""
	}
	*ai = AddrInfo{}
	addrinfos.Put(ai)
}
