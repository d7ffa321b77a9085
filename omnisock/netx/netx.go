// Package netx provides debugging functionality for the resolver stack.
package netx

import (
	"context"
	"log"

	"github.com/egdaemon/omnisock/omnisock"
)

// Resolver is the subset of the resolver surface the wrappers intercept.
type Resolver interface {
	Resolve(ctx context.Context, host, service string, hints omnisock.Hints) (*omnisock.AddrList, error)
}

// intercept resolve calls
func DebugResolver(prefix string, r Resolver) Resolver {
	return debugresolver{prefix: prefix, Resolver: r}
}

type debugresolver struct {
	prefix string
	Resolver
}

func (t debugresolver) Resolve(ctx context.Context, host, service string, hints omnisock.Hints) (l *omnisock.AddrList, err error) {
	log.Println(t.prefix, "Resolver.Resolve initiated", host, service, hints.Family)
	defer func() {
		if err != nil {
			log.Println(t.prefix, "Resolver.Resolve failed", host, service, err)
			return
		}
		log.Println(t.prefix, "Resolver.Resolve completed", host, service, l.Len())
	}()

	return t.Resolver.Resolve(ctx, host, service, hints)
}
