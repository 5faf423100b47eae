// ABOUTME: grandcat/zeroconf advertiser backend
// ABOUTME: Registers the probe service and resolves it to confirm publication
package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	"github.com/grandcat/zeroconf"
)

// zeroconfLookupTimeout bounds each self-lookup round
const zeroconfLookupTimeout = time.Second

// lookupFunc runs one self-lookup round, sending results to entries
type lookupFunc func(ctx context.Context, d probe.ServiceDescriptor, entries chan<- *zeroconf.ServiceEntry) error

// ZeroconfAdvertiser publishes services with grandcat/zeroconf
type ZeroconfAdvertiser struct {
	// lookup defaults to lookupInstance
	lookup lookupFunc
}

// Advertise registers d on all interfaces. The publication is marked
// published when a resolver lookup for d's instance returns an entry.
func (a *ZeroconfAdvertiser) Advertise(ctx context.Context, d probe.ServiceDescriptor) (probe.Publication, error) {
	server, err := zeroconf.Register(d.Name, d.Type, d.Domain, d.Port, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register service: %w", err)
	}

	pub := newPublication(ctx, server.Shutdown)

	log.Printf("Registered zeroconf service: %s on port %d", d.Instance(), d.Port)

	go a.confirmLoop(pub, d)

	return pub, nil
}

// lookupInstance resolves d with a fresh resolver. A zeroconf resolver closes
// its sockets when its first lookup ends, so one cannot serve several rounds.
func lookupInstance(ctx context.Context, d probe.ServiceDescriptor, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}
	return resolver.Lookup(ctx, d.Name, d.Type, d.Domain, entries)
}

func (a *ZeroconfAdvertiser) confirmLoop(pub *publication, d probe.ServiceDescriptor) {
	lookup := a.lookup
	if lookup == nil {
		lookup = lookupInstance
	}

	for {
		if pub.ctx.Err() != nil {
			return
		}

		ctx, cancel := context.WithTimeout(pub.ctx, zeroconfLookupTimeout)
		entries := make(chan *zeroconf.ServiceEntry)

		if err := lookup(ctx, d, entries); err != nil {
			cancel()
			log.Printf("zeroconf self-lookup failed: %v", err)
			return
		}

		found := waitForInstance(ctx, entries, d)
		cancel()

		if found {
			log.Printf("Confirmed zeroconf service: %s", d.Instance())
			pub.markPublished()
			return
		}
	}
}

// waitForInstance drains entries until d's instance shows up or ctx ends
func waitForInstance(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, d probe.ServiceDescriptor) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case entry, ok := <-entries:
			if !ok {
				return false
			}
			if entry != nil && sameInstance(entry.Instance, d.Name) {
				return true
			}
		}
	}
}
