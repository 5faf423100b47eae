// ABOUTME: hashicorp/mdns advertiser backend
// ABOUTME: Serves the probe zone and polls for it until it answers
package discovery

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	"github.com/hashicorp/mdns"
)

// mdnsQueryTimeout bounds each self-lookup round
const mdnsQueryTimeout = time.Second

// MDNSAdvertiser publishes services with hashicorp/mdns
type MDNSAdvertiser struct{}

// Advertise starts an mDNS responder for d and returns once it is listening.
// The publication is marked published when a query for d.Type sees d's
// instance answer.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, d probe.ServiceDescriptor) (probe.Publication, error) {
	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IPs: %w", err)
	}
	if len(ips) == 0 {
		return nil, ErrNoInterface
	}

	service, err := mdns.NewMDNSService(
		d.Name,
		d.Type,
		d.Domain,
		"",
		d.Port,
		ips,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to create mdns server: %w", err)
	}

	pub := newPublication(ctx, func() {
		if err := server.Shutdown(); err != nil {
			log.Printf("mDNS shutdown failed: %v", err)
		}
	})

	log.Printf("Advertising mDNS service: %s on port %d", d.Instance(), d.Port)

	go a.confirmLoop(pub, d)

	return pub, nil
}

// confirmLoop queries for the service type until our own instance answers
func (a *MDNSAdvertiser) confirmLoop(pub *publication, d probe.ServiceDescriptor) {
	for {
		select {
		case <-pub.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		seen := make(chan struct{})

		go func() {
			defer close(seen)
			for entry := range entries {
				if sameInstance(entry.Name, d.Instance()) {
					log.Printf("Confirmed mDNS service: %s", entry.Name)
					pub.markPublished()
				}
			}
		}()

		params := &mdns.QueryParam{
			Service:     d.Type,
			Domain:      strings.TrimSuffix(d.Domain, "."),
			Timeout:     mdnsQueryTimeout,
			Entries:     entries,
			DisableIPv6: true,
		}

		if err := mdns.QueryContext(pub.ctx, params); err != nil && pub.ctx.Err() == nil {
			log.Printf("mDNS self-lookup failed: %v", err)
		}
		close(entries)
		<-seen

		if pub.isPublished() {
			return
		}
	}
}
