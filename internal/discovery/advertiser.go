// ABOUTME: Advertiser backend selection and shared publication handle
// ABOUTME: Backends publish the probe service and confirm it with a self-lookup
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
)

// Backend names accepted by NewAdvertiser
const (
	BackendMDNS     = "mdns"
	BackendZeroconf = "zeroconf"
)

var (
	// ErrUnknownBackend is returned for an unrecognised backend name
	ErrUnknownBackend = errors.New("unknown discovery backend")
	// ErrNoInterface is returned when no IPv4 interface is up
	ErrNoInterface = errors.New("no usable IPv4 interface")
)

// NewAdvertiser returns the advertiser for the named backend. An empty name
// selects the mdns backend.
func NewAdvertiser(backend string) (probe.Advertiser, error) {
	switch backend {
	case "", BackendMDNS:
		return &MDNSAdvertiser{}, nil
	case BackendZeroconf:
		return &ZeroconfAdvertiser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// publication is the handle returned by both backends
type publication struct {
	published chan struct{}
	pubOnce   sync.Once

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	shutdown func()
}

func newPublication(parent context.Context, shutdown func()) *publication {
	ctx, cancel := context.WithCancel(parent)
	return &publication{
		published: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		shutdown:  shutdown,
	}
}

// Published is closed once the service has been seen on the network
func (p *publication) Published() <-chan struct{} {
	return p.published
}

// Stop cancels the self-lookup and withdraws the service
func (p *publication) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		if p.shutdown != nil {
			p.shutdown()
		}
	})
}

func (p *publication) markPublished() {
	p.pubOnce.Do(func() { close(p.published) })
}

func (p *publication) isPublished() bool {
	select {
	case <-p.published:
		return true
	default:
		return false
	}
}

// sameInstance compares DNS names ignoring case and the trailing dot
func sameInstance(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
