// ABOUTME: Identity of the advertised probe service
// ABOUTME: Fixed DNS-SD domain, type, instance name and port
package probe

import "fmt"

// ServiceDescriptor identifies the service advertised by a probe
type ServiceDescriptor struct {
	Domain string
	Type   string
	Name   string
	Port   int
}

// DefaultDescriptor is the service every probe advertises unless overridden
var DefaultDescriptor = ServiceDescriptor{
	Domain: "local.",
	Type:   "_http._tcp",
	Name:   "LocalNetworkPrivacy",
	Port:   1100,
}

// Instance returns the fully qualified instance name, e.g.
// "LocalNetworkPrivacy._http._tcp.local."
func (d ServiceDescriptor) Instance() string {
	return fmt.Sprintf("%s.%s.%s", d.Name, d.Type, d.Domain)
}

func (d ServiceDescriptor) String() string {
	return fmt.Sprintf("%s (port %d)", d.Instance(), d.Port)
}
