// ABOUTME: Local network permission probe package
// ABOUTME: Infers permission state from a timed mDNS advertisement attempt
// Package probe checks whether the hosting application may use the local
// network.
//
// Mobile platforms expose no direct query for local network permission. The
// probe publishes a dummy DNS-SD service while the application is in the
// foreground and watches whether the publication completes. Success means
// access is granted; one extra poll interval without success is reported as
// not granted. A pending permission dialog and an actual denial look the same.
//
// Example:
//
//	p := probe.New(adv, tracker)
//	defer p.Close()
//	err := p.Start(func(granted bool) {
//	    fmt.Println("local network access:", granted)
//	})
package probe
