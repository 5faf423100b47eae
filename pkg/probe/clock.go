// ABOUTME: Timer seam for the probe poll loop
// ABOUTME: Wraps time.Ticker so tests can drive ticks by hand
package probe

import "time"

// Ticker delivers repeating ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock returns a Clock backed by the time package
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }
