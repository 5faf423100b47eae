// ABOUTME: PermissionProbe state machine and poll loop
// ABOUTME: Advertises once while foregrounded and reports granted/denied via callback
package probe

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// PollInterval is the fixed cadence of the probe loop
const PollInterval = 2 * time.Second

var (
	// ErrAlreadyStarted is returned when Start is called on a running probe
	ErrAlreadyStarted = errors.New("probe already started")
	// ErrClosed is returned when Start is called after Close
	ErrClosed = errors.New("probe closed")
	// ErrNilCallback is returned when Start is given no result callback
	ErrNilCallback = errors.New("probe result callback is nil")
)

// Foreground reports whether the hosting application is visible and active
type Foreground interface {
	Active() bool
}

// ForegroundFunc adapts a plain function to Foreground
type ForegroundFunc func() bool

// Active calls f
func (f ForegroundFunc) Active() bool { return f() }

// Publication is an in-flight service advertisement
type Publication interface {
	// Published is closed once the advertisement is confirmed on the network
	Published() <-chan struct{}
	// Stop withdraws the advertisement
	Stop()
}

// Advertiser publishes a service descriptor on the local network
type Advertiser interface {
	Advertise(ctx context.Context, d ServiceDescriptor) (Publication, error)
}

// State is the probe's position in its state machine
type State int32

const (
	StateIdle State = iota
	StateWaitingForForeground
	StatePublishing
	StateGranted
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForForeground:
		return "waiting-for-foreground"
	case StatePublishing:
		return "publishing"
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	}
	return "unknown"
}

// Resolved reports whether s is terminal
func (s State) Resolved() bool {
	return s == StateGranted || s == StateDenied
}

// Option configures a Probe
type Option func(*Probe)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(p *Probe) { p.clock = c }
}

// WithDescriptor replaces DefaultDescriptor
func WithDescriptor(d ServiceDescriptor) Option {
	return func(p *Probe) { p.descriptor = d }
}

// Probe is a single-use local network permission check
type Probe struct {
	advertiser Advertiser
	foreground Foreground
	clock      Clock
	descriptor ServiceDescriptor

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	state atomic.Int32
}

// New creates an idle probe
func New(adv Advertiser, fg Foreground, opts ...Option) *Probe {
	p := &Probe{
		advertiser: adv,
		foreground: fg,
		clock:      SystemClock(),
		descriptor: DefaultDescriptor,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state
func (p *Probe) State() State {
	return State(p.state.Load())
}

// Done is closed when the probe loop has exited, whether it resolved or was
// closed. The result callback runs after Done is closed.
func (p *Probe) Done() <-chan struct{} {
	return p.done
}

// Start begins polling every PollInterval. onResult is called at most once,
// from the probe's own goroutine.
func (p *Probe) Start(onResult func(granted bool)) error {
	if onResult == nil {
		return ErrNilCallback
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	s := &session{
		id:         uuid.NewString(),
		advertiser: p.advertiser,
		foreground: p.foreground,
		descriptor: p.descriptor,
		ticker:     p.clock.NewTicker(PollInterval),
		state:      &p.state,
	}
	s.setState(StateWaitingForForeground)

	log.Printf("Probe %s started for %s", s.id, s.descriptor)

	go func() {
		granted, resolved := s.run(ctx)
		close(p.done)
		if resolved {
			onResult(granted)
		}
	}()

	return nil
}

// Close stops the timer and withdraws any advertisement. An unresolved probe
// never reports a result after Close. Close waits for the probe loop to exit
// and is safe to call more than once, including from the result callback.
// If the probe resolved before Close was called, onResult may still be
// running, or about to run, when Close returns.
func (p *Probe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.closed = true
	started := p.started
	cancel := p.cancel
	p.mu.Unlock()

	if !started {
		close(p.done)
		return nil
	}

	cancel()
	<-p.done
	return nil
}

// session holds the state of one in-flight check. Only the loop goroutine
// touches it.
type session struct {
	id          string
	advertiser  Advertiser
	foreground  Foreground
	descriptor  ServiceDescriptor
	ticker      Ticker
	publication Publication
	released    bool

	state *atomic.Int32
}

func (s *session) current() State {
	return State(s.state.Load())
}

func (s *session) setState(st State) {
	s.state.Store(int32(st))
}

// published returns nil (blocks forever in select) until a publication exists
func (s *session) published() <-chan struct{} {
	if s.publication == nil {
		return nil
	}
	return s.publication.Published()
}

func (s *session) run(ctx context.Context) (granted, resolved bool) {
	defer s.release()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Probe %s closed while %s", s.id, s.current())
			return false, false
		case <-s.ticker.C():
			if ctx.Err() != nil {
				return false, false
			}
			if done, ok := s.tick(ctx); done {
				return ok, true
			}
		case <-s.published():
			if ctx.Err() != nil {
				return false, false
			}
			s.resolve(true)
			return true, true
		}
	}
}

// tick advances the state machine by one poll
func (s *session) tick(ctx context.Context) (done, granted bool) {
	if !s.foreground.Active() {
		return false, false
	}

	switch s.current() {
	case StateWaitingForForeground:
		s.setState(StatePublishing)
		pub, err := s.advertiser.Advertise(ctx, s.descriptor)
		if err != nil {
			log.Printf("Probe %s advertisement failed: %v", s.id, err)
			return false, false
		}
		s.publication = pub
		log.Printf("Probe %s advertising %s", s.id, s.descriptor.Instance())
		return false, false
	case StatePublishing:
		// A tick can be queued behind a confirmation that already happened
		select {
		case <-s.published():
			s.resolve(true)
			return true, true
		default:
		}
		log.Printf("Probe %s advertisement not confirmed within one poll interval", s.id)
		s.resolve(false)
		return true, false
	}
	return false, false
}

func (s *session) resolve(granted bool) {
	s.release()
	if granted {
		s.setState(StateGranted)
	} else {
		s.setState(StateDenied)
	}
	log.Printf("Probe %s resolved: %s", s.id, s.current())
}

// release stops the ticker and withdraws the advertisement together
func (s *session) release() {
	if s.released {
		return
	}
	s.released = true
	s.ticker.Stop()
	if s.publication != nil {
		s.publication.Stop()
	}
}
