// ABOUTME: Application lifecycle stage tracking
// ABOUTME: Answers the probe's foreground query from shell lifecycle events
package foreground

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
)

// Stage is the lifecycle stage of the hosting application
type Stage int32

const (
	// StagePaused means the application is not visible to the user
	StagePaused Stage = iota
	// StageRunning means the application is visible and active
	StageRunning
)

func (s Stage) String() string {
	switch s {
	case StagePaused:
		return "paused"
	case StageRunning:
		return "running"
	}
	return "unknown"
}

// Tracker holds the latest stage reported by the shell. The zero value is
// paused. Safe for concurrent use.
type Tracker struct {
	stage atomic.Int32
}

// NewTracker creates a tracker starting at the given stage
func NewTracker(initial Stage) *Tracker {
	t := &Tracker{}
	t.Set(initial)
	return t
}

// Set records a stage change
func (t *Tracker) Set(s Stage) {
	t.stage.Store(int32(s))
}

// Stage returns the current stage
func (t *Tracker) Stage() Stage {
	return Stage(t.stage.Load())
}

// Active reports whether the application is running
func (t *Tracker) Active() bool {
	return t.Stage() == StageRunning
}

// Always is for shells without a lifecycle; it is always in the foreground
var Always probe.Foreground = probe.ForegroundFunc(func() bool { return true })
