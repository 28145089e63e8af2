// Package clock provides countdown and periodic timers driven by host tick messages.
//
// A Clock never starts goroutines. Start hands back a Schedule that the host turns
// into a delayed message (for example with tea.Tick); when the message arrives the
// host calls Tick with the generation it carried. Every Pause, Reset or Stop bumps the
// generation, so messages scheduled before it are recognised as stale and dropped.
package clock

import "time"

// DefaultInterval is the tick interval used when Start is given a non-positive one.
const DefaultInterval = time.Second

// Event is emitted by Tick.
type Event int

const (
	// EventNone means the tick was stale or the clock was not running.
	EventNone Event = iota
	// EventTick is a regular interval tick.
	EventTick
	// EventExpired is the terminal tick of a countdown.
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventExpired:
		return "expired"
	default:
		return "none"
	}
}

// Schedule asks the host to deliver Tick(Gen) after Interval.
type Schedule struct {
	Interval time.Duration
	Gen      uint64
}

// State is a copy of the timer state.
type State struct {
	Remaining time.Duration
	Running   bool
	Expired   bool
}

// Clock is a single countdown or periodic timer.
type Clock struct {
	periodic  bool
	interval  time.Duration
	remaining time.Duration
	running   bool
	expired   bool
	gen       uint64
	ticks     int64
}

// New returns a stopped countdown clock with the given duration.
func New(d time.Duration) *Clock {
	return &Clock{remaining: clampDuration(d), interval: DefaultInterval}
}

// NewPeriodic returns a stopped clock that ticks forever and never expires.
func NewPeriodic() *Clock {
	return &Clock{periodic: true, interval: DefaultInterval}
}

// Start begins ticking. It reports false when the clock is already running or a
// countdown has nothing left to count.
func (c *Clock) Start(interval time.Duration) (Schedule, bool) {
	if c.running {
		return Schedule{}, false
	}
	if !c.periodic && (c.expired || c.remaining <= 0) {
		return Schedule{}, false
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	c.interval = interval
	c.running = true
	c.gen++
	return Schedule{Interval: c.interval, Gen: c.gen}, true
}

// Pause stops ticking and invalidates outstanding schedules. Remaining time is kept.
func (c *Clock) Pause() {
	if !c.running {
		return
	}
	c.running = false
	c.gen++
}

// Reset stops the clock and rearms the countdown with d.
func (c *Clock) Reset(d time.Duration) {
	c.running = false
	c.expired = false
	c.remaining = clampDuration(d)
	c.ticks = 0
	c.gen++
}

// Stop halts the clock for teardown; no outstanding tick will be honoured.
func (c *Clock) Stop() {
	c.running = false
	c.gen++
}

// Tick processes a host tick message. The returned schedule is valid only when
// the event is EventTick and the clock keeps running.
func (c *Clock) Tick(gen uint64) (Event, Schedule, bool) {
	if !c.running || gen != c.gen {
		return EventNone, Schedule{}, false
	}
	c.ticks++
	if c.periodic {
		return EventTick, Schedule{Interval: c.interval, Gen: c.gen}, true
	}
	c.remaining -= c.interval
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		c.expired = true
		c.gen++
		return EventExpired, Schedule{}, false
	}
	return EventTick, Schedule{Interval: c.interval, Gen: c.gen}, true
}

// Gen returns the current generation.
func (c *Clock) Gen() uint64 {
	return c.gen
}

// Ticks returns the number of ticks honoured since the last reset.
func (c *Clock) Ticks() int64 {
	return c.ticks
}

// Remaining returns the time left on the countdown.
func (c *Clock) Remaining() time.Duration {
	return c.remaining
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	return c.running
}

// Expired reports whether the current countdown has reached zero.
func (c *Clock) Expired() bool {
	return c.expired
}

// State returns a copy of the timer state.
func (c *Clock) State() State {
	return State{Remaining: c.remaining, Running: c.running, Expired: c.expired}
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
