package ticker

import (
	"fmt"
	"math"
	"time"
)

// Model selects how the scroll speed is interpreted.
type Model int

const (
	// ModelFrame advances Speed pixels on every qualifying tick.
	ModelFrame Model = iota
	// ModelTime treats Speed as pixels per second of elapsed wall time.
	ModelTime
)

func (m Model) String() string {
	switch m {
	case ModelFrame:
		return "frame"
	case ModelTime:
		return "time"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel accepts "frame" or "time".
func ParseModel(s string) (Model, error) {
	switch s {
	case "", "frame":
		return ModelFrame, nil
	case "time":
		return ModelTime, nil
	}
	return ModelFrame, fmt.Errorf("ticker: unknown scroll model %q", s)
}

// State is the scroll clock's coarse position in its lifecycle.
type State int

const (
	Idle State = iota
	Scrolling
	Wrapped
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scrolling:
		return "scrolling"
	case Wrapped:
		return "wrapped"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ClockConfig describes the scroll speed model.
type ClockConfig struct {
	Model Model
	// Speed is pixels per tick for ModelFrame and pixels per second for ModelTime.
	Speed float64
	// Delay is the minimum spacing between qualifying ticks.
	Delay time.Duration
	Loop  bool
	// MaxCatchUp caps the elapsed time credited to a single ModelTime tick.
	// Zero means five times Delay, and never less than 250ms.
	MaxCatchUp time.Duration
}

// PixelsPerSecond is the effective scroll rate of the configured model.
func (c ClockConfig) PixelsPerSecond() float64 {
	switch c.Model {
	case ModelTime:
		return c.Speed
	default:
		if c.Delay <= 0 {
			return 0
		}
		return c.Speed / c.Delay.Seconds()
	}
}

func (c ClockConfig) catchUp() time.Duration {
	if c.MaxCatchUp > 0 {
		return c.MaxCatchUp
	}
	return max(5*c.Delay, 250*time.Millisecond)
}

func (c *Clock) tolerance() time.Duration {
	if c.cfg.Model != ModelFrame {
		return 0
	}
	return c.cfg.Delay / 100
}

// TickResult describes what a single Tick did.
type TickResult struct {
	Advanced  bool
	Wrapped   bool
	JustEnded bool
	Position  float64
}

// Clock advances a scroll position over a strip. It has no goroutines or
// timers: if nobody calls Tick, nothing moves.
type Clock struct {
	cfg          ClockConfig
	contentWidth int
	displayWidth int

	position   float64
	last       time.Time
	endReached bool
	wraps      int
	state      State
}

// NewClock returns an idle clock.
func NewClock(cfg ClockConfig) *Clock {
	return &Clock{cfg: cfg}
}

func (c *Clock) Config() ClockConfig { return c.cfg }

// SetContent sets the geometry of the strip being scrolled.
func (c *Clock) SetContent(contentWidth, displayWidth int) {
	c.contentWidth = contentWidth
	c.displayWidth = displayWidth
}

func (c *Clock) Position() float64 { return c.position }
func (c *Clock) EndReached() bool  { return c.endReached }
func (c *Clock) Wraps() int        { return c.wraps }
func (c *Clock) State() State      { return c.state }

// Period is the loop length: content plus leading and trailing padding.
func (c *Clock) Period() float64 {
	return float64(c.contentWidth + 2*c.displayWidth)
}

// Limit is the single-pass stop position, the first offset at which the
// viewport's right-most column shows the last column of content.
func (c *Clock) Limit() float64 {
	if c.contentWidth < 0 {
		return 0
	}
	return float64(c.contentWidth)
}

// Remaining is the distance left before the current pass is complete.
func (c *Clock) Remaining() float64 {
	var end float64
	if c.cfg.Loop {
		end = c.Period()
	} else {
		end = c.Limit()
	}
	return math.Max(0, end-c.position)
}

// Reset returns the clock to Idle at position 0.
func (c *Clock) Reset() {
	c.position = 0
	c.last = time.Time{}
	c.endReached = false
	c.wraps = 0
	c.state = Idle
}

// Rewind moves back to position 0 without clearing the wrap count or the
// end-reached flag.
func (c *Clock) Rewind() {
	c.position = 0
	c.last = time.Time{}
	if !c.endReached {
		c.state = Idle
	}
}

// Tick advances the position if at least Delay has passed since the last
// qualifying tick. In the frame model a tick up to Delay/100 early still
// qualifies, and qualifying ticks stay on a Delay grid while the caller keeps
// up, so sampling jitter does not slow the scroll.
func (c *Clock) Tick(now time.Time) TickResult {
	res := TickResult{Position: c.position}
	if c.endReached {
		return res
	}
	if !c.last.IsZero() && now.Sub(c.last) < c.cfg.Delay-c.tolerance() {
		return res
	}

	var step float64
	switch c.cfg.Model {
	case ModelTime:
		if !c.last.IsZero() {
			elapsed := now.Sub(c.last)
			if ceiling := c.cfg.catchUp(); elapsed > ceiling {
				elapsed = ceiling
			}
			step = c.cfg.Speed * elapsed.Seconds()
		}
	default:
		step = c.cfg.Speed
	}
	if c.cfg.Model == ModelFrame && !c.last.IsZero() && c.cfg.Delay > 0 && now.Sub(c.last) < 2*c.cfg.Delay {
		c.last = c.last.Add(c.cfg.Delay)
	} else {
		c.last = now
	}
	if step <= 0 {
		return res
	}

	c.position += step
	res.Advanced = true
	c.state = Scrolling

	if c.cfg.Loop {
		if p := c.Period(); p > 0 && c.position >= p {
			c.position = math.Mod(c.position, p)
			c.wraps++
			c.state = Wrapped
			res.Wrapped = true
		}
	} else if limit := c.Limit(); c.position >= limit {
		c.position = limit
		c.endReached = true
		c.state = Ended
		res.JustEnded = true
	}

	res.Position = c.position
	return res
}
