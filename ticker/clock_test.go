package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 10, 4, 19, 30, 0, 0, time.UTC)

func TestClock_FrameModel(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 2, Delay: 50 * time.Millisecond, Loop: true})
	c.SetContent(1000, 128)

	now := epoch
	for i := 0; i < 10; i++ {
		res := c.Tick(now)
		assert.True(t, res.Advanced, "tick %d", i)
		now = now.Add(50 * time.Millisecond)
	}

	assert.Equal(t, 20.0, c.Position())
	assert.Equal(t, Scrolling, c.State())
	assert.InDelta(t, 40.0, c.Config().PixelsPerSecond(), 1e-9)
}

func TestClock_TicksInsideDelayDoNotAdvance(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 2, Delay: 50 * time.Millisecond, Loop: true})
	c.SetContent(1000, 128)

	c.Tick(epoch)
	res := c.Tick(epoch.Add(10 * time.Millisecond))
	assert.False(t, res.Advanced)
	res = c.Tick(epoch.Add(49 * time.Millisecond))
	assert.False(t, res.Advanced)
	res = c.Tick(epoch.Add(50 * time.Millisecond))
	assert.True(t, res.Advanced)

	assert.Equal(t, 4.0, c.Position())
}

func TestClock_FrameModelKeepsRateUnderJitter(t *testing.T) {
	tests := []struct {
		name   string
		sample func(i int) time.Time
		ticks  int
		want   float64
	}{
		{
			name: "ticker at the delay, every other tick slightly early",
			sample: func(i int) time.Time {
				at := epoch.Add(time.Duration(i) * 20 * time.Millisecond)
				if i%2 == 1 {
					at = at.Add(-100 * time.Microsecond)
				}
				return at
			},
			ticks: 100,
			want:  200,
		},
		{
			name: "sampling faster than the delay",
			sample: func(i int) time.Time {
				return epoch.Add(time.Duration(i) * 7 * time.Millisecond)
			},
			ticks: 287,
			want:  202,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(ClockConfig{Model: ModelFrame, Speed: 2, Delay: 20 * time.Millisecond, Loop: true})
			c.SetContent(100000, 128)
			for i := 0; i < tt.ticks; i++ {
				c.Tick(tt.sample(i))
			}
			assert.InDelta(t, tt.want, c.Position(), 2)
		})
	}
}

func TestClock_TimeModel(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelTime, Speed: 20, Delay: 10 * time.Millisecond, Loop: true, MaxCatchUp: time.Second})
	c.SetContent(1000, 128)

	now := epoch
	res := c.Tick(now)
	assert.False(t, res.Advanced, "first tick only records the time")

	// Irregular spacing covering one second in total.
	for _, step := range []time.Duration{100, 250, 50, 300, 200, 100} {
		now = now.Add(step * time.Millisecond)
		c.Tick(now)
	}

	assert.InDelta(t, 20.0, c.Position(), 1e-6)
	assert.Equal(t, 20.0, c.Config().PixelsPerSecond())
}

func TestClock_TimeModelCapsCatchUp(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelTime, Speed: 100, Delay: 10 * time.Millisecond, Loop: true, MaxCatchUp: 100 * time.Millisecond})
	c.SetContent(1000, 128)

	c.Tick(epoch)
	c.Tick(epoch.Add(30 * time.Second))

	assert.InDelta(t, 10.0, c.Position(), 1e-9)
}

func TestClock_LoopWraps(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 7, Loop: true})
	c.SetContent(100, 10)
	assert.Equal(t, 120.0, c.Period())

	now := epoch
	var wrapped bool
	for i := 0; i < 18; i++ {
		res := c.Tick(now)
		wrapped = wrapped || res.Wrapped
		now = now.Add(time.Millisecond)
	}

	assert.True(t, wrapped)
	assert.Equal(t, 6.0, c.Position())
	assert.Equal(t, 1, c.Wraps())
	assert.False(t, c.EndReached())
}

func TestClock_SinglePassStops(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 7, Loop: false})
	c.SetContent(50, 10)
	assert.Equal(t, 50.0, c.Limit())

	now := epoch
	ended := 0
	for i := 0; i < 8; i++ {
		if c.Tick(now).JustEnded {
			ended++
		}
		now = now.Add(time.Millisecond)
	}
	assert.Equal(t, 1, ended)
	assert.Equal(t, 50.0, c.Position())
	assert.True(t, c.EndReached())
	assert.Equal(t, Ended, c.State())

	for i := 0; i < 20; i++ {
		res := c.Tick(now)
		assert.False(t, res.Advanced)
		assert.False(t, res.JustEnded)
		assert.Equal(t, 50.0, c.Position())
		assert.True(t, c.EndReached())
		now = now.Add(time.Second)
	}
}

func TestClock_ResetIsIdempotent(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 30, Loop: false})
	c.SetContent(50, 10)
	c.Tick(epoch)
	c.Tick(epoch.Add(time.Second))
	assert.True(t, c.EndReached())

	c.Reset()
	assert.Equal(t, 0.0, c.Position())
	assert.False(t, c.EndReached())
	assert.Equal(t, Idle, c.State())

	c.Reset()
	assert.Equal(t, 0.0, c.Position())
	assert.False(t, c.EndReached())
	assert.Equal(t, Idle, c.State())

	// The first tick after a reset qualifies immediately.
	assert.True(t, c.Tick(epoch.Add(time.Second)).Advanced)
}

func TestClock_Remaining(t *testing.T) {
	c := NewClock(ClockConfig{Model: ModelFrame, Speed: 10, Loop: false})
	c.SetContent(50, 10)
	c.Tick(epoch)
	assert.Equal(t, 40.0, c.Remaining())

	looping := NewClock(ClockConfig{Model: ModelFrame, Speed: 10, Loop: true})
	looping.SetContent(50, 10)
	looping.Tick(epoch)
	assert.Equal(t, 60.0, looping.Remaining())
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("time")
	assert.NoError(t, err)
	assert.Equal(t, ModelTime, m)

	m, err = ParseModel("")
	assert.NoError(t, err)
	assert.Equal(t, ModelFrame, m)

	_, err = ParseModel("warp")
	assert.Error(t, err)
}
