package ticker

import (
	"math"
	"time"
)

// DurationEstimate is the recommended on-screen time for one scroll pass.
type DurationEstimate struct {
	ScrollSeconds float64
	BufferSeconds float64
	TotalSeconds  float64
}

// Duration returns TotalSeconds as a time.Duration.
func (d DurationEstimate) Duration() time.Duration {
	return time.Duration(d.TotalSeconds * float64(time.Second))
}

// EstimateDuration derives how long the content needs on screen:
// contentWidth/pixelsPerSecond plus a fractional buffer, clamped to
// [minSeconds, maxSeconds]. A non-positive rate yields minSeconds.
func EstimateDuration(contentWidth int, pixelsPerSecond, bufferFraction, minSeconds, maxSeconds float64) DurationEstimate {
	if maxSeconds < minSeconds {
		maxSeconds = minSeconds
	}
	if pixelsPerSecond <= 0 || math.IsNaN(pixelsPerSecond) || math.IsInf(pixelsPerSecond, 0) {
		return DurationEstimate{TotalSeconds: minSeconds}
	}
	if contentWidth < 0 {
		contentWidth = 0
	}
	if bufferFraction < 0 {
		bufferFraction = 0
	}

	scroll := float64(contentWidth) / pixelsPerSecond
	buffer := scroll * bufferFraction
	total := math.Max(minSeconds, math.Min(maxSeconds, scroll+buffer))
	return DurationEstimate{
		ScrollSeconds: scroll,
		BufferSeconds: buffer,
		TotalSeconds:  total,
	}
}
