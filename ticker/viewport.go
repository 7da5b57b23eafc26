package ticker

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// RenderViewport copies the display-sized window of strip that starts at
// round(position). In loop mode the window wraps to the start of the strip;
// otherwise columns past the right edge are filled with background.
func RenderViewport(strip *Strip, position float64, loop bool) *image.RGBA {
	w, h := strip.displayWidth, strip.displayHeight
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	if strip.placeholder {
		draw.Draw(frame, frame.Bounds(), strip.img, image.Point{}, draw.Src)
		return frame
	}

	sw := strip.Width()
	offset := int(math.Round(position))
	if loop {
		offset %= sw
		if offset < 0 {
			offset += sw
		}
	} else {
		draw.Draw(frame, frame.Bounds(), image.NewUniform(strip.background), image.Point{}, draw.Src)
		if offset < 0 {
			offset = 0
		}
	}

	// Main slice, up to the strip's right edge.
	n := min(w, sw-offset)
	if n > 0 {
		draw.Draw(frame, image.Rect(0, 0, n, h), strip.img, image.Pt(offset, 0), draw.Src)
	}
	if !loop || n >= w {
		return frame
	}

	// Wrap-around tail from the start of the strip.
	for dst := max(n, 0); dst < w; {
		take := min(w-dst, sw)
		draw.Draw(frame, image.Rect(dst, 0, dst+take, h), strip.img, image.Point{}, draw.Src)
		dst += take
	}
	return frame
}
