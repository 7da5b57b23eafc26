package ticker

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	c1 = color.RGBA{R: 10, A: 0xff}
	c2 = color.RGBA{R: 20, A: 0xff}
	c3 = color.RGBA{R: 30, A: 0xff}
	c4 = color.RGBA{R: 40, A: 0xff}
	c5 = color.RGBA{R: 50, A: 0xff}
)

// smallStrip is 15px wide: 4 blank, A(3), gap with separator at 8, B(2), 4 blank.
func smallStrip(t *testing.T, bg color.Color) *Strip {
	t.Helper()
	strip, err := Assemble([]Tile{
		columnTile("a", 2, c1, c2, c3),
		columnTile("b", 2, c4, c5),
	}, StripOptions{Gap: 2, DisplayWidth: 4, DisplayHeight: 2, Background: bg})
	require.NoError(t, err)
	require.Equal(t, 15, strip.Width())
	require.Equal(t, 7, strip.ContentWidth())
	return strip
}

func row(img *image.RGBA) []color.RGBA {
	var out []color.RGBA
	for x := 0; x < img.Bounds().Dx(); x++ {
		out = append(out, img.RGBAAt(x, 1))
	}
	return out
}

func TestRenderViewport_Windows(t *testing.T) {
	strip := smallStrip(t, nil)

	tests := []struct {
		name     string
		position float64
		loop     bool
		want     []color.RGBA
	}{
		{"start is blank", 0, true, []color.RGBA{black, black, black, black}},
		{"first tile at left edge", 4, true, []color.RGBA{c1, c2, c3, black}},
		{"rounds position", 4.6, true, []color.RGBA{c2, c3, black, white}},
		{"separator and second tile", 7, true, []color.RGBA{black, white, c4, c5}},
		{"content enters from the right", 2, false, []color.RGBA{black, black, c1, c2}},
		{"wrap shows leading padding", 13, true, []color.RGBA{black, black, black, black}},
		{"single pass clamps to background", 13, false, []color.RGBA{black, black, black, black}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := RenderViewport(strip, tt.position, tt.loop)
			assert.Equal(t, image.Rect(0, 0, 4, 2), frame.Bounds())
			assert.Equal(t, tt.want, row(frame))
		})
	}
}

func TestRenderViewport_LoopIsPeriodic(t *testing.T) {
	strip := smallStrip(t, nil)
	period := float64(strip.Period())

	for p := 0.0; p < 2*period; p++ {
		a := RenderViewport(strip, p, true)
		b := RenderViewport(strip, p+period, true)
		assert.Equal(t, a.Pix, b.Pix, "position %v", p)
	}

	// A full content cycle lands back on the blank start.
	assert.Equal(t, RenderViewport(strip, 0, true).Pix, RenderViewport(strip, period, true).Pix)
}

func TestRenderViewport_SinglePassPadsWithBackground(t *testing.T) {
	navy := color.RGBA{B: 80, A: 0xff}
	strip := smallStrip(t, navy)

	frame := RenderViewport(strip, 13, false)
	assert.Equal(t, []color.RGBA{navy, navy, navy, navy}, row(frame))

	frame = RenderViewport(strip, 9, false)
	assert.Equal(t, []color.RGBA{c4, c5, navy, navy}, row(frame))
}

func TestRenderViewport_Placeholder(t *testing.T) {
	strip, err := Assemble(nil, StripOptions{DisplayWidth: 64, DisplayHeight: 32})
	require.NoError(t, err)

	frame := RenderViewport(strip, 37, true)
	assert.Equal(t, image.Rect(0, 0, 64, 32), frame.Bounds())
	assert.Equal(t, strip.Image().Pix, frame.Pix)
}
