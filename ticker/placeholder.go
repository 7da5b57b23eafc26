package ticker

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	NoContentMessage = "No odds available"
	NoDataMessage    = "No odds data"
)

var (
	PlaceholderBackground = color.RGBA{A: 0xff}
	FallbackBackground    = color.RGBA{R: 50, G: 50, B: 50, A: 0xff}
	placeholderText       = color.RGBA{R: 150, G: 150, B: 150, A: 0xff}
)

// Placeholder draws msg centred on a w×h image. Text that does not fit is
// clipped rather than wrapped.
func Placeholder(w, h int, msg string, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderText),
		Face: face,
	}
	adv := d.MeasureString(msg).Ceil()
	x := (w - adv) / 2
	if x < 0 {
		x = 0
	}
	m := face.Metrics()
	textH := (m.Ascent + m.Descent).Ceil()
	y := (h-textH)/2 + m.Ascent.Ceil()
	d.Dot = fixed.P(x, y)
	d.DrawString(msg)
	return img
}
