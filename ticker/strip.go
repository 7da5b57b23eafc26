package ticker

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	ErrNegativeGap = errors.New("ticker: gap must not be negative")
	ErrTileHeight  = errors.New("ticker: tile height does not match display height")
	ErrDisplaySize = errors.New("ticker: display size must be positive")
)

// Tile is one rendered game. The core never writes to Image.
type Tile struct {
	ID    string
	Image image.Image
}

// NewTile wraps img as a tile.
func NewTile(id string, img image.Image) Tile {
	return Tile{ID: id, Image: img}
}

func (t Tile) Width() int  { return t.Image.Bounds().Dx() }
func (t Tile) Height() int { return t.Image.Bounds().Dy() }

// StripOptions controls how tiles are laid out in a strip.
type StripOptions struct {
	Gap           int
	DisplayWidth  int
	DisplayHeight int
	Background    color.Color
	Separator     color.Color
}

// Strip is the wide composite image scrolled behind the viewport. A strip is
// never modified once built; a refresh replaces it.
type Strip struct {
	img           *image.RGBA
	contentWidth  int
	displayWidth  int
	displayHeight int
	tiles         int
	background    color.RGBA
	placeholder   bool
}

func (s *Strip) Image() *image.RGBA { return s.img }
func (s *Strip) Width() int         { return s.img.Bounds().Dx() }
func (s *Strip) Height() int        { return s.img.Bounds().Dy() }

// ContentWidth is the sum of tile widths plus the gaps between them. It
// excludes the leading and trailing padding.
func (s *Strip) ContentWidth() int  { return s.contentWidth }
func (s *Strip) DisplayWidth() int  { return s.displayWidth }
func (s *Strip) DisplayHeight() int { return s.displayHeight }
func (s *Strip) Tiles() int         { return s.tiles }

// Placeholder reports whether the strip is the "no content" image.
func (s *Strip) Placeholder() bool { return s.placeholder }

// Period is the loop length in pixels: content plus both padding regions.
func (s *Strip) Period() int { return s.contentWidth + 2*s.displayWidth }

func (o StripOptions) withDefaults() StripOptions {
	if o.Background == nil {
		o.Background = color.Black
	}
	if o.Separator == nil {
		o.Separator = color.White
	}
	return o
}

// Assemble lays tiles out left to right between two display-wide blank
// regions and draws a 1px separator in the middle of each inter-tile gap.
// An empty tile list yields the placeholder strip.
func Assemble(tiles []Tile, opts StripOptions) (*Strip, error) {
	opts = opts.withDefaults()
	if opts.DisplayWidth <= 0 || opts.DisplayHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDisplaySize, opts.DisplayWidth, opts.DisplayHeight)
	}
	if opts.Gap < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeGap, opts.Gap)
	}
	if len(tiles) == 0 {
		return placeholderStrip(opts, NoContentMessage), nil
	}

	contentWidth := opts.Gap * (len(tiles) - 1)
	for i, t := range tiles {
		if t.Image == nil {
			return nil, fmt.Errorf("ticker: tile %d (%s) has no image", i, t.ID)
		}
		if t.Height() != opts.DisplayHeight {
			return nil, fmt.Errorf("%w: tile %d (%s) is %dpx, display is %dpx", ErrTileHeight, i, t.ID, t.Height(), opts.DisplayHeight)
		}
		contentWidth += t.Width()
	}

	bg := color.RGBAModel.Convert(opts.Background).(color.RGBA)
	total := opts.DisplayWidth + contentWidth + opts.DisplayWidth
	img := image.NewRGBA(image.Rect(0, 0, total, opts.DisplayHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	x := opts.DisplayWidth
	for i, t := range tiles {
		b := t.Image.Bounds()
		draw.Draw(img, image.Rect(x, 0, x+b.Dx(), b.Dy()), t.Image, b.Min, draw.Over)
		x += b.Dx()
		if i < len(tiles)-1 {
			bar := x + opts.Gap/2
			if opts.Gap > 0 {
				for y := 0; y < opts.DisplayHeight; y++ {
					img.Set(bar, y, opts.Separator)
				}
			}
			x += opts.Gap
		}
	}

	return &Strip{
		img:           img,
		contentWidth:  contentWidth,
		displayWidth:  opts.DisplayWidth,
		displayHeight: opts.DisplayHeight,
		tiles:         len(tiles),
		background:    bg,
	}, nil
}

func placeholderStrip(opts StripOptions, msg string) *Strip {
	img := Placeholder(opts.DisplayWidth, opts.DisplayHeight, msg, PlaceholderBackground)
	return &Strip{
		img:           img,
		displayWidth:  opts.DisplayWidth,
		displayHeight: opts.DisplayHeight,
		background:    PlaceholderBackground,
		placeholder:   true,
	}
}
