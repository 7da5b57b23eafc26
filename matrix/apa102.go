// Package matrix drives an APA102 LED matrix over SPI.
package matrix

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	maxBrightness = 31
	blankTimeout  = time.Second
)

// Layout describes how the LEDs are chained.
type Layout struct {
	Width  int
	Height int
	// Serpentine panels run odd rows right to left.
	Serpentine bool
	// Brightness is the APA102 global brightness, 0 to 31.
	Brightness uint8
}

func (l Layout) pixels() int { return l.Width * l.Height }

// Encode appends the APA102 stream for img to dst: a zero start frame, one
// BGR frame per LED and enough trailing ones to clock the last LED out.
// Pixels outside img are sent dark.
func Encode(dst []byte, img image.Image, l Layout) []byte {
	n := l.pixels()
	brightness := l.Brightness
	if brightness > maxBrightness {
		brightness = maxBrightness
	}
	header := 0xE0 | brightness

	dst = append(dst, 0, 0, 0, 0)
	b := img.Bounds()
	for y := 0; y < l.Height; y++ {
		for i := 0; i < l.Width; i++ {
			x := i
			if l.Serpentine && y%2 == 1 {
				x = l.Width - 1 - i
			}
			p := image.Pt(b.Min.X+x, b.Min.Y+y)
			var c color.RGBA
			if p.In(b) {
				c = color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
			}
			dst = append(dst, header, c.B, c.G, c.R)
		}
	}
	end := (n + 15) / 16
	if end < 4 {
		end = 4
	}
	for range end {
		dst = append(dst, 0xFF)
	}
	return dst
}

// Display writes frames to an SPI connection. It implements the host's
// Display interface.
type Display struct {
	mu     sync.Mutex
	conn   spi.Conn
	port   spi.PortCloser
	layout Layout
	buf    []byte
	logger *slog.Logger
}

func New(c spi.Conn, layout Layout, logger *slog.Logger) *Display {
	if logger == nil {
		logger = slog.Default()
	}
	return &Display{conn: c, layout: layout, logger: logger}
}

// Options selects and configures the SPI port.
type Options struct {
	Port     string
	SpeedKHz int
	Layout   Layout
	Logger   *slog.Logger
}

// Open initializes the host drivers and connects to the named SPI port.
func Open(opts Options) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	port, err := spireg.Open(opts.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", opts.Port, err)
	}
	c, err := port.Connect(physic.Frequency(opts.SpeedKHz)*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect to SPI port %q: %w", opts.Port, err)
	}
	d := New(c, opts.Layout, opts.Logger)
	d.port = port
	d.logger.Info("LED matrix connected", "port", opts.Port, "width", opts.Layout.Width, "height", opts.Layout.Height)
	return d, nil
}

// Show encodes the frame and writes it in chunks no larger than the
// connection allows.
func (d *Display) Show(ctx context.Context, frame image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.show(ctx, frame)
}

func (d *Display) show(ctx context.Context, frame image.Image) error {
	d.buf = Encode(d.buf[:0], frame, d.layout)
	chunk := len(d.buf)
	if l, ok := d.conn.(conn.Limits); ok && l.MaxTxSize() > 0 {
		chunk = l.MaxTxSize()
	}
	for off := 0; off < len(d.buf); off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+chunk, len(d.buf))
		if err := d.conn.Tx(d.buf[off:end], nil); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}
	return nil
}

// Close blanks the panel and releases the port. A write still in flight
// means the panel is stuck, so it is closed without blanking.
func (d *Display) Close() error {
	var err error
	if d.mu.TryLock() {
		ctx, cancel := context.WithTimeout(context.Background(), blankTimeout)
		err = d.show(ctx, image.NewRGBA(image.Rect(0, 0, d.layout.Width, d.layout.Height)))
		cancel()
		d.mu.Unlock()
	} else {
		d.logger.Warn("LED matrix busy, closing without blanking")
	}
	if d.port != nil {
		if cerr := d.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
