package tiles

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sports "espn-odds-ticker"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const defaultFontSize = 8

// Fonts holds one face per text element of a game tile.
type Fonts struct {
	Team     font.Face
	Odds     font.Face
	DateTime font.Face
}

// LoadFonts loads the customization fonts from dir.
func LoadFonts(dir string, c sports.Customization, logger *slog.Logger) Fonts {
	return Fonts{
		Team:     LoadFace(dir, c.TeamText, logger),
		Odds:     LoadFace(dir, c.OddsText, logger),
		DateTime: LoadFace(dir, c.DatetimeText, logger),
	}
}

// LoadFace opens a TrueType or OpenType font from dir. When the file is
// missing or unreadable it falls back to Go Regular at the same size, and to
// basicfont if even that fails. Failures are logged, never returned.
func LoadFace(dir string, fc sports.FontConfig, logger *slog.Logger) font.Face {
	if logger == nil {
		logger = slog.Default()
	}
	size := fc.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	if fc.Font != "" {
		face, err := openFace(filepath.Join(dir, fc.Font), size)
		if err == nil {
			logger.Debug("Loaded font", "font", fc.Font, "size", size)
			return face
		}
		logger.Warn("Could not load font, using default", "font", fc.Font, "error", err)
	}

	face, err := parseFace(goregular.TTF, size)
	if err != nil {
		logger.Error("Error loading default font", "error", err)
		return basicfont.Face7x13
	}
	return face
}

func openFace(path string, size float64) (font.Face, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
	default:
		return nil, fmt.Errorf("unsupported font type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFace(data, size)
}

func parseFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// textWidth is the advance of s in whole pixels.
func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// lineHeight is ascent plus descent in whole pixels.
func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// drawText draws s with its top edge at y.
func drawText(dst *image.RGBA, face font.Face, x, y int, s string) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  textColor,
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}
