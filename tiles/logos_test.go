package tiles

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLogoStore(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sports", "nfl_logos", "KC.png"), 20, 20, color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "broadcast_logos", "cbs.png"), 40, 20, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sports", "nfl_logos", "BAD.png"), []byte("not a png"), 0o644))

	store := NewLogoStore(dir, discardLogger)

	kc := store.Team("nfl_logos", "KC")
	require.NotNil(t, kc)
	assert.Equal(t, 20, kc.Bounds().Dx())

	assert.Nil(t, store.Team("nfl_logos", "BUF"), "missing file")
	assert.Nil(t, store.Team("nfl_logos", "BAD"), "undecodable file")
	assert.Nil(t, store.Team("", "KC"))

	cbs := store.Broadcast("Paramount+")
	require.NotNil(t, cbs, "Paramount+ maps to the cbs logo")
	assert.Equal(t, 40, cbs.Bounds().Dx())
	assert.Nil(t, store.Broadcast("Local TV"))

	require.NoError(t, os.Remove(filepath.Join(dir, "sports", "nfl_logos", "KC.png")))
	assert.NotNil(t, store.Team("nfl_logos", "KC"), "decoded logos are cached")
}

func TestBroadcastSize(t *testing.T) {
	tests := []struct {
		name    string
		logo    image.Rectangle
		w, h    int
		expectW int
		expectH int
	}{
		{name: "height bound", logo: image.Rect(0, 0, 100, 50), w: 128, h: 32, expectW: 50, expectH: 25},
		{name: "width bound", logo: image.Rect(0, 0, 400, 50), w: 128, h: 32, expectW: 102, expectH: 12},
		{name: "empty logo", logo: image.Rect(0, 0, 0, 10), w: 128, h: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := BroadcastSize(tt.logo, tt.w, tt.h)
			assert.Equal(t, tt.expectW, w)
			assert.Equal(t, tt.expectH, h)
		})
	}
}

func TestScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.RGBA{G: 255, A: 255}), image.Point{}, draw.Src)

	dst := Scale(src, 38, 38)
	assert.Equal(t, image.Rect(0, 0, 38, 38), dst.Bounds())
	r, g, _, a := dst.At(19, 19).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, g, uint32(0xf000))
	assert.Less(t, r, uint32(0x1000))
}
