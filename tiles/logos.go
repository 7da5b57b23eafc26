package tiles

import (
	"errors"
	"image"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
)

// BroadcastLogos maps ESPN broadcast names to files in broadcast_logos/.
var BroadcastLogos = map[string]string{
	"ACC Network":        "accn",
	"ACCN":               "accn",
	"ABC":                "abc",
	"BTN":                "btn",
	"CBS":                "cbs",
	"CBSSN":              "cbssn",
	"CBS Sports Network": "cbssn",
	"ESPN":               "espn",
	"ESPN2":              "espn2",
	"ESPN3":              "espn3",
	"ESPNU":              "espnu",
	"ESPNEWS":            "espn",
	"ESPN+":              "espn",
	"ESPN Plus":          "espn",
	"FOX":                "fox",
	"FS1":                "fs1",
	"FS2":                "fs2",
	"MLBN":               "mlbn",
	"MLB Network":        "mlbn",
	"MLB.TV":             "mlbn",
	"NBC":                "nbc",
	"NFLN":               "nfln",
	"NFL Network":        "nfln",
	"PAC12":              "pac12n",
	"Pac-12 Network":     "pac12n",
	"SECN":               "espn-sec-us",
	"TBS":                "tbs",
	"TNT":                "tnt",
	"truTV":              "tru",
	"Peacock":            "nbc",
	"Paramount+":         "cbs",
	"Hulu":               "espn",
	"Disney+":            "espn",
	"Apple TV+":          "nbc",
	"MASN":               "cbs",
	"MASN2":              "cbs",
	"MAS+":               "cbs",
	"SportsNet":          "nbc",
	"FanDuel SN":         "fox",
	"FanDuel SN DET":     "fox",
	"FanDuel SN FL":      "fox",
	"SportsNet PIT":      "nbc",
	"Padres.TV":          "espn",
	"CLEGuardians.TV":    "espn",
}

// LogoStore loads logo PNGs from an assets directory and remembers them,
// including the ones that are missing.
type LogoStore struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewLogoStore(assetsDir string, logger *slog.Logger) *LogoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogoStore{dir: assetsDir, logger: logger, cache: make(map[string]image.Image)}
}

// Team returns assets/sports/<logoDir>/<abbr>.png, or nil.
func (s *LogoStore) Team(logoDir, abbr string) image.Image {
	if logoDir == "" || abbr == "" {
		return nil
	}
	return s.load(filepath.Join(s.dir, "sports", logoDir, abbr+".png"))
}

// Broadcast returns the channel logo for a broadcast name, or nil.
func (s *LogoStore) Broadcast(name string) image.Image {
	file, ok := BroadcastLogos[name]
	if !ok {
		return nil
	}
	return s.load(filepath.Join(s.dir, "broadcast_logos", file+".png"))
}

func (s *LogoStore) load(path string) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[path]; ok {
		return img
	}

	img, err := decodeFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Logo not found", "path", path)
		} else {
			s.logger.Warn("Error loading logo", "path", path, "error", err)
		}
		img = nil
	}
	s.cache[path] = img
	return img
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// Scale resizes src to w×h.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// BroadcastSize fits a broadcast logo to 0.8 of the display height, then
// shrinks it to at most 0.8 of the display width keeping its aspect ratio.
func BroadcastSize(logo image.Rectangle, displayW, displayH int) (w, h int) {
	lw, lh := logo.Dx(), logo.Dy()
	if lw <= 0 || lh <= 0 {
		return 0, 0
	}
	h = int(float64(displayH) * 0.8)
	ratio := float64(h) / float64(lh)
	w = int(float64(lw) * ratio)

	maxW := int(float64(displayW) * 0.8)
	if w > maxW {
		ratio = float64(maxW) / float64(lw)
		w = maxW
		h = int(float64(lh) * ratio)
	}
	return w, h
}
