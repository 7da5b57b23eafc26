// Package tiles renders games into ticker tiles.
package tiles

import (
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	sports "espn-odds-ticker"
	"espn-odds-ticker/ticker"

	"golang.org/x/image/draw"
)

const (
	hPadding = 4
	vsText   = "vs."
)

var (
	background = image.NewUniform(color.Black)
	textColor  = image.NewUniform(color.White)
)

// Options configures a Builder.
type Options struct {
	AssetsDir        string
	Customization    sports.Customization
	Location         *time.Location
	ShowChannelLogos bool
	ShowRankings     bool
	Logger           *slog.Logger
}

// OptionsFromConfig maps the ticker configuration onto builder options.
func OptionsFromConfig(cfg sports.Config, logger *slog.Logger) Options {
	return Options{
		AssetsDir:        cfg.AssetsDir,
		Customization:    cfg.Customization,
		Location:         cfg.Location(),
		ShowChannelLogos: cfg.ShowChannelLogos,
		ShowRankings:     cfg.ShowRankings,
		Logger:           logger,
	}
}

// Builder draws one tile per game. It is safe for concurrent use; font
// faces are shared, so drawing is serialized.
type Builder struct {
	mu           sync.Mutex
	fonts        Fonts
	logos        *LogoStore
	loc          *time.Location
	channelLogos bool
	showRankings bool
	logger       *slog.Logger
}

func NewBuilder(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{
		fonts:        LoadFonts(filepath.Join(opts.AssetsDir, "fonts"), opts.Customization, logger),
		logos:        NewLogoStore(opts.AssetsDir, logger),
		loc:          loc,
		channelLogos: opts.ShowChannelLogos,
		showRankings: opts.ShowRankings,
		logger:       logger,
	}
}

// Tiles renders games in order.
func (b *Builder) Tiles(games []sports.Game, width, height int) []ticker.Tile {
	tiles := make([]ticker.Tile, 0, len(games))
	for _, g := range games {
		tiles = append(tiles, b.Tile(g, width, height))
	}
	return tiles
}

// Tile lays out a game left to right: away logo, "vs.", home logo, stacked
// team names, stacked odds, a three-line date column and an optional
// broadcast logo. Logos are 1.2 times the display height, centred and
// cropped. Missing logos keep their slot.
func (b *Builder) Tile(g sports.Game, width, height int) ticker.Tile {
	b.mu.Lock()
	defer b.mu.Unlock()

	logoSize := int(float64(height) * 1.2)
	league, _ := sports.LookupLeague(g.League)
	awayLogo := b.logos.Team(league.LogoDir, g.Away.Abbreviation)
	homeLogo := b.logos.Team(league.LogoDir, g.Home.Abbreviation)

	var broadcast image.Image
	if b.channelLogos && g.Broadcast() != "" {
		if logo := b.logos.Broadcast(g.Broadcast()); logo != nil {
			if w, h := BroadcastSize(logo.Bounds(), width, height); w > 0 && h > 0 {
				broadcast = Scale(logo, w, h)
			}
		}
	}

	awayText := TeamLabel(g.Away, b.showRankings)
	homeText := TeamLabel(g.Home, b.showRankings)
	awayOdds, homeOdds := OddsLines(g.Odds)
	dates := DateLines(g.StartTime, b.loc)

	vsW := textWidth(b.fonts.Team, vsText)
	teamW := max(textWidth(b.fonts.Team, awayText), textWidth(b.fonts.Team, homeText))
	oddsW := max(textWidth(b.fonts.Odds, awayOdds), textWidth(b.fonts.Odds, homeOdds))
	dateW := 0
	for _, line := range dates {
		dateW = max(dateW, textWidth(b.fonts.DateTime, line))
	}
	broadcastW := 0
	if broadcast != nil {
		broadcastW = broadcast.Bounds().Dx()
	}

	total := logoSize*2 + vsW + teamW + oddsW + dateW + broadcastW + hPadding*8
	img := image.NewRGBA(image.Rect(0, 0, total, height))
	draw.Draw(img, img.Bounds(), background, image.Point{}, draw.Src)

	x := 0
	logoY := (height - logoSize) / 2
	b.drawLogo(img, awayLogo, x, logoY, logoSize)
	x += logoSize + hPadding

	drawText(img, b.fonts.Team, x, height/2-4, vsText)
	x += vsW + hPadding

	b.drawLogo(img, homeLogo, x, logoY, logoSize)
	x += logoSize + hPadding

	drawText(img, b.fonts.Team, x, 2, awayText)
	drawText(img, b.fonts.Team, x, height-10, homeText)
	x += teamW + hPadding

	drawText(img, b.fonts.Odds, x, 2, awayOdds)
	drawText(img, b.fonts.Odds, x, height-10, homeOdds)
	x += oddsW + hPadding

	lh := lineHeight(b.fonts.DateTime)
	y := (height - (lh*3 + 4)) / 2
	for _, line := range dates {
		lx := x + (dateW-textWidth(b.fonts.DateTime, line))/2
		drawText(img, b.fonts.DateTime, lx, y, line)
		y += lh + 2
	}
	x += dateW + hPadding

	if broadcast != nil {
		r := broadcast.Bounds()
		at := image.Pt(x, (height-r.Dy())/2)
		draw.Draw(img, r.Sub(r.Min).Add(at), broadcast, r.Min, draw.Over)
	}

	return ticker.NewTile(g.ID, img)
}

func (b *Builder) drawLogo(dst *image.RGBA, logo image.Image, x, y, size int) {
	if logo == nil || size <= 0 {
		return
	}
	scaled := Scale(logo, size, size)
	draw.Draw(dst, image.Rect(x, y, x+size, y+size), scaled, image.Point{}, draw.Over)
}
