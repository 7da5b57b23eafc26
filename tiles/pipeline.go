package tiles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	sports "espn-odds-ticker"
	"espn-odds-ticker/ticker"

	"golang.org/x/sync/singleflight"
)

// refresher is implemented by sources that can be told to fetch now, such
// as the Temporal feed.
type refresher interface {
	ForceRefresh(ctx context.Context) error
}

// Pipeline turns a game source into ticker tiles. Concurrent refreshes for
// the same display size share one fetch and render.
type Pipeline struct {
	source  sports.GameSource
	builder *Builder
	group   singleflight.Group
	logger  *slog.Logger
}

func NewPipeline(source sports.GameSource, builder *Builder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{source: source, builder: builder, logger: logger}
}

// Tiles implements ticker.ContentSource.
func (p *Pipeline) Tiles(ctx context.Context, width, height int) ([]ticker.Tile, error) {
	key := strconv.Itoa(width) + "x" + strconv.Itoa(height)
	v, err, shared := p.group.Do(key, func() (any, error) {
		games, err := p.source.Games(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch games: %w", err)
		}
		tiles := p.builder.Tiles(games, width, height)
		p.logger.Debug("Rendered game tiles", "games", len(games), "size", key)
		return tiles, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug("Shared in-flight tile refresh", "size", key)
	}
	return v.([]ticker.Tile), nil
}

// ForceRefresh asks the source to fetch now when it supports that. Sources
// that read ESPN directly are fresh on every call, so this is a no-op for
// them.
func (p *Pipeline) ForceRefresh(ctx context.Context) error {
	r, ok := p.source.(refresher)
	if !ok {
		return nil
	}
	return r.ForceRefresh(ctx)
}
