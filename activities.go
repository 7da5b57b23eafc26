package sports

import (
	"context"

	"go.temporal.io/sdk/activity"
)

// Activities holds the dependencies of the feed workflow's activities.
type Activities struct {
	Fetcher *Fetcher
}

// FetchGames reads the requested leagues from ESPN and filters them.
func (a *Activities) FetchGames(ctx context.Context, req FeedRequest) ([]Game, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Fetching games from ESPN API", "leagues", req.Leagues)

	source := NewESPNSource(a.Fetcher, NewFilter(req.Filter), req.Leagues, req.ShowRankings)
	games, err := source.Games(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Fetched games", "count", len(games))
	return games, nil
}
