package sports

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/converter"
)

// GameSource yields the games to show, already filtered and ordered.
type GameSource interface {
	Games(ctx context.Context) ([]Game, error)
}

// ESPNSource reads ESPN directly and applies the filter.
type ESPNSource struct {
	fetcher      *Fetcher
	filter       *Filter
	leagues      []string
	showRankings bool
	logger       *slog.Logger
}

func NewESPNSource(fetcher *Fetcher, filter *Filter, leagues []string, showRankings bool) *ESPNSource {
	return &ESPNSource{
		fetcher:      fetcher,
		filter:       filter,
		leagues:      leagues,
		showRankings: showRankings,
		logger:       fetcher.logger,
	}
}

func (s *ESPNSource) Games(ctx context.Context) ([]Game, error) {
	games, err := s.fetcher.FetchUpcoming(ctx, s.leagues)
	if err != nil {
		return nil, err
	}
	games = s.filter.Apply(games)
	if s.showRankings && len(games) > 0 {
		rankings, err := s.fetcher.Rankings(ctx)
		if err != nil {
			s.logger.Warn("Error fetching team rankings", "error", err)
		}
		ApplyRankings(games, rankings)
	}
	return games, nil
}

// FeedClient is the part of the Temporal client FeedSource needs.
type FeedClient interface {
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
}

// FeedSource reads games from a running OddsFeedWorkflow.
type FeedSource struct {
	client     FeedClient
	workflowID string
}

func NewFeedSource(c FeedClient, workflowID string) *FeedSource {
	return &FeedSource{client: c, workflowID: workflowID}
}

func (s *FeedSource) Snapshot(ctx context.Context) (FeedSnapshot, error) {
	var snapshot FeedSnapshot
	value, err := s.client.QueryWorkflow(ctx, s.workflowID, "", GamesQueryName)
	if err != nil {
		return snapshot, fmt.Errorf("failed to query feed %s: %w", s.workflowID, err)
	}
	if err := value.Get(&snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to decode feed snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *FeedSource) Games(ctx context.Context) ([]Game, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Games, nil
}

// ForceRefresh asks the feed workflow to fetch now.
func (s *FeedSource) ForceRefresh(ctx context.Context) error {
	if err := s.client.SignalWorkflow(ctx, s.workflowID, "", RefreshSignalName, nil); err != nil {
		return fmt.Errorf("failed to signal feed %s: %w", s.workflowID, err)
	}
	return nil
}
