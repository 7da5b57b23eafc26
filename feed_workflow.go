package sports

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	defaultFeedInterval = time.Hour
	defaultMaxRefreshes = 100
)

// OddsFeedWorkflow keeps a fresh list of upcoming games. It fetches on
// start, then every UpdateInterval or whenever the refresh signal arrives,
// and serves the latest result through the games query. It continues as new
// after MaxRefreshes fetches to bound its history.
func OddsFeedWorkflow(ctx workflow.Context, req FeedRequest) (FeedSnapshot, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Odds Feed Workflow.", "leagues", req.Leagues)

	var snapshot FeedSnapshot
	if req.Snapshot != nil {
		snapshot = *req.Snapshot
	}
	err := workflow.SetQueryHandler(ctx, GamesQueryName, func() (FeedSnapshot, error) {
		return snapshot, nil
	})
	if err != nil {
		return snapshot, err
	}

	interval := req.UpdateInterval
	if interval <= 0 {
		interval = defaultFeedInterval
	}
	maxRefreshes := req.MaxRefreshes
	if maxRefreshes <= 0 {
		maxRefreshes = defaultMaxRefreshes
	}

	// Set up activity options with retry policy
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	fetchReq := req
	fetchReq.Snapshot = nil
	refreshCh := workflow.GetSignalChannel(ctx, RefreshSignalName)

	var a *Activities
	for i := 0; i < maxRefreshes; i++ {
		var games []Game
		err := workflow.ExecuteActivity(ctx, a.FetchGames, fetchReq).Get(ctx, &games)
		if err != nil {
			logger.Error("Failed to fetch games, keeping previous snapshot", "error", err)
			snapshot.LastError = err.Error()
		} else {
			snapshot = FeedSnapshot{
				Games:     games,
				FetchedAt: workflow.Now(ctx),
				Refreshes: snapshot.Refreshes + 1,
			}
			logger.Info("Fetched games", "count", len(games), "refreshes", snapshot.Refreshes)
		}

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		selector := workflow.NewSelector(ctx)
		selector.AddFuture(workflow.NewTimer(timerCtx, interval), func(workflow.Future) {})
		selector.AddReceive(refreshCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			logger.Info("Refresh requested")
		})
		selector.Select(ctx)
		cancelTimer()

		if ctx.Err() != nil {
			logger.Info("Odds Feed Workflow cancelled.")
			return snapshot, ctx.Err()
		}
	}

	logger.Info("Odds Feed Workflow continuing as new.", "refreshes", snapshot.Refreshes)
	req.Snapshot = &snapshot
	return snapshot, workflow.NewContinueAsNewError(ctx, OddsFeedWorkflow, req)
}
