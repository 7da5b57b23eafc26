package sports

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

func feedGames(ids ...string) []Game {
	var games []Game
	for _, id := range ids {
		games = append(games, Game{
			ID:        id,
			League:    "nfl",
			Home:      GameTeam{Abbreviation: "KC"},
			Away:      GameTeam{Abbreviation: "BUF"},
			StartTime: time.Now().Add(time.Hour),
			Status:    "pre",
		})
	}
	return games
}

func newFeedEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{})
	return env
}

func queryFeed(t *testing.T, env *testsuite.TestWorkflowEnvironment) FeedSnapshot {
	t.Helper()
	value, err := env.QueryWorkflow(GamesQueryName)
	require.NoError(t, err)
	var snapshot FeedSnapshot
	require.NoError(t, value.Get(&snapshot))
	return snapshot
}

func TestOddsFeedWorkflow_ContinuesAsNew(t *testing.T) {
	env := newFeedEnv(t)
	var a *Activities
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(feedGames("g1", "g2"), nil).Times(2)

	env.ExecuteWorkflow(OddsFeedWorkflow, FeedRequest{
		Leagues:        []string{"nfl"},
		UpdateInterval: time.Hour,
		MaxRefreshes:   2,
	})

	require.True(t, env.IsWorkflowCompleted())
	var continueAsNew *workflow.ContinueAsNewError
	assert.True(t, errors.As(env.GetWorkflowError(), &continueAsNew))
	env.AssertExpectations(t)
}

func TestOddsFeedWorkflow_QueryServesLatestSnapshot(t *testing.T) {
	env := newFeedEnv(t)
	var a *Activities
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(feedGames("g1", "g2", "g3"), nil)

	var snapshot FeedSnapshot
	env.RegisterDelayedCallback(func() {
		snapshot = queryFeed(t, env)
	}, time.Minute)

	env.ExecuteWorkflow(OddsFeedWorkflow, FeedRequest{UpdateInterval: time.Hour, MaxRefreshes: 1})

	require.True(t, env.IsWorkflowCompleted())
	assert.Len(t, snapshot.Games, 3)
	assert.Equal(t, 1, snapshot.Refreshes)
	assert.False(t, snapshot.FetchedAt.IsZero())
	assert.Empty(t, snapshot.LastError)
}

func TestOddsFeedWorkflow_RefreshSignal(t *testing.T) {
	env := newFeedEnv(t)
	var a *Activities
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(feedGames("g1"), nil).Once()
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(feedGames("g1", "g2"), nil).Once()

	var snapshot FeedSnapshot
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(RefreshSignalName, nil)
	}, time.Minute)
	env.RegisterDelayedCallback(func() {
		snapshot = queryFeed(t, env)
	}, 2*time.Minute)

	env.ExecuteWorkflow(OddsFeedWorkflow, FeedRequest{UpdateInterval: 24 * time.Hour, MaxRefreshes: 2})

	require.True(t, env.IsWorkflowCompleted())
	assert.Len(t, snapshot.Games, 2, "signal triggers a fetch before the timer fires")
	assert.Equal(t, 2, snapshot.Refreshes)
	env.AssertExpectations(t)
}

func TestOddsFeedWorkflow_FailureKeepsPreviousSnapshot(t *testing.T) {
	env := newFeedEnv(t)
	var a *Activities
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	previous := FeedSnapshot{Games: feedGames("old"), Refreshes: 7}
	var snapshot FeedSnapshot
	env.RegisterDelayedCallback(func() {
		snapshot = queryFeed(t, env)
	}, time.Minute)

	env.ExecuteWorkflow(OddsFeedWorkflow, FeedRequest{UpdateInterval: time.Hour, MaxRefreshes: 1, Snapshot: &previous})

	require.True(t, env.IsWorkflowCompleted())
	require.Len(t, snapshot.Games, 1)
	assert.Equal(t, "old", snapshot.Games[0].ID)
	assert.Equal(t, 7, snapshot.Refreshes)
	assert.NotEmpty(t, snapshot.LastError)
}

func TestOddsFeedWorkflow_Cancelled(t *testing.T) {
	env := newFeedEnv(t)
	var a *Activities
	env.OnActivity(a.FetchGames, mock.Anything, mock.Anything).Return(feedGames("g1"), nil)

	env.RegisterDelayedCallback(func() {
		env.CancelWorkflow()
	}, time.Minute)

	env.ExecuteWorkflow(OddsFeedWorkflow, FeedRequest{UpdateInterval: time.Hour})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}
