package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	rankingsTTL       = time.Hour
	apTop25           = "AP Top 25"
	maxParallelLeague = 3
)

// FetcherOptions configures a Fetcher. Zero values get defaults.
type FetcherOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	// RequestsPerSecond paces all requests to ESPN.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Fetcher reads scoreboards, team records and rankings from ESPN.
type Fetcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time

	rankingsMu      sync.Mutex
	rankings        map[string]int
	rankingsFetched time.Time
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = ESPNBaseURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{
		baseURL: opts.BaseURL,
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:  opts.Logger,
		now:     time.Now,
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESPN API returned status %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// FetchLeague returns the games on a league's current scoreboard.
func (f *Fetcher) FetchLeague(ctx context.Context, key string) ([]Game, error) {
	league, ok := LookupLeague(key)
	if !ok {
		return nil, fmt.Errorf("unknown league %q", key)
	}
	url := fmt.Sprintf("%s/%s/%s/scoreboard", f.baseURL, league.Sport, league.League)

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var espnResp ESPNResponse
	if err := json.Unmarshal(body, &espnResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ESPN response: %w", err)
	}

	games := make([]Game, 0, len(espnResp.Events))
	for _, event := range espnResp.Events {
		game, err := gameFromEvent(event, league)
		if err != nil {
			f.logger.Debug("Skipping event", "league", key, "eventID", event.ID, "error", err)
			continue
		}
		games = append(games, game)
	}
	f.logger.Debug("Fetched league games", "league", key, "count", len(games))
	return games, nil
}

// FetchUpcoming fetches the given leagues concurrently. A league that fails
// is logged and left out. Games are sorted by start time.
func (f *Fetcher) FetchUpcoming(ctx context.Context, keys []string) ([]Game, error) {
	results := make([][]Game, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLeague)
	for i, key := range keys {
		g.Go(func() error {
			games, err := f.FetchLeague(gctx, key)
			if err != nil {
				f.logger.Error("Error fetching games", "league", key, "error", err)
				return nil
			}
			results[i] = games
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Game
	for _, games := range results {
		all = append(all, games...)
	}
	slices.SortStableFunc(all, func(a, b Game) int { return a.StartTime.Compare(b.StartTime) })
	f.logger.Info("Fetched upcoming games", "count", len(all), "leagues", len(keys))
	return all, nil
}

// Rankings returns AP Top 25 ranks by team abbreviation. Results are cached
// for an hour. On failure the previous ranks, possibly empty, are returned
// with the error.
func (f *Fetcher) Rankings(ctx context.Context) (map[string]int, error) {
	f.rankingsMu.Lock()
	defer f.rankingsMu.Unlock()

	if len(f.rankings) > 0 && f.now().Sub(f.rankingsFetched) < rankingsTTL {
		return f.rankings, nil
	}

	body, err := f.get(ctx, f.baseURL+"/football/college-football/rankings")
	if err != nil {
		return f.rankings, err
	}

	poll := gjson.GetBytes(body, `polls.#(name=="`+apTop25+`")`)
	if !poll.Exists() {
		return f.rankings, fmt.Errorf("no %s poll in rankings response", apTop25)
	}
	rankings := make(map[string]int)
	poll.Get("ranks").ForEach(func(i, rank gjson.Result) bool {
		if abbr := rank.Get("team.abbreviation").String(); abbr != "" {
			rankings[abbr] = int(i.Int()) + 1
		}
		return true
	})

	f.rankings = rankings
	f.rankingsFetched = f.now()
	f.logger.Info("Fetched team rankings", "count", len(rankings))
	return rankings, nil
}

// FetchTeamRecord returns a team's record summary, or "N/A".
func (f *Fetcher) FetchTeamRecord(ctx context.Context, key, team string) (string, error) {
	league, ok := LookupLeague(key)
	if !ok {
		return "N/A", fmt.Errorf("unknown league %q", key)
	}
	body, err := f.get(ctx, fmt.Sprintf("%s/%s/%s/teams/%s", f.baseURL, league.Sport, league.League, team))
	if err != nil {
		return "N/A", err
	}
	summary := gjson.GetBytes(body, "team.record.items.0.summary")
	if !summary.Exists() {
		summary = gjson.GetBytes(body, "team.record.summary")
	}
	if summary.String() == "" {
		return "N/A", nil
	}
	return summary.String(), nil
}

// ApplyRankings sets Rank on every ranked team.
func ApplyRankings(games []Game, rankings map[string]int) {
	if len(rankings) == 0 {
		return
	}
	for i := range games {
		for _, team := range []*GameTeam{&games[i].Home, &games[i].Away} {
			if rank, ok := rankings[team.Abbreviation]; ok {
				team.Rank = rank
			}
		}
	}
}

func gameFromEvent(event Event, league LeagueInfo) (Game, error) {
	if event.ID == "" {
		return Game{}, fmt.Errorf("event has no id")
	}
	if len(event.Competitions) == 0 {
		return Game{}, fmt.Errorf("no competitions in event")
	}
	comp := event.Competitions[0]
	if len(comp.Competitors) < 2 {
		return Game{}, fmt.Errorf("not enough competitors")
	}

	home, away := comp.Competitors[0], comp.Competitors[1]
	if home.HomeAway == "away" || away.HomeAway == "home" {
		home, away = away, home
	}

	start := event.Date.Time
	if start.IsZero() {
		start = comp.Date.Time
	}
	state := event.Status.Type.State
	if state == "" {
		state = comp.Status.Type.State
	}

	game := Game{
		ID:        event.ID,
		League:    league.Key,
		Sport:     league.Sport,
		Home:      gameTeam(home, "HOME"),
		Away:      gameTeam(away, "AWAY"),
		StartTime: start,
		Status:    state,
	}
	for _, b := range comp.Broadcasts {
		game.Broadcasts = append(game.Broadcasts, b.Names...)
	}
	if len(comp.Odds) > 0 {
		odd := comp.Odds[0]
		game.Odds = gameOdds(odd)
		if odd.HomeTeamOdds != nil {
			game.Home.Favorite = odd.HomeTeamOdds.Favorite
			game.Home.Underdog = odd.HomeTeamOdds.Underdog
		}
		if odd.AwayTeamOdds != nil {
			game.Away.Favorite = odd.AwayTeamOdds.Favorite
			game.Away.Underdog = odd.AwayTeamOdds.Underdog
		}
	}
	return game, nil
}

func gameTeam(c Competitor, fallback string) GameTeam {
	t := GameTeam{
		ID:           c.Team.ID,
		Abbreviation: c.Team.Abbreviation,
		DisplayName:  c.Team.DisplayName,
		Record:       "N/A",
	}
	if t.Abbreviation == "" {
		t.Abbreviation = fallback
	}
	if t.DisplayName == "" {
		t.DisplayName = t.Abbreviation
	}
	if len(c.Records) > 0 && c.Records[0].Summary != "" {
		t.Record = c.Records[0].Summary
	}
	if c.CuratedRank != nil && c.CuratedRank.Current > 0 && c.CuratedRank.Current <= 25 {
		t.Rank = c.CuratedRank.Current
	}
	return t
}

func gameOdds(odd Odd) *GameOdds {
	o := &GameOdds{
		Provider: odd.Provider.Name,
		Details:  odd.Details,
		Spread:   odd.Spread,
	}
	if odd.OverUnder != 0 {
		ou := odd.OverUnder
		o.OverUnder = &ou
	}
	if odd.HomeTeamOdds != nil {
		o.HomeMoneyLine = odd.HomeTeamOdds.MoneyLine
	}
	if odd.AwayTeamOdds != nil {
		o.AwayMoneyLine = odd.AwayTeamOdds.MoneyLine
	}
	return o
}
