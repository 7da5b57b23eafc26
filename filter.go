package sports

import (
	"cmp"
	"slices"
	"time"
)

// FilterConfig selects and orders the games shown on the ticker.
type FilterConfig struct {
	EnabledLeagues        []string                  `json:"enabledLeagues"`
	Leagues               map[string]LeagueSettings `json:"leagues"`
	ShowFavoriteTeamsOnly bool                      `json:"showFavoriteTeamsOnly"`
	GamesPerFavoriteTeam  int                       `json:"gamesPerFavoriteTeam"`
	MaxGamesPerLeague     int                       `json:"maxGamesPerLeague"`
	SortOrder             string                    `json:"sortOrder"`
	FutureFetchDays       int                       `json:"futureFetchDays"`
}

// FilterStats describes the active filter for status pages.
type FilterStats struct {
	ShowFavoriteTeamsOnly bool                   `json:"showFavoriteTeamsOnly"`
	GamesPerFavoriteTeam  int                    `json:"gamesPerFavoriteTeam"`
	MaxGamesPerLeague     int                    `json:"maxGamesPerLeague"`
	SortOrder             string                 `json:"sortOrder"`
	EnabledLeagues        []string               `json:"enabledLeagues"`
	FutureFetchDays       int                    `json:"futureFetchDays"`
	Leagues               map[string]LeagueStats `json:"leagues"`
}

type LeagueStats struct {
	Enabled            bool `json:"enabled"`
	FavoriteTeamsCount int  `json:"favoriteTeamsCount"`
}

// Filter applies a FilterConfig to fetched games.
type Filter struct {
	cfg FilterConfig
	now func() time.Time
}

func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg, now: time.Now}
}

// Apply runs the league, favorites and time-window filters, sorts, and then
// caps games per league and per favorite team. The input is not modified.
func (f *Filter) Apply(games []Game) []Game {
	if len(games) == 0 {
		return nil
	}
	now := f.now()
	out := slices.DeleteFunc(slices.Clone(games), func(g Game) bool { return !f.shows(g, now) })

	f.sort(out)
	out = f.limitPerLeague(out)
	if f.cfg.ShowFavoriteTeamsOnly {
		out = f.limitPerFavorite(out)
	}
	return out
}

// shows reports whether a single game passes the league, favorites and
// time-window filters.
func (f *Filter) shows(g Game, now time.Time) bool {
	if !f.leagueEnabled(g.League) {
		return false
	}
	if f.cfg.ShowFavoriteTeamsOnly && !f.involvesFavorite(g) {
		return false
	}
	return !g.StartTime.IsZero() && !g.StartTime.Before(now) && !g.StartTime.After(now.AddDate(0, 0, f.cfg.FutureFetchDays))
}

func (f *Filter) Stats() FilterStats {
	stats := FilterStats{
		ShowFavoriteTeamsOnly: f.cfg.ShowFavoriteTeamsOnly,
		GamesPerFavoriteTeam:  f.cfg.GamesPerFavoriteTeam,
		MaxGamesPerLeague:     f.cfg.MaxGamesPerLeague,
		SortOrder:             f.cfg.SortOrder,
		EnabledLeagues:        f.cfg.EnabledLeagues,
		FutureFetchDays:       f.cfg.FutureFetchDays,
		Leagues:               make(map[string]LeagueStats, len(f.cfg.Leagues)),
	}
	for key, ls := range f.cfg.Leagues {
		stats.Leagues[key] = LeagueStats{Enabled: ls.Enabled, FavoriteTeamsCount: len(ls.FavoriteTeams)}
	}
	return stats
}

func (f *Filter) leagueEnabled(league string) bool {
	return slices.Contains(f.cfg.EnabledLeagues, league) && f.cfg.Leagues[league].Enabled
}

// involvesFavorite is true when the league has no favorites configured.
func (f *Filter) involvesFavorite(g Game) bool {
	favorites := f.cfg.Leagues[g.League].FavoriteTeams
	if len(favorites) == 0 {
		return true
	}
	return slices.Contains(favorites, g.Home.Abbreviation) || slices.Contains(favorites, g.Away.Abbreviation)
}

func (f *Filter) sort(games []Game) {
	switch f.cfg.SortOrder {
	case SortLeague:
		priority := func(league string) int {
			if i := slices.Index(f.cfg.EnabledLeagues, league); i >= 0 {
				return i
			}
			return len(f.cfg.EnabledLeagues)
		}
		slices.SortStableFunc(games, func(a, b Game) int {
			return cmp.Compare(priority(a.League), priority(b.League))
		})
	case SortTeam:
		slices.SortStableFunc(games, func(a, b Game) int {
			return cmp.Compare(a.Away.DisplayName+" @ "+a.Home.DisplayName, b.Away.DisplayName+" @ "+b.Home.DisplayName)
		})
	default:
		slices.SortStableFunc(games, func(a, b Game) int {
			return a.StartTime.Compare(b.StartTime)
		})
	}
}

func (f *Filter) limitPerLeague(games []Game) []Game {
	if f.cfg.MaxGamesPerLeague <= 0 {
		return games
	}
	counts := make(map[string]int)
	return slices.DeleteFunc(games, func(g Game) bool {
		if counts[g.League] >= f.cfg.MaxGamesPerLeague {
			return true
		}
		counts[g.League]++
		return false
	})
}

// limitPerFavorite keeps at most GamesPerFavoriteTeam games for each
// favorite team. A game counts against every favorite playing in it.
func (f *Filter) limitPerFavorite(games []Game) []Game {
	if f.cfg.GamesPerFavoriteTeam <= 0 {
		return games
	}
	counts := make(map[string]int)
	return slices.DeleteFunc(games, func(g Game) bool {
		favorites := f.cfg.Leagues[g.League].FavoriteTeams
		var teams []string
		for _, abbr := range []string{g.Away.Abbreviation, g.Home.Abbreviation} {
			if slices.Contains(favorites, abbr) {
				teams = append(teams, g.League+"/"+abbr)
			}
		}
		if len(teams) == 0 {
			return false
		}
		full := true
		for _, t := range teams {
			if counts[t] < f.cfg.GamesPerFavoriteTeam {
				full = false
			}
		}
		if full {
			return true
		}
		for _, t := range teams {
			counts[t]++
		}
		return false
	})
}
