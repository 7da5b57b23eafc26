package sports

import "slices"

// LeagueInfo maps a ticker league key to its ESPN paths and logo folder.
type LeagueInfo struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Sport   string `json:"sport"`
	League  string `json:"league"`
	LogoDir string `json:"logoDir"`
}

// Leagues is the table of supported leagues, in default priority order.
var Leagues = []LeagueInfo{
	{Key: "nfl", Name: "NFL", Sport: "football", League: "nfl", LogoDir: "nfl_logos"},
	{Key: "nba", Name: "NBA", Sport: "basketball", League: "nba", LogoDir: "nba_logos"},
	{Key: "mlb", Name: "MLB", Sport: "baseball", League: "mlb", LogoDir: "mlb_logos"},
	{Key: "nhl", Name: "NHL", Sport: "hockey", League: "nhl", LogoDir: "nhl_logos"},
	{Key: "ncaa_fb", Name: "College Football", Sport: "football", League: "college-football", LogoDir: "ncaa_logos"},
	{Key: "ncaam_basketball", Name: "Men's College Basketball", Sport: "basketball", League: "mens-college-basketball", LogoDir: "ncaa_logos"},
}

// LookupLeague finds a league by key.
func LookupLeague(key string) (LeagueInfo, bool) {
	i := slices.IndexFunc(Leagues, func(l LeagueInfo) bool { return l.Key == key })
	if i < 0 {
		return LeagueInfo{}, false
	}
	return Leagues[i], true
}

// LeaguesForSport returns the leagues under an ESPN sport path.
func LeaguesForSport(sport string) []LeagueInfo {
	var out []LeagueInfo
	for _, l := range Leagues {
		if l.Sport == sport {
			out = append(out, l)
		}
	}
	return out
}

// Sports returns the distinct ESPN sport paths in table order.
func Sports() []string {
	var out []string
	for _, l := range Leagues {
		if !slices.Contains(out, l.Sport) {
			out = append(out, l.Sport)
		}
	}
	return out
}
