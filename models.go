package sports

import "time"

// ESPN API Response Models
type ESPNResponse struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         ESPNTime      `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Week         Week          `json:"week"`
	Competitions []Competition `json:"competitions"`
	Status       Status        `json:"status"`
}

type Week struct {
	Number int `json:"number"`
}

type Competition struct {
	ID          string       `json:"id"`
	Date        ESPNTime     `json:"date"`
	Competitors []Competitor `json:"competitors"`
	Odds        []Odd        `json:"odds"`
	Broadcasts  []Broadcast  `json:"broadcasts"`
	Status      Status       `json:"status"`
}

type Competitor struct {
	ID          string       `json:"id"`
	Team        Team         `json:"team"`
	Score       string       `json:"score"`
	HomeAway    string       `json:"homeAway"`
	Records     []Record     `json:"records"`
	CuratedRank *CuratedRank `json:"curatedRank,omitempty"`
}

type Team struct {
	ID           string `json:"id"`
	Location     string `json:"location"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
	ConferenceId string `json:"conferenceId"`
}

// Record is one of a competitor's season records, e.g. "overall" "7-2".
type Record struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// CuratedRank is ESPN's poll rank for college teams. 99 means unranked.
type CuratedRank struct {
	Current int `json:"current"`
}

type Broadcast struct {
	Market string   `json:"market"`
	Names  []string `json:"names"`
}

type Status struct {
	Clock        float64    `json:"clock"`
	DisplayClock string     `json:"displayClock"`
	Period       int        `json:"period"`
	Type         StatusType `json:"type"`
}

type StatusType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

// Odd represents betting odds information for a competition
type Odd struct {
	Provider     Provider  `json:"provider"`
	Details      string    `json:"details"` // projected winner and margin, i.e. "MICH -7.5"
	OverUnder    float64   `json:"overUnder"`
	Spread       *float64  `json:"spread,omitempty"`
	HomeTeamOdds *TeamOdds `json:"homeTeamOdds,omitempty"`
	AwayTeamOdds *TeamOdds `json:"awayTeamOdds,omitempty"`
}

type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamOdds represents odds information for a specific team in a matchup
type TeamOdds struct {
	Favorite  bool     `json:"favorite,omitempty"`
	Underdog  bool     `json:"underdog,omitempty"`
	MoneyLine *float64 `json:"moneyLine,omitempty"`
}

// Game is one upcoming matchup as shown on the ticker.
type Game struct {
	ID         string    `json:"id"`
	League     string    `json:"league"` // league key, e.g. "ncaa_fb"
	Sport      string    `json:"sport"`
	Home       GameTeam  `json:"home"`
	Away       GameTeam  `json:"away"`
	StartTime  time.Time `json:"startTime"`
	Status     string    `json:"status"`
	Broadcasts []string  `json:"broadcasts,omitempty"`
	Odds       *GameOdds `json:"odds,omitempty"`
}

type GameTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
	Record       string `json:"record"`
	Rank         int    `json:"rank,omitempty"`
	Favorite     bool   `json:"favorite,omitempty"`
	Underdog     bool   `json:"underdog,omitempty"`
}

// GameOdds is the betting line for a game. Any field may be missing.
type GameOdds struct {
	Provider      string   `json:"provider,omitempty"`
	Details       string   `json:"details,omitempty"`
	Spread        *float64 `json:"spread,omitempty"`
	OverUnder     *float64 `json:"overUnder,omitempty"`
	HomeMoneyLine *float64 `json:"homeMoneyLine,omitempty"`
	AwayMoneyLine *float64 `json:"awayMoneyLine,omitempty"`
}

// Broadcast returns the first broadcast name, or "".
func (g Game) Broadcast() string {
	if len(g.Broadcasts) == 0 {
		return ""
	}
	return g.Broadcasts[0]
}

// Matchup is "AWAY @ HOME".
func (g Game) Matchup() string {
	return g.Away.Abbreviation + " @ " + g.Home.Abbreviation
}

// FeedRequest configures an OddsFeedWorkflow run.
type FeedRequest struct {
	Leagues        []string      `json:"leagues"`
	Filter         FilterConfig  `json:"filter"`
	UpdateInterval time.Duration `json:"updateInterval"`
	MaxRefreshes   int           `json:"maxRefreshes"`
	ShowRankings   bool          `json:"showRankings"`
	// Snapshot carries the last result across continue-as-new.
	Snapshot *FeedSnapshot `json:"snapshot,omitempty"`
}

// FeedSnapshot is what the feed workflow's games query returns.
type FeedSnapshot struct {
	Games     []Game    `json:"games"`
	FetchedAt time.Time `json:"fetchedAt"`
	Refreshes int       `json:"refreshes"`
	LastError string    `json:"lastError,omitempty"`
}
