package tiles

import (
	"fmt"
	"strconv"
	"time"

	sports "espn-odds-ticker"
)

// OddsLines returns the away and home odds text. Money lines win over the
// spread, which wins over the total.
func OddsLines(o *sports.GameOdds) (away, home string) {
	if o == nil {
		return "", ""
	}
	if o.HomeMoneyLine != nil {
		return moneyLine(o.AwayMoneyLine), moneyLine(o.HomeMoneyLine)
	}
	if o.Spread != nil {
		s := fmt.Sprintf("%+.1f", *o.Spread)
		return s, s
	}
	if o.OverUnder != nil && *o.OverUnder != 0 {
		s := "O/U " + strconv.FormatFloat(*o.OverUnder, 'f', -1, 64)
		return s, s
	}
	return "", ""
}

func moneyLine(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%+g", *v)
}

// DateLines is the three-line date column: weekday, month/day and time of
// day in loc. A zero time gives TBD on every line.
func DateLines(t time.Time, loc *time.Location) [3]string {
	if t.IsZero() {
		return [3]string{"TBD", "TBD", "TBD"}
	}
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return [3]string{
		local.Format("Mon"),
		local.Format("1/02"),
		local.Format("3:04PM"),
	}
}

// TeamLabel is the team abbreviation, prefixed with #rank when ranked and
// showRank is set.
func TeamLabel(t sports.GameTeam, showRank bool) string {
	name := t.Abbreviation
	if name == "" {
		name = "N/A"
	}
	if showRank && t.Rank > 0 {
		return "#" + strconv.Itoa(t.Rank) + " " + name
	}
	return name
}
