package sports

import (
	"fmt"
	"strings"
	"time"
)

// espnLayouts are tried in order. Some scoreboards drop the seconds.
var espnLayouts = []string{
	time.RFC3339,             // 2006-01-02T15:04:05Z07:00
	"2006-01-02T15:04Z07:00", // 2006-01-02T15:04Z (no seconds)
}

// ESPNTime is a wrapper around time.Time that can unmarshal
// both full RFC3339 timestamps and the shorter “YYYY-MM-DDThh:mmZ”
// strings returned by some ESPN endpoints. Empty, null and "TBD"
// decode to the zero time.
type ESPNTime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *ESPNTime) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		return nil
	}
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("espn time: not a JSON string: %s", raw)
	}
	s := strings.TrimSpace(raw[1 : len(raw)-1])
	if s == "" || strings.EqualFold(s, "TBD") {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseESPNTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseESPNTime parses a timestamp in any of the layouts ESPN uses.
func ParseESPNTime(s string) (time.Time, error) {
	var parseErr error
	for _, layout := range espnLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("espn time %q: %w", s, parseErr)
}
