package sports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"espn-odds-ticker/ticker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	def.Normalize()
	assert.Equal(t, def, cfg)
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
display:
  width: 192
matrix:
  driver: APA102
  serpentine: true
  brightness: 99
scroll_model: TIME
scroll_pixels_per_second: 40
scroll_target_fps: 50
loop: false
enabled_leagues: [ncaa_fb, nfl, xfl, nfl]
ncaa_fb:
  enabled: true
  favorite_teams: [mich, " osu "]
sort_order: League
timezone: America/Chicago
customization:
  odds_text:
    font_size: 6
`)
	t.Setenv("TICKER_SOURCE", "temporal")
	t.Setenv("TASK_QUEUE", "my-queue")
	t.Setenv("TICKER_UPDATE_INTERVAL", "600")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 192, cfg.Display.Width)
	assert.Equal(t, 32, cfg.Display.Height, "unset keys keep defaults")
	assert.Equal(t, MatrixConfig{Driver: MatrixAPA102, SPIPort: "SPI0.0", SpeedKHz: 8000, Brightness: 31, Serpentine: true}, cfg.Matrix)
	assert.Equal(t, "time", cfg.ScrollModel)
	assert.False(t, cfg.Loop)
	assert.Equal(t, []string{"ncaa_fb", "nfl"}, cfg.EnabledLeagues)
	assert.Equal(t, []string{"MICH", "OSU"}, cfg.League("ncaa_fb").FavoriteTeams)
	assert.Equal(t, SortLeague, cfg.SortOrder)
	assert.Equal(t, "America/Chicago", cfg.Location().String())
	assert.Equal(t, 6.0, cfg.Customization.OddsText.FontSize)
	assert.Equal(t, "PressStart2P-Regular.ttf", cfg.Customization.OddsText.Font)
	assert.Equal(t, SourceTemporal, cfg.Source)
	assert.Equal(t, "my-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, 10*time.Minute, cfg.UpdateEvery())
	assert.Equal(t, []string{"ncaa_fb", "nfl"}, cfg.ActiveLeagues())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "display: [1, 2"))
	assert.Error(t, err)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{
		ScrollSpeed:    -1,
		GapWidth:       -5,
		MinDuration:    60,
		MaxDuration:    10,
		DurationBuffer: -0.5,
		SortOrder:      "random",
		Timezone:       "Mars/Olympus",
		Source:         "carrier-pigeon",
		ScrollModel:    "warp",
		Matrix:         MatrixConfig{Driver: "hub75"},
	}
	cfg.Normalize()

	assert.Equal(t, 2.0, cfg.ScrollSpeed)
	assert.Equal(t, 0.05, cfg.ScrollDelay)
	assert.Equal(t, 0, cfg.GapWidth)
	assert.Equal(t, 60.0, cfg.MaxDuration, "max is raised to min")
	assert.Equal(t, 0.0, cfg.DurationBuffer)
	assert.Equal(t, SortSoonest, cfg.SortOrder)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, SourceESPN, cfg.Source)
	assert.Equal(t, "frame", cfg.ScrollModel)
	assert.Equal(t, 128, cfg.Display.Width)
	assert.Equal(t, MatrixNone, cfg.Matrix.Driver)
	assert.Equal(t, TaskQueueName, cfg.Temporal.TaskQueue)
}

func TestConfig_TickerSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize()

	s := cfg.TickerSettings()
	assert.Equal(t, 128, s.DisplayWidth)
	assert.Equal(t, 32, s.DisplayHeight)
	assert.Equal(t, 24, s.Gap)
	assert.Equal(t, ticker.ModelFrame, s.Clock.Model)
	assert.Equal(t, 2.0, s.Clock.Speed)
	assert.Equal(t, 50*time.Millisecond, s.Clock.Delay)
	assert.InDelta(t, 40.0, s.Clock.PixelsPerSecond(), 1e-9)
	assert.Equal(t, 30*time.Second, s.MinDuration)
	assert.Equal(t, 300*time.Second, s.MaxDuration)
	assert.Equal(t, time.Hour, s.UpdateInterval)
	assert.Equal(t, 10*time.Second, s.NoDataTimeout)
	assert.Equal(t, 10*time.Millisecond, cfg.FrameInterval(), "the host samples faster than scroll_delay")
	assert.Equal(t, 30*time.Second, s.RetryInterval)

	cfg.ScrollModel = "time"
	s = cfg.TickerSettings()
	assert.Equal(t, ticker.ModelTime, s.Clock.Model)
	assert.Equal(t, 18.0, s.Clock.PixelsPerSecond())
	assert.Equal(t, 10*time.Millisecond, s.Clock.Delay)
	assert.Equal(t, 10*time.Millisecond, cfg.FrameInterval())
}

func TestConfig_FeedRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MLB.Enabled = false
	cfg.ShowRankings = true
	cfg.Normalize()

	req := cfg.FeedRequest()
	assert.Equal(t, []string{"nfl", "nba"}, req.Leagues)
	assert.Equal(t, time.Hour, req.UpdateInterval)
	assert.True(t, req.ShowRankings)
	assert.False(t, req.Filter.Leagues["mlb"].Enabled)
	assert.Equal(t, 5, req.Filter.MaxGamesPerLeague)
}

func TestFeedRequest_WithLeagues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize()
	base := cfg.FeedRequest()

	req := base.WithLeagues([]string{"nhl"})
	assert.Equal(t, []string{"nhl"}, req.Leagues)
	assert.Equal(t, []string{"nhl"}, req.Filter.EnabledLeagues)
	assert.True(t, req.Filter.Leagues["nhl"].Enabled)
	assert.False(t, base.Filter.Leagues["nhl"].Enabled, "the original request is untouched")

	game := Game{ID: "g1", League: "nhl", StartTime: time.Now().Add(time.Hour)}
	assert.Len(t, NewFilter(req.Filter).Apply([]Game{game}), 1)
	assert.Empty(t, NewFilter(base.Filter).Apply([]Game{game}))
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TemporalConfig
		err     error
		hasTLS  bool
		hasCred bool
	}{
		{name: "missing host", cfg: TemporalConfig{Namespace: "default"}, err: ErrNoTemporalHost},
		{name: "missing namespace", cfg: TemporalConfig{Host: "localhost:7233"}, err: ErrNoTemporalNamespace},
		{name: "local dev server", cfg: TemporalConfig{Host: "localhost:7233", Namespace: "default"}},
		{name: "cloud without key", cfg: TemporalConfig{Host: "ns.acct.tmprl.cloud:7233", Namespace: "ns.acct"}, err: ErrNoTemporalAPIKey},
		{
			name:    "cloud with key",
			cfg:     TemporalConfig{Host: "ns.acct.tmprl.cloud:7233", Namespace: "ns.acct", APIKey: "secret"},
			hasTLS:  true,
			hasCred: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ClientOptions(tt.cfg, nil)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Host, opts.HostPort)
			assert.Equal(t, tt.cfg.Namespace, opts.Namespace)
			assert.Equal(t, tt.hasTLS, opts.ConnectionOptions.TLS != nil)
			assert.Equal(t, tt.hasCred, opts.Credentials != nil)
		})
	}
}
