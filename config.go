package sports

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"espn-odds-ticker/ticker"

	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// Sort orders understood by the game filter.
const (
	SortSoonest = "soonest"
	SortLeague  = "league"
	SortTeam    = "team"
)

// Game sources for the host.
const (
	SourceESPN     = "espn"
	SourceTemporal = "temporal"
)

type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// MatrixConfig selects the LED panel driver. Driver "none" runs without
// hardware and only feeds the web preview.
type MatrixConfig struct {
	Driver     string `yaml:"driver"`
	SPIPort    string `yaml:"spi_port"`
	SpeedKHz   int    `yaml:"speed_khz"`
	Brightness uint8  `yaml:"brightness"`
	Serpentine bool   `yaml:"serpentine"`
}

// Matrix drivers.
const (
	MatrixNone   = "none"
	MatrixAPA102 = "apa102"
)

type LeagueSettings struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	FavoriteTeams []string `yaml:"favorite_teams" json:"favoriteTeams"`
}

type FontConfig struct {
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`
}

type Customization struct {
	TeamText     FontConfig `yaml:"team_text"`
	OddsText     FontConfig `yaml:"odds_text"`
	DatetimeText FontConfig `yaml:"datetime_text"`
}

type TemporalConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
	APIKey    string `yaml:"-"`
	TaskQueue string `yaml:"task_queue"`
}

// Config is the ticker's YAML configuration. Times are in seconds.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Matrix  MatrixConfig  `yaml:"matrix"`

	ScrollSpeed           float64 `yaml:"scroll_speed"`
	ScrollDelay           float64 `yaml:"scroll_delay"`
	ScrollPixelsPerSecond float64 `yaml:"scroll_pixels_per_second"`
	ScrollTargetFPS       float64 `yaml:"scroll_target_fps"`
	ScrollModel           string  `yaml:"scroll_model"`
	Loop                  bool    `yaml:"loop"`
	GapWidth              int     `yaml:"gap_width"`

	DynamicDuration bool    `yaml:"dynamic_duration"`
	MinDuration     float64 `yaml:"min_duration"`
	MaxDuration     float64 `yaml:"max_duration"`
	DurationBuffer  float64 `yaml:"duration_buffer"`
	DisplayDuration float64 `yaml:"display_duration"`
	CleanTransition bool    `yaml:"clean_transition"`

	UpdateInterval float64 `yaml:"update_interval"`
	RetryInterval  float64 `yaml:"retry_interval"`
	RequestTimeout float64 `yaml:"request_timeout"`
	NoDataTimeout  float64 `yaml:"no_data_timeout"`

	EnabledLeagues        []string       `yaml:"enabled_leagues"`
	NFL                   LeagueSettings `yaml:"nfl"`
	NBA                   LeagueSettings `yaml:"nba"`
	MLB                   LeagueSettings `yaml:"mlb"`
	NHL                   LeagueSettings `yaml:"nhl"`
	NCAAFootball          LeagueSettings `yaml:"ncaa_fb"`
	NCAAMBasketball       LeagueSettings `yaml:"ncaam_basketball"`
	ShowFavoriteTeamsOnly bool           `yaml:"show_favorite_teams_only"`
	GamesPerFavoriteTeam  int            `yaml:"games_per_favorite_team"`
	MaxGamesPerLeague     int            `yaml:"max_games_per_league"`
	SortOrder             string         `yaml:"sort_order"`
	FutureFetchDays       int            `yaml:"future_fetch_days"`

	Timezone         string        `yaml:"timezone"`
	ShowChannelLogos bool          `yaml:"show_channel_logos"`
	ShowRankings     bool          `yaml:"show_rankings"`
	AssetsDir        string        `yaml:"assets_dir"`
	Customization    Customization `yaml:"customization"`

	Source         string  `yaml:"source"`
	FeedWorkflowID string  `yaml:"feed_workflow_id"`
	MaxRefreshes   int     `yaml:"max_refreshes"`
	StreamFPS      float64 `yaml:"stream_fps"`
	Port           string  `yaml:"port"`
	LogLevel       string  `yaml:"log_level"`

	Temporal TemporalConfig `yaml:"temporal"`
}

// DefaultConfig is a 128x32 panel showing NFL, NBA and MLB odds.
func DefaultConfig() Config {
	return Config{
		Display:               DisplayConfig{Width: 128, Height: 32},
		Matrix:                MatrixConfig{Driver: MatrixNone, SPIPort: "SPI0.0", SpeedKHz: 8000, Brightness: 8},
		ScrollSpeed:           2,
		ScrollDelay:           0.05,
		ScrollPixelsPerSecond: 18,
		ScrollTargetFPS:       100,
		ScrollModel:           ticker.ModelFrame.String(),
		Loop:                  true,
		GapWidth:              24,
		DynamicDuration:       true,
		MinDuration:           30,
		MaxDuration:           300,
		DurationBuffer:        0.1,
		DisplayDuration:       30,
		CleanTransition:       true,
		UpdateInterval:        3600,
		RetryInterval:         30,
		RequestTimeout:        30,
		NoDataTimeout:         10,
		EnabledLeagues:        []string{"nfl", "nba", "mlb"},
		NFL:                   LeagueSettings{Enabled: true},
		NBA:                   LeagueSettings{Enabled: true},
		MLB:                   LeagueSettings{Enabled: true},
		GamesPerFavoriteTeam:  1,
		MaxGamesPerLeague:     5,
		SortOrder:             SortSoonest,
		FutureFetchDays:       7,
		Timezone:              "UTC",
		ShowChannelLogos:      true,
		AssetsDir:             "assets",
		Customization: Customization{
			TeamText:     FontConfig{Font: "PressStart2P-Regular.ttf", FontSize: 8},
			OddsText:     FontConfig{Font: "PressStart2P-Regular.ttf", FontSize: 8},
			DatetimeText: FontConfig{Font: "PressStart2P-Regular.ttf", FontSize: 8},
		},
		Source:         SourceESPN,
		FeedWorkflowID: FeedWorkflowID,
		MaxRefreshes:   100,
		StreamFPS:      10,
		Port:           "8080",
		LogLevel:       "info",
		Temporal:       TemporalConfig{TaskQueue: TaskQueueName},
	}
}

// LoadConfig reads .env, then the YAML file at path (a missing file means
// defaults), then environment overrides, and normalizes the result.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("TICKER_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("No config file found, using defaults", "path", path)
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("TEMPORAL_HOST", &c.Temporal.Host)
	setString("TEMPORAL_NAMESPACE", &c.Temporal.Namespace)
	setString("TEMPORAL_API_KEY", &c.Temporal.APIKey)
	setString("TASK_QUEUE", &c.Temporal.TaskQueue)
	setString("PORT", &c.Port)
	setString("TICKER_SOURCE", &c.Source)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("MATRIX_DRIVER", &c.Matrix.Driver)
	setString("MATRIX_SPI_PORT", &c.Matrix.SPIPort)
	if v := os.Getenv("TICKER_UPDATE_INTERVAL"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			c.UpdateInterval = secs
		} else {
			slog.Warn("Ignoring invalid TICKER_UPDATE_INTERVAL", "value", v, "error", err)
		}
	}
}

// Normalize fills missing values with defaults and clamps the rest into
// usable ranges.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Display.Width <= 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.Height <= 0 {
		c.Display.Height = def.Display.Height
	}
	c.Matrix.Driver = lowerCaser.String(strings.TrimSpace(c.Matrix.Driver))
	if c.Matrix.Driver != MatrixAPA102 {
		c.Matrix.Driver = MatrixNone
	}
	if c.Matrix.SPIPort == "" {
		c.Matrix.SPIPort = def.Matrix.SPIPort
	}
	if c.Matrix.SpeedKHz <= 0 {
		c.Matrix.SpeedKHz = def.Matrix.SpeedKHz
	}
	if c.Matrix.Brightness > 31 {
		c.Matrix.Brightness = 31
	}
	if !positive(c.ScrollSpeed) {
		c.ScrollSpeed = def.ScrollSpeed
	}
	if !positive(c.ScrollDelay) {
		c.ScrollDelay = def.ScrollDelay
	}
	if !positive(c.ScrollPixelsPerSecond) {
		c.ScrollPixelsPerSecond = def.ScrollPixelsPerSecond
	}
	if !positive(c.ScrollTargetFPS) {
		c.ScrollTargetFPS = def.ScrollTargetFPS
	}
	c.ScrollModel = lowerCaser.String(strings.TrimSpace(c.ScrollModel))
	if _, err := ticker.ParseModel(c.ScrollModel); err != nil {
		slog.Warn("Unknown scroll model, using frame", "model", c.ScrollModel)
		c.ScrollModel = ticker.ModelFrame.String()
	}
	if c.GapWidth < 0 {
		c.GapWidth = 0
	}

	if c.MinDuration < 0 {
		c.MinDuration = 0
	}
	if c.MaxDuration < c.MinDuration {
		c.MaxDuration = c.MinDuration
	}
	if c.DurationBuffer < 0 || math.IsNaN(c.DurationBuffer) {
		c.DurationBuffer = 0
	}
	if !positive(c.DisplayDuration) {
		c.DisplayDuration = def.DisplayDuration
	}
	if !positive(c.UpdateInterval) {
		c.UpdateInterval = def.UpdateInterval
	}
	if !positive(c.RetryInterval) {
		c.RetryInterval = def.RetryInterval
	}
	if !positive(c.RequestTimeout) {
		c.RequestTimeout = def.RequestTimeout
	}
	if !positive(c.NoDataTimeout) {
		c.NoDataTimeout = def.NoDataTimeout
	}

	var enabled []string
	for _, key := range c.EnabledLeagues {
		key = lowerCaser.String(strings.TrimSpace(key))
		if _, ok := LookupLeague(key); !ok {
			slog.Warn("Ignoring unknown league", "league", key)
			continue
		}
		if !slices.Contains(enabled, key) {
			enabled = append(enabled, key)
		}
	}
	c.EnabledLeagues = enabled
	for _, ls := range c.leagueSettings() {
		for i, team := range ls.FavoriteTeams {
			ls.FavoriteTeams[i] = upperCaser.String(strings.TrimSpace(team))
		}
	}

	if c.GamesPerFavoriteTeam < 0 {
		c.GamesPerFavoriteTeam = 0
	}
	c.SortOrder = lowerCaser.String(strings.TrimSpace(c.SortOrder))
	switch c.SortOrder {
	case SortSoonest, SortLeague, SortTeam:
	default:
		slog.Warn("Unknown sort order, using soonest", "sortOrder", c.SortOrder)
		c.SortOrder = SortSoonest
	}
	if c.FutureFetchDays <= 0 {
		c.FutureFetchDays = def.FutureFetchDays
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		slog.Warn("Unknown timezone, using UTC", "timezone", c.Timezone)
		c.Timezone = "UTC"
	}

	c.Source = lowerCaser.String(strings.TrimSpace(c.Source))
	if c.Source != SourceTemporal {
		c.Source = SourceESPN
	}
	if c.FeedWorkflowID == "" {
		c.FeedWorkflowID = def.FeedWorkflowID
	}
	if c.MaxRefreshes <= 0 {
		c.MaxRefreshes = def.MaxRefreshes
	}
	if !positive(c.StreamFPS) {
		c.StreamFPS = def.StreamFPS
	}
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.Temporal.TaskQueue == "" {
		c.Temporal.TaskQueue = TaskQueueName
	}
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func (c *Config) leagueSettings() map[string]*LeagueSettings {
	return map[string]*LeagueSettings{
		"nfl":              &c.NFL,
		"nba":              &c.NBA,
		"mlb":              &c.MLB,
		"nhl":              &c.NHL,
		"ncaa_fb":          &c.NCAAFootball,
		"ncaam_basketball": &c.NCAAMBasketball,
	}
}

// League returns the settings for a league key.
func (c Config) League(key string) LeagueSettings {
	if ls, ok := c.leagueSettings()[key]; ok {
		return *ls
	}
	return LeagueSettings{}
}

// ActiveLeagues are the enabled_leagues entries whose own section is enabled.
func (c Config) ActiveLeagues() []string {
	var out []string
	for _, key := range c.EnabledLeagues {
		if c.League(key).Enabled {
			out = append(out, key)
		}
	}
	return out
}

// Location is the configured timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c Config) UpdateEvery() time.Duration { return seconds(c.UpdateInterval) }
func (c Config) RequestTimeoutDuration() time.Duration {
	return seconds(c.RequestTimeout)
}

// FetcherOptions builds ESPN fetcher options from the configuration.
func (c Config) FetcherOptions(logger *slog.Logger) FetcherOptions {
	return FetcherOptions{
		RequestTimeout: c.RequestTimeoutDuration(),
		Logger:         logger,
	}
}

// FilterConfig is the game filter part of the configuration.
func (c Config) FilterConfig() FilterConfig {
	leagues := make(map[string]LeagueSettings)
	for _, l := range Leagues {
		leagues[l.Key] = c.League(l.Key)
	}
	return FilterConfig{
		EnabledLeagues:        c.EnabledLeagues,
		Leagues:               leagues,
		ShowFavoriteTeamsOnly: c.ShowFavoriteTeamsOnly,
		GamesPerFavoriteTeam:  c.GamesPerFavoriteTeam,
		MaxGamesPerLeague:     c.MaxGamesPerLeague,
		SortOrder:             c.SortOrder,
		FutureFetchDays:       c.FutureFetchDays,
	}
}

// WithLeagues narrows the request to keys and enables them in the filter,
// so overridden leagues are not dropped by the configured league list.
func (r FeedRequest) WithLeagues(keys []string) FeedRequest {
	r.Leagues = slices.Clone(keys)
	r.Filter.EnabledLeagues = slices.Clone(keys)
	leagues := make(map[string]LeagueSettings, len(r.Filter.Leagues)+len(keys))
	maps.Copy(leagues, r.Filter.Leagues)
	for _, key := range keys {
		ls := leagues[key]
		ls.Enabled = true
		leagues[key] = ls
	}
	r.Filter.Leagues = leagues
	return r
}

// FeedRequest builds the input of the odds feed workflow.
func (c Config) FeedRequest() FeedRequest {
	return FeedRequest{
		Leagues:        c.ActiveLeagues(),
		Filter:         c.FilterConfig(),
		UpdateInterval: c.UpdateEvery(),
		MaxRefreshes:   c.MaxRefreshes,
		ShowRankings:   c.ShowRankings,
	}
}

// ClockConfig is the scroll speed model.
func (c Config) ClockConfig() ticker.ClockConfig {
	model, _ := ticker.ParseModel(c.ScrollModel)
	if model == ticker.ModelTime {
		return ticker.ClockConfig{
			Model: ticker.ModelTime,
			Speed: c.ScrollPixelsPerSecond,
			Delay: seconds(1 / c.ScrollTargetFPS),
			Loop:  c.Loop,
		}
	}
	return ticker.ClockConfig{
		Model: ticker.ModelFrame,
		Speed: c.ScrollSpeed,
		Delay: seconds(c.ScrollDelay),
		Loop:  c.Loop,
	}
}

// FrameInterval is how often the host asks for a frame. Both scroll models
// sample at scroll_target_fps; the frame model's clock only advances on
// ticks spaced scroll_delay apart.
func (c Config) FrameInterval() time.Duration {
	return seconds(1 / c.ScrollTargetFPS)
}

// TickerSettings maps the configuration onto the scroll engine.
func (c Config) TickerSettings() ticker.Settings {
	s := ticker.DefaultSettings()
	s.DisplayWidth = c.Display.Width
	s.DisplayHeight = c.Display.Height
	s.Gap = c.GapWidth
	s.Background = color.Black
	s.Separator = color.White
	s.Clock = c.ClockConfig()
	s.DynamicDuration = c.DynamicDuration
	s.MinDuration = seconds(c.MinDuration)
	s.MaxDuration = seconds(c.MaxDuration)
	s.DurationBuffer = c.DurationBuffer
	s.DisplayDuration = seconds(c.DisplayDuration)
	s.UpdateInterval = c.UpdateEvery()
	s.RetryInterval = seconds(c.RetryInterval)
	s.NoDataTimeout = seconds(c.NoDataTimeout)
	s.CleanTransition = c.CleanTransition
	return s
}

// SetupLogging installs a text handler on stdout as the default logger.
func SetupLogging(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return logger
}
