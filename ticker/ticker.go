package ticker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNoSource is returned when a refresh is requested without a content source.
var ErrNoSource = errors.New("ticker: no content source")

// ContentSource produces the tiles for one strip, in display order. Every
// tile must be exactly height pixels tall.
type ContentSource interface {
	Tiles(ctx context.Context, width, height int) ([]Tile, error)
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(ctx context.Context, width, height int) ([]Tile, error)

func (f ContentSourceFunc) Tiles(ctx context.Context, width, height int) ([]Tile, error) {
	return f(ctx, width, height)
}

// Settings configures a Ticker.
type Settings struct {
	DisplayWidth  int
	DisplayHeight int
	Gap           int
	Background    color.Color
	Separator     color.Color

	Clock ClockConfig

	DynamicDuration bool
	MinDuration     time.Duration
	MaxDuration     time.Duration
	DurationBuffer  float64
	// DisplayDuration is reported when DynamicDuration is off.
	DisplayDuration time.Duration

	UpdateInterval time.Duration
	// RetryInterval replaces UpdateInterval after a failed refresh.
	RetryInterval time.Duration
	NoDataTimeout time.Duration

	// CleanTransition rewinds a pass that cannot finish before the session's
	// duration runs out, within TransitionWindow of the end.
	CleanTransition  bool
	TransitionWindow time.Duration
}

// DefaultSettings matches a 128x32 panel scrolling 2px every 50ms.
func DefaultSettings() Settings {
	return Settings{
		DisplayWidth:     128,
		DisplayHeight:    32,
		Gap:              24,
		Background:       color.Black,
		Separator:        color.White,
		Clock:            ClockConfig{Model: ModelFrame, Speed: 2, Delay: 50 * time.Millisecond, Loop: true},
		DynamicDuration:  true,
		MinDuration:      30 * time.Second,
		MaxDuration:      300 * time.Second,
		DurationBuffer:   0.1,
		DisplayDuration:  30 * time.Second,
		UpdateInterval:   time.Hour,
		RetryInterval:    30 * time.Second,
		NoDataTimeout:    10 * time.Second,
		CleanTransition:  true,
		TransitionWindow: 2 * time.Second,
	}
}

type session struct {
	id      uuid.UUID
	started time.Time
	active  bool
}

// Info is a snapshot of the ticker's state.
type Info struct {
	SessionID       string           `json:"sessionId"`
	SessionStarted  time.Time        `json:"sessionStarted"`
	Tiles           int              `json:"tiles"`
	ContentWidth    int              `json:"contentWidth"`
	StripWidth      int              `json:"stripWidth"`
	Placeholder     bool             `json:"placeholder"`
	Position        float64          `json:"position"`
	State           string           `json:"state"`
	EndReached      bool             `json:"endReached"`
	Wraps           int              `json:"wraps"`
	Loop            bool             `json:"loop"`
	Model           string           `json:"model"`
	PixelsPerSecond float64          `json:"pixelsPerSecond"`
	DynamicDuration bool             `json:"dynamicDuration"`
	Duration        DurationEstimate `json:"duration"`
	LastRefresh     time.Time        `json:"lastRefresh"`
	LastError       string           `json:"lastError,omitempty"`
	Refreshing      bool             `json:"refreshing"`
}

// Option customises a Ticker.
type Option func(*Ticker)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Ticker) { t.logger = l }
}

// WithNow replaces the wall clock, mostly for tests.
func WithNow(now func() time.Time) Option {
	return func(t *Ticker) { t.now = now }
}

// WithEndHook is called once per session when a single-pass scroll stops.
func WithEndHook(fn func()) Option {
	return func(t *Ticker) { t.onEnd = fn }
}

// Ticker is the host-facing scroller. It is not safe for concurrent use:
// the host calls it from a single render path, once per display refresh.
type Ticker struct {
	settings Settings
	source   ContentSource
	logger   *slog.Logger
	now      func() time.Time
	onEnd    func()

	strip    *Strip
	clock    *Clock
	estimate DurationEstimate

	pending     *Future[[]Tile]
	lastAttempt time.Time
	lastRefresh time.Time
	lastErr     error

	session            session
	insufficientLogged bool
	logged             map[string]struct{}
}

// New returns a ticker that pulls tiles from source.
func New(settings Settings, source ContentSource, opts ...Option) *Ticker {
	t := &Ticker{
		settings: settings,
		source:   source,
		logger:   slog.Default(),
		now:      time.Now,
		clock:    NewClock(settings.Clock),
		logged:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.estimate = t.estimateFor(0)
	return t
}

// Update starts a background refresh when the update interval has elapsed.
// It never blocks; the result is picked up by a later Frame.
func (t *Ticker) Update(ctx context.Context) {
	t.collect()
	if t.pending != nil || !t.refreshDue() {
		return
	}
	t.startRefresh(ctx)
}

// ForceRefresh starts a refresh now unless one is already running.
func (t *Ticker) ForceRefresh(ctx context.Context) error {
	if t.source == nil {
		return ErrNoSource
	}
	t.collect()
	if t.pending == nil {
		t.startRefresh(ctx)
	}
	return nil
}

// StartSession marks the host showing the ticker. A forced clear, the first
// call, or a session older than twice the current duration starts a new
// session from position 0.
func (t *Ticker) StartSession(forceClear bool) {
	now := t.now()
	if forceClear || !t.session.active {
		t.beginSession(now)
		return
	}
	if elapsed := now.Sub(t.session.started); elapsed > 2*t.duration() {
		t.logger.Debug("Display session is stale, resetting", "elapsed", elapsed, "session", t.session.id)
		t.beginSession(now)
	}
}

// Reset rewinds the scroll to the start and begins a new session.
func (t *Ticker) Reset() {
	t.beginSession(t.now())
}

func (t *Ticker) beginSession(now time.Time) {
	t.session = session{id: uuid.New(), started: now, active: true}
	t.clock.Reset()
	t.insufficientLogged = false
}

// Frame returns the visible window for this tick. It always returns an image
// of exactly the display size; failures yield a placeholder frame.
func (t *Ticker) Frame(ctx context.Context) (frame image.Image) {
	defer func() {
		if p := recover(); p != nil {
			t.logOnce(slog.LevelError, "Ticker frame failed", "error", fmt.Sprint(p))
			frame = t.fallback()
		}
	}()

	t.collect()
	if t.strip == nil {
		t.ensureContent(ctx, false)
	}
	if t.strip == nil {
		return t.fallback()
	}
	if t.strip.Placeholder() {
		return RenderViewport(t.strip, 0, false)
	}

	now := t.now()
	res := t.clock.Tick(now)
	if res.JustEnded {
		t.logger.Info("Ticker reached end of content", "position", res.Position, "contentWidth", t.strip.ContentWidth(), "session", t.session.id)
		if t.onEnd != nil {
			t.onEnd()
		}
	}
	if res.Wrapped {
		t.logger.Debug("Ticker loop wrapped", "position", res.Position, "period", t.strip.Period())
	}
	t.cleanTransition(now)

	return RenderViewport(t.strip, t.clock.Position(), t.settings.Clock.Loop)
}

// RecommendedDuration is how long the host should keep the ticker on
// screen. When nothing has been measured yet it refreshes synchronously
// first so the scheduler is not handed a meaningless default.
func (t *Ticker) RecommendedDuration(ctx context.Context) time.Duration {
	if !t.settings.DynamicDuration {
		return t.settings.DisplayDuration
	}
	t.collect()
	if t.strip == nil || t.strip.ContentWidth() == 0 {
		t.ensureContent(ctx, true)
	}
	return t.estimate.Duration()
}

// CycleComplete reports whether the current session has shown all content:
// the end was reached in single-pass mode, or the loop wrapped at least once.
func (t *Ticker) CycleComplete() bool {
	if t.settings.Clock.Loop {
		return t.clock.Wraps() > 0
	}
	return t.clock.EndReached()
}

// SessionExpired reports whether the current session has been shown for
// its recommended duration.
func (t *Ticker) SessionExpired() bool {
	return t.session.active && t.now().Sub(t.session.started) >= t.duration()
}

// Info returns a snapshot for status pages.
func (t *Ticker) Info() Info {
	info := Info{
		SessionID:       t.session.id.String(),
		SessionStarted:  t.session.started,
		Position:        t.clock.Position(),
		State:           t.clock.State().String(),
		EndReached:      t.clock.EndReached(),
		Wraps:           t.clock.Wraps(),
		Loop:            t.settings.Clock.Loop,
		Model:           t.settings.Clock.Model.String(),
		PixelsPerSecond: t.settings.Clock.PixelsPerSecond(),
		DynamicDuration: t.settings.DynamicDuration,
		Duration:        t.estimate,
		LastRefresh:     t.lastRefresh,
		Refreshing:      t.pending != nil,
	}
	if !t.session.active {
		info.SessionID = ""
	}
	if t.strip != nil {
		info.Tiles = t.strip.Tiles()
		info.ContentWidth = t.strip.ContentWidth()
		info.StripWidth = t.strip.Width()
		info.Placeholder = t.strip.Placeholder()
	}
	if t.lastErr != nil {
		info.LastError = t.lastErr.Error()
	}
	return info
}

// Close drops the strip and rewinds the clock.
func (t *Ticker) Close() {
	t.strip = nil
	t.pending = nil
	t.clock.Reset()
	t.session = session{}
	t.logger.Info("Ticker cleaned up")
}

func (t *Ticker) refreshDue() bool {
	if t.source == nil {
		return false
	}
	if t.lastAttempt.IsZero() {
		return true
	}
	wait := t.settings.UpdateInterval
	if t.lastErr != nil && t.settings.RetryInterval > 0 {
		wait = min(wait, t.settings.RetryInterval)
	}
	return t.now().Sub(t.lastAttempt) >= wait
}

func (t *Ticker) startRefresh(ctx context.Context) {
	t.lastAttempt = t.now()
	w, h := t.settings.DisplayWidth, t.settings.DisplayHeight
	src := t.source
	t.pending = Go(ctx, func(ctx context.Context) ([]Tile, error) {
		return src.Tiles(ctx, w, h)
	})
}

// collect swaps in a finished refresh without blocking.
func (t *Ticker) collect() {
	if t.pending == nil {
		return
	}
	tiles, ok, err := t.pending.Poll()
	if !ok {
		return
	}
	t.pending = nil
	t.apply(tiles, err)
}

// ensureContent starts a refresh when one is due and waits for it up to
// NoDataTimeout. A refresh that times out stays pending; later calls only
// poll it unless waitPending is set.
func (t *Ticker) ensureContent(ctx context.Context, waitPending bool) {
	if t.pending == nil {
		if !t.refreshDue() {
			return
		}
		t.startRefresh(ctx)
	} else if !waitPending {
		return
	}
	tiles, err := t.pending.Await(ctx, t.settings.NoDataTimeout)
	if errors.Is(err, ErrDeadline) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		t.logOnce(slog.LevelWarn, "Ticker refresh did not finish in time, using fallback", "timeout", t.settings.NoDataTimeout, "error", err)
		return
	}
	t.pending = nil
	t.apply(tiles, err)
}

func (t *Ticker) apply(tiles []Tile, err error) {
	if err != nil {
		t.lastErr = err
		t.logOnce(slog.LevelError, "Ticker refresh failed", "error", err)
		return
	}
	strip, err := Assemble(tiles, StripOptions{
		Gap:           t.settings.Gap,
		DisplayWidth:  t.settings.DisplayWidth,
		DisplayHeight: t.settings.DisplayHeight,
		Background:    t.settings.Background,
		Separator:     t.settings.Separator,
	})
	if err != nil {
		t.lastErr = err
		t.logger.Error("Ticker strip rejected", "error", err, "tiles", len(tiles))
		return
	}

	t.strip = strip
	t.lastErr = nil
	t.lastRefresh = t.now()
	clear(t.logged)
	t.clock.SetContent(strip.ContentWidth(), strip.DisplayWidth())
	t.clock.Reset()
	t.insufficientLogged = false
	t.estimate = t.estimateFor(strip.ContentWidth())

	if strip.Placeholder() {
		t.logger.Warn("No games found for odds ticker")
		return
	}
	t.logger.Info("Ticker strip built",
		"tiles", strip.Tiles(),
		"contentWidth", strip.ContentWidth(),
		"stripWidth", strip.Width(),
		"duration", t.estimate.Duration())
}

func (t *Ticker) estimateFor(contentWidth int) DurationEstimate {
	return EstimateDuration(contentWidth,
		t.settings.Clock.PixelsPerSecond(),
		t.settings.DurationBuffer,
		t.settings.MinDuration.Seconds(),
		t.settings.MaxDuration.Seconds())
}

func (t *Ticker) duration() time.Duration {
	if !t.settings.DynamicDuration {
		return t.settings.DisplayDuration
	}
	return t.estimate.Duration()
}

// cleanTransition rewinds to the start when the pass in progress cannot
// finish before the session's duration runs out.
func (t *Ticker) cleanTransition(now time.Time) {
	if !t.settings.CleanTransition || !t.session.active {
		return
	}
	if t.clock.EndReached() || t.clock.Position() <= 0 {
		return
	}
	remaining := t.duration() - now.Sub(t.session.started)
	if remaining >= t.settings.TransitionWindow {
		return
	}
	pps := t.settings.Clock.PixelsPerSecond()
	if pps <= 0 {
		return
	}
	needed := time.Duration(t.clock.Remaining() / pps * float64(time.Second))
	if needed <= remaining {
		return
	}
	if !t.insufficientLogged {
		t.logger.Warn("Not enough time to complete content display",
			"remaining", remaining, "needed", needed, "session", t.session.id)
		t.insufficientLogged = true
	}
	t.clock.Rewind()
}

func (t *Ticker) fallback() image.Image {
	return Placeholder(t.settings.DisplayWidth, t.settings.DisplayHeight, NoDataMessage, FallbackBackground)
}

func (t *Ticker) logOnce(level slog.Level, msg string, args ...any) {
	key := fmt.Sprint(append([]any{msg}, args...)...)
	if _, seen := t.logged[key]; seen {
		return
	}
	t.logged[key] = struct{}{}
	t.logger.Log(context.Background(), level, msg, args...)
}
