package web

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"espn-odds-ticker/ticker"
)

// ErrHostStopped is returned by control calls once the frame loop has exited.
var ErrHostStopped = errors.New("ticker host stopped")

// Display receives every rendered frame.
type Display interface {
	Show(ctx context.Context, frame image.Image) error
}

// Refresher asks the game source to fetch now.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// Preview keeps the latest frame and ticker status for HTTP readers. It is a
// Display.
type Preview struct {
	mu    sync.RWMutex
	frame image.Image
	seq   uint64
	info  ticker.Info
}

func (p *Preview) Show(ctx context.Context, frame image.Image) error {
	p.mu.Lock()
	p.frame = frame
	p.seq++
	p.mu.Unlock()
	return nil
}

// Frame returns the latest frame and its sequence number. The frame is nil
// before the first tick.
func (p *Preview) Frame() (image.Image, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frame, p.seq
}

func (p *Preview) Info() ticker.Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

func (p *Preview) setInfo(info ticker.Info) {
	p.mu.Lock()
	p.info = info
	p.mu.Unlock()
}

type commandKind int

const (
	cmdReset commandKind = iota
	cmdRefresh
)

type command struct {
	kind commandKind
	done chan error
}

// HostOptions configures a Host.
type HostOptions struct {
	// Interval between frames.
	Interval time.Duration
	// PublishTimeout bounds how long a frame may take to reach the display.
	PublishTimeout time.Duration
	Display        Display
	Refresher      Refresher
	Logger         *slog.Logger
}

// Host drives a Ticker at a fixed frame rate. The loop goroutine is the only
// one that touches the ticker; other goroutines send it commands.
type Host struct {
	tk        *ticker.Ticker
	preview   *Preview
	display   Display
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	commands chan command
	stopped  chan struct{}
	pending  *ticker.Future[struct{}]
}

func NewHost(tk *ticker.Ticker, opts HostOptions) *Host {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = time.Second
	}
	return &Host{
		tk:        tk,
		preview:   &Preview{},
		display:   opts.Display,
		refresher: opts.Refresher,
		interval:  opts.Interval,
		timeout:   opts.PublishTimeout,
		logger:    opts.Logger,
		commands:  make(chan command),
		stopped:   make(chan struct{}),
	}
}

// Preview is the frame and status buffer the HTTP handlers read.
func (h *Host) Preview() *Preview { return h.preview }

// Run renders frames until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.stopped)
	defer h.tk.Close()

	h.logger.Info("Starting ticker host", "interval", h.interval)
	h.tk.Update(ctx)
	h.tk.StartSession(true)
	h.logger.Info("Recommended display duration", "duration", h.tk.RecommendedDuration(ctx))

	frames := time.NewTicker(h.interval)
	defer frames.Stop()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Ticker host stopping")
			return nil
		case cmd := <-h.commands:
			cmd.done <- h.handle(ctx, cmd)
		case <-frames.C:
			h.tick(ctx)
		}
	}
}

func (h *Host) tick(ctx context.Context) {
	h.tk.Update(ctx)
	h.tk.StartSession(false)
	frame := h.tk.Frame(ctx)
	h.publish(ctx, frame)

	// A finished single pass holds its last frame until the session's
	// duration is used up; a loop restarts on the first wrap.
	info := h.tk.Info()
	if h.tk.CycleComplete() && (info.Loop || h.tk.SessionExpired()) {
		h.logger.Debug("Ticker cycle complete, starting a new session", "session", info.SessionID)
		h.tk.StartSession(true)
		info = h.tk.Info()
	}
	h.preview.setInfo(info)
}

// publish hands the frame to the displays. A display that has not finished
// the previous frame within the timeout causes frames to be dropped until
// it catches up.
func (h *Host) publish(ctx context.Context, frame image.Image) {
	h.preview.Show(ctx, frame)
	if h.display == nil {
		return
	}
	if h.pending != nil {
		if _, done, _ := h.pending.Poll(); !done {
			return
		}
		h.pending = nil
	}

	f := ticker.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.display.Show(ctx, frame)
	})
	_, err := f.Await(ctx, h.timeout)
	switch {
	case errors.Is(err, ticker.ErrDeadline):
		h.logger.Warn("Display is slow, dropping frames", "timeout", h.timeout)
		h.pending = f
	case err != nil && ctx.Err() == nil:
		h.logger.Error("Failed to show frame", "error", err)
	}
}

func (h *Host) handle(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdReset:
		h.tk.Reset()
		h.logger.Info("Ticker reset")
	case cmdRefresh:
		if h.refresher != nil {
			if err := h.refresher.ForceRefresh(ctx); err != nil {
				h.logger.Warn("Source refresh request failed", "error", err)
			}
		}
		if err := h.tk.ForceRefresh(ctx); err != nil {
			return err
		}
		h.logger.Info("Ticker refresh started")
	}
	h.preview.setInfo(h.tk.Info())
	return nil
}

func (h *Host) send(ctx context.Context, kind commandKind) error {
	cmd := command{kind: kind, done: make(chan error, 1)}
	select {
	case h.commands <- cmd:
	case <-h.stopped:
		return ErrHostStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset rewinds the ticker to a new session.
func (h *Host) Reset(ctx context.Context) error { return h.send(ctx, cmdReset) }

// Refresh asks the source to fetch and the ticker to rebuild its strip.
func (h *Host) Refresh(ctx context.Context) error { return h.send(ctx, cmdRefresh) }
