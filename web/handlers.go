package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	sports "espn-odds-ticker"
	"espn-odds-ticker/ticker"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/hako/durafmt"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemporalClient is the part of client.Client the handlers use.
type TemporalClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	ListWorkflow(ctx context.Context, request *workflowservice.ListWorkflowExecutionsRequest) (*workflowservice.ListWorkflowExecutionsResponse, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
	CancelWorkflow(ctx context.Context, workflowID string, runID string) error
}

// TickerControl is the part of Host the handlers use.
type TickerControl interface {
	Preview() *Preview
	Reset(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type Handlers struct {
	temporalClient TemporalClient
	ticker         TickerControl
	cfg            sports.Config
	filterStats    sports.FilterStats
	logger         *slog.Logger
	upgrader       websocket.Upgrader
}

// NewHandlers builds the API handlers. Without a Temporal client the feed
// endpoints answer in demo mode; without a ticker the ticker endpoints
// return 503.
func NewHandlers(temporalClient TemporalClient, tc TickerControl, cfg sports.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		temporalClient: temporalClient,
		ticker:         tc,
		cfg:            cfg,
		filterStats:    sports.NewFilter(cfg.FilterConfig()).Stats(),
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Sport represents a sport available in ESPN API
type Sport struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// League represents a league within a sport
type League struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// TickerStatus is the ticker Info plus human readable fields.
type TickerStatus struct {
	ticker.Info
	SessionAge   string             `json:"sessionAge,omitempty"`
	LastUpdated  string             `json:"lastUpdated,omitempty"`
	DurationText string             `json:"durationText"`
	ContentText  string             `json:"contentText"`
	Filter       sports.FilterStats `json:"filter"`
}

// FeedWorkflow represents a running odds feed.
type FeedWorkflow struct {
	WorkflowID  string    `json:"workflowId"`
	RunID       string    `json:"runId"`
	WorkflowURL string    `json:"workflowUrl,omitempty"`
	Status      string    `json:"status"`
	Games       int       `json:"games"`
	Refreshes   int       `json:"refreshes"`
	FetchedAt   time.Time `json:"fetchedAt"`
	LastError   string    `json:"lastError,omitempty"`
}

// StartFeedRequest optionally overrides the configured feed.
type StartFeedRequest struct {
	WorkflowID            string   `json:"workflowId"`
	Leagues               []string `json:"leagues"`
	UpdateIntervalSeconds float64  `json:"updateIntervalSeconds"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Routes registers every API route on mux.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sports", h.GetSports)
	mux.HandleFunc("/api/leagues/", h.GetLeagues)
	mux.HandleFunc("/api/ticker/status", h.GetTickerStatus)
	mux.HandleFunc("/api/ticker/frame.png", h.GetFrame)
	mux.HandleFunc("/api/ticker/stream", h.StreamFrames)
	mux.HandleFunc("/api/ticker/reset", h.ResetTicker)
	mux.HandleFunc("/api/ticker/refresh", h.RefreshTicker)
	mux.HandleFunc("/api/feed", h.StartFeed)
	mux.HandleFunc("/api/feeds", h.GetFeeds)
	mux.HandleFunc("/api/feeds/", h.ManageFeed)
}

// GetSports returns the sports with at least one supported league.
func (h *Handlers) GetSports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := cases.Title(language.English)
	var out []Sport
	for _, s := range sports.Sports() {
		out = append(out, Sport{ID: s, Name: title.String(s), Path: s})
	}
	writeJSON(w, out)
}

// GetLeagues returns available leagues for a sport
func (h *Handlers) GetLeagues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sportPath := strings.TrimPrefix(r.URL.Path, "/api/leagues/")
	if sportPath == "" {
		http.Error(w, "Sport required", http.StatusBadRequest)
		return
	}

	infos := sports.LeaguesForSport(sportPath)
	if len(infos) == 0 {
		http.Error(w, "Unsupported sport", http.StatusBadRequest)
		return
	}
	leagues := make([]League, 0, len(infos))
	for _, l := range infos {
		leagues = append(leagues, League{ID: l.Key, Name: l.Name, Path: l.League})
	}
	writeJSON(w, leagues)
}

func (h *Handlers) tickerAvailable(w http.ResponseWriter) bool {
	if h.ticker == nil {
		http.Error(w, "Ticker is not running", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// GetTickerStatus reports scroll position, session, duration estimate and
// the game filter in effect.
func (h *Handlers) GetTickerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.tickerAvailable(w) {
		return
	}
	status := NewTickerStatus(h.ticker.Preview().Info(), time.Now())
	status.Filter = h.filterStats
	writeJSON(w, status)
}

// NewTickerStatus adds human readable fields to info.
func NewTickerStatus(info ticker.Info, now time.Time) TickerStatus {
	status := TickerStatus{
		Info:         info,
		DurationText: durafmt.Parse(info.Duration.Duration().Round(time.Second)).LimitFirstN(2).String(),
		ContentText:  fmt.Sprintf("%s px in %s games", humanize.Comma(int64(info.ContentWidth)), humanize.Comma(int64(info.Tiles))),
	}
	if !info.SessionStarted.IsZero() {
		status.SessionAge = humanize.RelTime(info.SessionStarted, now, "ago", "from now")
	}
	if !info.LastRefresh.IsZero() {
		status.LastUpdated = humanize.RelTime(info.LastRefresh, now, "ago", "from now")
	}
	return status
}

// GetFrame returns the latest frame as a PNG.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.tickerAvailable(w) {
		return
	}
	frame, _ := h.ticker.Preview().Frame()
	if frame == nil {
		http.Error(w, "No frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// StreamFrames sends each new frame as a binary PNG websocket message, at
// most stream_fps times per second.
func (h *Handlers) StreamFrames(w http.ResponseWriter, r *http.Request) {
	if !h.tickerAvailable(w) {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	fps := h.cfg.StreamFPS
	if fps <= 0 {
		fps = 10
	}
	interval := time.Duration(float64(time.Second) / fps)
	t := time.NewTicker(interval)
	defer t.Stop()

	preview := h.ticker.Preview()
	var lastSeq uint64
	var buf bytes.Buffer
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-t.C:
		}
		frame, seq := preview.Frame()
		if frame == nil || seq == lastSeq {
			continue
		}
		lastSeq = seq

		buf.Reset()
		if err := png.Encode(&buf, frame); err != nil {
			h.logger.Error("Failed to encode frame", "error", err)
			return
		}
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
			h.logger.Debug("Frame stream closed", "error", err)
			return
		}
	}
}

// ResetTicker rewinds the scroll to a new session.
func (h *Handlers) ResetTicker(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, func(ctx context.Context) error { return h.ticker.Reset(ctx) }, "Ticker reset")
}

// RefreshTicker fetches games and rebuilds the strip now.
func (h *Handlers) RefreshTicker(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, func(ctx context.Context) error { return h.ticker.Refresh(ctx) }, "Ticker refresh started")
}

func (h *Handlers) control(w http.ResponseWriter, r *http.Request, fn func(context.Context) error, message string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.tickerAvailable(w) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		http.Error(w, fmt.Sprintf("Failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": message})
}

// StartFeed starts the odds feed workflow.
func (h *Handlers) StartFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StartFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for _, key := range req.Leagues {
		if _, ok := sports.LookupLeague(key); !ok {
			http.Error(w, fmt.Sprintf("Unknown league %q", key), http.StatusBadRequest)
			return
		}
	}

	// Check if Temporal client is available
	if h.temporalClient == nil {
		writeJSON(w, map[string]string{
			"workflowId": "demo-workflow-" + time.Now().Format("20060102-150405"),
			"runId":      "demo-run-" + time.Now().Format("150405"),
			"message":    "Demo mode: Feed request received (Temporal server not connected)",
		})
		return
	}

	feedReq := h.cfg.FeedRequest()
	if len(req.Leagues) > 0 {
		feedReq = feedReq.WithLeagues(req.Leagues)
	}
	if req.UpdateIntervalSeconds > 0 {
		feedReq.UpdateInterval = time.Duration(req.UpdateIntervalSeconds * float64(time.Second))
	}
	workflowID := req.WorkflowID
	if workflowID == "" {
		workflowID = h.cfg.FeedWorkflowID
	}

	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: h.cfg.Temporal.TaskQueue,
	}
	we, err := h.temporalClient.ExecuteWorkflow(r.Context(), options, sports.OddsFeedWorkflow, feedReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to start workflow: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"workflowId": we.GetID(),
		"runId":      we.GetRunID(),
		"message":    "Odds feed started successfully",
	})
}

func (h *Handlers) workflowURL(workflowID, runID string) string {
	path := fmt.Sprintf("/namespaces/%s/workflows/%s/%s", h.cfg.Temporal.Namespace, workflowID, runID)
	if sports.IsLocalTemporal(h.cfg.Temporal.Host) {
		return "http://localhost:8233" + path
	}
	return "https://cloud.temporal.io" + path
}

// GetFeeds returns the running odds feeds with their latest snapshot.
func (h *Handlers) GetFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	feeds := []FeedWorkflow{}
	if h.temporalClient == nil {
		writeJSON(w, feeds)
		return
	}

	resp, err := h.temporalClient.ListWorkflow(r.Context(), &workflowservice.ListWorkflowExecutionsRequest{
		Query: "WorkflowType = 'OddsFeedWorkflow' AND ExecutionStatus = 'Running'",
	})
	if err != nil {
		// Log error but don't fail the request - return empty list
		h.logger.Error("Failed to list workflows", "error", err)
		writeJSON(w, feeds)
		return
	}

	for _, execution := range resp.Executions {
		feed := FeedWorkflow{
			WorkflowID: execution.GetExecution().GetWorkflowId(),
			RunID:      execution.GetExecution().GetRunId(),
			Status:     execution.GetStatus().String(),
		}
		feed.WorkflowURL = h.workflowURL(feed.WorkflowID, feed.RunID)

		var snapshot sports.FeedSnapshot
		value, err := h.temporalClient.QueryWorkflow(r.Context(), feed.WorkflowID, feed.RunID, sports.GamesQueryName)
		if err == nil {
			err = value.Get(&snapshot)
		}
		if err != nil {
			h.logger.Warn("Failed to query feed", "workflowId", feed.WorkflowID, "error", err)
		}
		feed.Games = len(snapshot.Games)
		feed.Refreshes = snapshot.Refreshes
		feed.FetchedAt = snapshot.FetchedAt
		feed.LastError = snapshot.LastError
		feeds = append(feeds, feed)
	}

	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].WorkflowID < feeds[j].WorkflowID
	})
	writeJSON(w, feeds)
}

// ManageFeed cancels a feed workflow.
func (h *Handlers) ManageFeed(w http.ResponseWriter, r *http.Request) {
	workflowID := strings.TrimPrefix(r.URL.Path, "/api/feeds/")
	if workflowID == "" {
		http.Error(w, "Workflow ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if h.temporalClient == nil {
			writeJSON(w, map[string]string{
				"message": "Demo mode: Feed cancel request received (Temporal server not connected)",
			})
			return
		}

		if err := h.temporalClient.CancelWorkflow(r.Context(), workflowID, ""); err != nil {
			http.Error(w, fmt.Sprintf("Failed to cancel workflow: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"message": "Feed cancelled successfully"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
