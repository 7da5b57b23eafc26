package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sports "espn-odds-ticker"
	"espn-odds-ticker/matrix"
	"espn-odds-ticker/ticker"
	"espn-odds-ticker/tiles"
	"espn-odds-ticker/web"

	"go.temporal.io/sdk/client"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the ticker configuration")
	flag.Parse()

	cfg, err := sports.LoadConfig(*configPath)
	if err != nil {
		log.Fatalln("Unable to load config", err)
	}
	logger := sports.SetupLogging(cfg.LogLevel)

	// Create Temporal client
	var temporalClient client.Client
	temporalClient, err = sports.Dial(cfg, logger)
	if err != nil {
		logger.Warn("Unable to create Temporal client", "error", err)
		logger.Warn("The UI will work but feed operations will run in demo mode")
		temporalClient = nil
	} else {
		defer temporalClient.Close()
		logger.Info("Successfully connected to Temporal server")
	}

	var source sports.GameSource
	if cfg.Source == sports.SourceTemporal && temporalClient != nil {
		source = sports.NewFeedSource(temporalClient, cfg.FeedWorkflowID)
		logger.Info("Reading games from the odds feed workflow", "workflowId", cfg.FeedWorkflowID)
	} else {
		fetcher := sports.NewFetcher(cfg.FetcherOptions(logger))
		source = sports.NewESPNSource(fetcher, sports.NewFilter(cfg.FilterConfig()), cfg.ActiveLeagues(), cfg.ShowRankings)
		logger.Info("Reading games from ESPN", "leagues", cfg.ActiveLeagues())
	}

	builder := tiles.NewBuilder(tiles.OptionsFromConfig(cfg, logger))
	pipeline := tiles.NewPipeline(source, builder, logger)
	tk := ticker.New(cfg.TickerSettings(), pipeline,
		ticker.WithLogger(logger),
		ticker.WithEndHook(func() { logger.Debug("Single pass finished, waiting for rotation") }),
	)
	hostOpts := web.HostOptions{
		Interval:  cfg.FrameInterval(),
		Refresher: pipeline,
		Logger:    logger,
	}
	if cfg.Matrix.Driver == sports.MatrixAPA102 {
		panel, err := matrix.Open(matrix.Options{
			Port:     cfg.Matrix.SPIPort,
			SpeedKHz: cfg.Matrix.SpeedKHz,
			Layout: matrix.Layout{
				Width:      cfg.Display.Width,
				Height:     cfg.Display.Height,
				Serpentine: cfg.Matrix.Serpentine,
				Brightness: cfg.Matrix.Brightness,
			},
			Logger: logger,
		})
		if err != nil {
			logger.Error("Unable to open LED matrix, continuing with the web preview only", "error", err)
		} else {
			defer panel.Close()
			hostOpts.Display = panel
		}
	}
	host := web.NewHost(tk, hostOpts)

	var tc web.TemporalClient
	if temporalClient != nil {
		tc = temporalClient
	}
	handlers := web.NewHandlers(tc, host, cfg, logger)

	mux := http.NewServeMux()
	// Serve static files
	staticDir := "web/static"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// If running from different directory, try relative path
		staticDir = "../../web/static"
	}
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	handlers.Routes(mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostDone := make(chan error, 1)
	go func() { hostDone <- host.Run(ctx) }()

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	go func() {
		logger.Info("Starting web server", "port", cfg.Port)
		logger.Info("Open http://localhost:" + cfg.Port + " in your browser")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if err := <-hostDone; err != nil {
		logger.Error("Ticker host failed", "error", err)
	}
}
