package main

import (
	"flag"
	"log"

	sports "espn-odds-ticker"

	"go.temporal.io/sdk/worker"
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
	c, err := sports.Dial(cfg, logger)
	if err != nil {
		log.Fatalln("Unable to create Temporal client", err)
	}
	defer c.Close()

	// Create worker
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(sports.OddsFeedWorkflow)

	// Register activities
	w.RegisterActivity(&sports.Activities{Fetcher: sports.NewFetcher(cfg.FetcherOptions(logger))})

	// Start worker
	logger.Info("Starting Temporal worker for the odds ticker", "taskQueue", cfg.Temporal.TaskQueue)
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalln("Unable to start worker", err)
	}
}
