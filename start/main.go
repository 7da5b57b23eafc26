package main

import (
	"context"
	"flag"
	"log"

	sports "espn-odds-ticker"

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

	c, err := sports.Dial(cfg, logger)
	if err != nil {
		log.Fatalln("Unable to create client", err)
	}
	defer c.Close()

	options := client.StartWorkflowOptions{
		ID:        cfg.FeedWorkflowID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}

	req := cfg.FeedRequest()
	we, err := c.ExecuteWorkflow(context.Background(), options, sports.OddsFeedWorkflow, req)
	if err != nil {
		log.Fatalln("Unable to execute workflow", err)
	}
	logger.Info("Started workflow", "WorkflowID", we.GetID(), "RunID", we.GetRunID(), "leagues", req.Leagues, "interval", req.UpdateInterval)
}
