// Command sweeper is a one-shot pipeline job, run from cron or a Kubernetes
// CronJob. It exits 1 on failure and 2 when some templates could not be
// advanced.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moneta/internal/client"
	"moneta/internal/config"
	"moneta/internal/logger"
	"moneta/internal/sweeper"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadSweeper()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	logger.Init(cfg.Env)
	defer logger.Sync()
	log := logger.Named("sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	s := sweeper.New(client.NewMonetaClient(cfg.APIURL, cfg.PipelineAPIKey, httpClient), cfg.RecordSnapshots, log)

	result, err := s.Run(ctx)
	if err != nil {
		log.Errorw("sweep failed", "error", err)
		return 1
	}

	log.Infow("sweep completed",
		"materialized", result.Advance.Materialized,
		"snapshots_recorded", result.SnapshotsRecorded,
		"errors", len(result.Advance.Errors),
		"duration", result.Duration.String(),
	)
	if result.Failed() {
		return 2
	}
	return 0
}
