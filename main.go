package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/api"
	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/config"
	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/orchestrator"
	"stealthcompany.com/cues/internal/sampling"
	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/submission"
	"stealthcompany.com/cues/internal/timer"
	"stealthcompany.com/cues/pkg/zerolog_config"
)

func main() {
	installed := flag.Bool("installed", false, "treat this launch as a fresh install")
	flag.Parse()

	cfg := config.Load()

	zerolog_config.Startup("cues", cfg.ElasticsearchURL, cfg.LogLevel)
	log.Info().Msg("Starting cues sampling service")

	metrics.StartSystemMetrics(30 * time.Second)

	backend, err := store.NewCouchbaseBackend(
		cfg.CouchbaseURL,
		cfg.CouchbaseUsername,
		cfg.CouchbasePassword,
		cfg.CouchbaseBucket,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to state store")
	}
	defer backend.Close()

	state := store.NewManager(backend)
	timers := timer.NewService()
	queue := submission.NewQueue(cfg.SubmissionURL, cfg.BridgeTimeout)
	browser := bridge.NewClient(cfg.BridgeURL, cfg.BridgeTimeout)

	svc := sampling.New(sampling.Deps{
		State:          state,
		Timers:         timers,
		Queue:          queue,
		Tabs:           browser,
		Notifier:       browser,
		Self:           browser,
		Platform:       browser,
		ConsentPageURL: cfg.ConsentPageURL,
		SetupPageURL:   cfg.SetupPageURL,
		SurveyPageURL:  cfg.SurveyPageURL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	if *installed {
		if err := svc.HandleInstall(ctx, "install"); err != nil {
			log.Error().Err(err).Msg("Install handling failed")
		}
	} else {
		if err := svc.HandleStartup(ctx); err != nil {
			log.Error().Err(err).Msg("Startup handling failed")
		}
	}

	router := api.SetupRoutes(svc, state)
	manager := orchestrator.NewServiceManager(":"+cfg.APIPort, router, timers)

	if err := manager.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Service exited with error")
	}
}
