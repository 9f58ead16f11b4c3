package main

import (
	"context"
	"flag"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/robfig/cron"

	"github.com/propplyai/propply-ai/pkg/fetcher"
	"github.com/propplyai/propply-ai/pkg/geocoder"
	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/orchestrator"
	"github.com/propplyai/propply-ai/pkg/persistence/postgres"
	"github.com/propplyai/propply-ai/pkg/report"
	"github.com/propplyai/propply-ai/pkg/utils"
	"github.com/propplyai/propply-ai/pkg/webhook"
)

const checkRunSecs = 30

func checkCron(cr *cron.Cron) {
	for _, entry := range cr.Entries() {
		log.Infof("sync-cron: prev run %v, next run %v", entry.Prev, entry.Next)
	}
}

func main() {
	config := &utils.Config{}
	flag.Usage = func() {
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	if err := config.PopulateFromEnv(); err != nil {
		config.OutputUsage()
		log.Errorf("invalid config: %v", err)
		os.Exit(2)
	}
	if config.DBURL == "" {
		log.Errorf("sync-cron requires db_url to be set; nothing to re-sync without a properties table")
		os.Exit(2)
	}

	store, err := postgres.NewPersister(context.Background(), config.DBURL)
	if err != nil {
		log.Errorf("connecting to postgres: %v", err)
		os.Exit(2)
	}
	defer func() { _ = store.Close() }()

	creds := fetcher.Credentials{
		AppToken:    config.NYCAppToken,
		BasicKeyID:  config.NYCAPIKeyID,
		BasicSecret: config.NYCAPIKeySecret,
	}
	client := fetcher.NewClient(creds, fetcher.DefaultRPS(creds))
	resolver := geocoder.NewResolver(client, config.NYCGeosearchURL)
	orch := orchestrator.New(resolver, client, config.RunDeadline())
	dispatcher := webhook.NewDispatcher(config.AIWebhookURL)

	// Parse with the same five-field grammar PopulateFromEnv validated
	// against; cron.AddFunc would read the first field as seconds.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(config.SyncCronSchedule)
	if err != nil {
		log.Errorf("scheduling sync cron: %v", err)
		os.Exit(1)
	}
	cr := cron.New()
	cr.Schedule(schedule, cron.FuncJob(func() { runSync(orch, store, dispatcher, config.ReportOutputDir) }))
	cr.Start()

	for range time.Tick(checkRunSecs * time.Second) {
		checkCron(cr)
	}
}

// runSync re-resolves every property already on file, per SPEC_FULL.md's
// scheduled re-sync contract: one orchestrator run per tracked property,
// persisted and dispatched exactly as a fresh compliance run would be.
func runSync(orch *orchestrator.Orchestrator, store *postgres.Persister, dispatcher *webhook.Dispatcher, reportDir string) {
	ctx := context.Background()

	properties, err := store.ListProperties(ctx)
	if err != nil {
		log.Errorf("sync-cron: listing properties: %v", err)
		return
	}
	log.Infof("sync-cron: re-syncing %d properties", len(properties))

	for _, property := range properties {
		record, err := orch.Run(ctx, property.Address, property.Borough, model.DefaultRunConfig())
		if err != nil {
			log.Errorf("sync-cron: run failed for %q: %v", property.Address, err)
			continue
		}
		if err := store.PersistRecord(ctx, record); err != nil {
			log.Errorf("sync-cron: persisting %q: %v", property.Address, err)
		}
		if reportDir != "" {
			if _, err := report.WriteFile(reportDir, record); err != nil {
				log.Errorf("sync-cron: writing report for %q: %v", property.Address, err)
			}
		}
		if err := dispatcher.Send(ctx, record); err != nil {
			log.Warningf("sync-cron: webhook dispatch failed for %q: %v", property.Address, err)
		}
	}
}
