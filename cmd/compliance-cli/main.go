package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/fetcher"
	"github.com/propplyai/propply-ai/pkg/geocoder"
	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/orchestrator"
	"github.com/propplyai/propply-ai/pkg/persistence"
	"github.com/propplyai/propply-ai/pkg/persistence/postgres"
	"github.com/propplyai/propply-ai/pkg/report"
	"github.com/propplyai/propply-ai/pkg/utils"
)

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

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: compliance-cli <address> [borough]")
		os.Exit(2)
	}
	address := args[0]
	borough := ""
	if len(args) > 1 {
		borough = args[1]
	}

	creds := fetcher.Credentials{
		AppToken:    config.NYCAppToken,
		BasicKeyID:  config.NYCAPIKeyID,
		BasicSecret: config.NYCAPIKeySecret,
	}
	client := fetcher.NewClient(creds, fetcher.DefaultRPS(creds))
	resolver := geocoder.NewResolver(client, config.NYCGeosearchURL)
	orch := orchestrator.New(resolver, client, config.RunDeadline())

	store, err := openStore(config)
	if err != nil {
		log.Errorf("opening persistence store: %v", err)
		os.Exit(2)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	record, err := orch.Run(ctx, address, borough, model.DefaultRunConfig())
	if err != nil {
		log.Errorf("compliance run failed: %v", err)
		os.Exit(1)
	}

	if err := store.PersistRecord(ctx, record); err != nil {
		log.Errorf("persisting compliance record: %v", err)
	}

	path, err := report.WriteFile(config.ReportOutputDir, record)
	if err != nil {
		log.Errorf("writing report file: %v", err)
		os.Exit(1)
	}

	printSummary(record, path)
}

func openStore(config *utils.Config) (persistence.Store, error) {
	if config.DBURL == "" {
		return &persistence.NullStore{}, nil
	}
	return postgres.NewPersister(context.Background(), config.DBURL)
}

func printSummary(record model.ComplianceRecord, reportPath string) {
	fmt.Printf("Address:           %s\n", record.Address)
	if record.BIN != "" {
		fmt.Printf("BIN:               %s\n", record.BIN)
	}
	if record.BBL != "" {
		fmt.Printf("BBL:               %s\n", record.BBL)
	}
	fmt.Printf("Overall score:     %.1f (%s)\n", record.OverallScore, record.RiskLevel)
	fmt.Printf("HPD violations:    %d open / %d total\n", record.HPDViolations.Active, record.HPDViolations.Total)
	fmt.Printf("DOB violations:    %d open / %d total\n", record.DOBViolations.Active, record.DOBViolations.Total)
	fmt.Printf("Elevator devices:  %d active / %d total\n", record.ElevatorDevices.Active, record.ElevatorDevices.Total)
	fmt.Printf("Boiler devices:    %d active / %d total\n", record.BoilerDevices.Active, record.BoilerDevices.Total)
	fmt.Printf("Data sources:      %s\n", record.DataSources)
	fmt.Printf("Report written to: %s\n", reportPath)
}
