package utils_test

import (
	"os"
	"testing"
	"time"

	"github.com/propplyai/propply-ai/pkg/utils"
)

func clearPropplyEnv() {
	for _, key := range []string{
		"NYC_API_KEY_ID", "NYC_API_KEY_SECRET", "NYC_APP_TOKEN",
		"DB_URL", "RUN_DEADLINE_SECONDS",
		"PROPPLY_NYC_GEOSEARCH_URL", "PROPPLY_AI_WEBHOOK_URL", "PROPPLY_HTTP_LISTEN_ADDR",
		"PROPPLY_SYNC_CRON_SCHEDULE", "PROPPLY_REPORT_OUTPUT_DIR",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestPopulateFromEnvAppliesDefaults(t *testing.T) {
	clearPropplyEnv()
	defer clearPropplyEnv()

	cfg := &utils.Config{}
	if err := cfg.PopulateFromEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RunDeadline() != 120*time.Second {
		t.Fatalf("expected default 120s deadline, got %v", cfg.RunDeadline())
	}
	if cfg.NYCGeosearchURL == "" {
		t.Fatal("expected a default geosearch URL")
	}
	if cfg.ReportOutputDir == "" {
		t.Fatal("expected a default report output dir")
	}
}

func TestPopulateFromEnvOverridesDeadline(t *testing.T) {
	clearPropplyEnv()
	defer clearPropplyEnv()
	_ = os.Setenv("RUN_DEADLINE_SECONDS", "45")

	cfg := &utils.Config{}
	if err := cfg.PopulateFromEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RunDeadline() != 45*time.Second {
		t.Fatalf("expected 45s deadline, got %v", cfg.RunDeadline())
	}
}

func TestPopulateFromEnvReadsBareCredentialKeys(t *testing.T) {
	clearPropplyEnv()
	defer clearPropplyEnv()
	_ = os.Setenv("NYC_APP_TOKEN", "tok-123")
	_ = os.Setenv("DB_URL", "postgres://example/db")

	cfg := &utils.Config{}
	if err := cfg.PopulateFromEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NYCAppToken != "tok-123" {
		t.Fatalf("expected bare NYC_APP_TOKEN to populate NYCAppToken, got %q", cfg.NYCAppToken)
	}
	if cfg.DBURL != "postgres://example/db" {
		t.Fatalf("expected bare DB_URL to populate DBURL, got %q", cfg.DBURL)
	}
}

func TestPopulateFromEnvRejectsBadCronSchedule(t *testing.T) {
	clearPropplyEnv()
	defer clearPropplyEnv()
	_ = os.Setenv("PROPPLY_SYNC_CRON_SCHEDULE", "not a cron schedule")

	cfg := &utils.Config{}
	if err := cfg.PopulateFromEnv(); err == nil {
		t.Fatal("expected an error for an invalid cron schedule")
	}
}
