// Package utils contains various common utils separate by utility type.
package utils

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"
)

const (
	envVarPrefix = "propply"

	usageListFormat = `propply-ai is configured via environment vars only. The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// bareEnvConfig holds the handful of environment variables spec.md §6
// names as bare keys (no PROPPLY_ prefix): credentials and the two values
// an operator is most likely to set directly rather than through a .env
// file scoped to this process.
type bareEnvConfig struct {
	NYCAPIKeyID        string `envconfig:"nyc_api_key_id" desc:"Optional HTTP Basic key id for NYC Open Data"`
	NYCAPIKeySecret    string `envconfig:"nyc_api_key_secret" desc:"Optional HTTP Basic secret for NYC Open Data"`
	NYCAppToken        string `envconfig:"nyc_app_token" desc:"Optional app-token header for NYC Open Data"`
	DBURL              string `envconfig:"db_url" desc:"Connection string for the persistence layer; empty disables persistence"`
	RunDeadlineSeconds int    `envconfig:"run_deadline_seconds" default:"120" desc:"Overrides the default per-run deadline"`
}

// Config is the master configuration derived from environment variables.
// The first five fields are populated from bareEnvConfig instead of through
// this struct's own (prefixed) envconfig pass; ignored:"true" keeps
// envconfig.Process(envVarPrefix, ...) from clobbering them with a
// PROPPLY_-prefixed default.
type Config struct {
	NYCAPIKeyID        string `envconfig:"nyc_api_key_id" ignored:"true" desc:"Optional HTTP Basic key id for NYC Open Data"`
	NYCAPIKeySecret    string `envconfig:"nyc_api_key_secret" ignored:"true" desc:"Optional HTTP Basic secret for NYC Open Data"`
	NYCAppToken        string `envconfig:"nyc_app_token" ignored:"true" desc:"Optional app-token header for NYC Open Data"`
	DBURL              string `envconfig:"db_url" ignored:"true" desc:"Connection string for the persistence layer; empty disables persistence"`
	RunDeadlineSeconds int    `envconfig:"run_deadline_seconds" ignored:"true" desc:"Overrides the default per-run deadline"`

	NYCGeosearchURL  string `envconfig:"nyc_geosearch_url" default:"https://geosearch.planninglabs.nyc/v2/search" desc:"Planning Labs geosearch endpoint"`
	AIWebhookURL     string `envconfig:"ai_webhook_url" desc:"URL the AI webhook dispatcher POSTs ComplianceRecord JSON to"`
	HTTPListenAddr   string `envconfig:"http_listen_addr" default:":8080" desc:"Listen address for the web backend boundary"`
	SyncCronSchedule string `envconfig:"sync_cron_schedule" default:"0 */6 * * *" desc:"Cron schedule for the scheduled re-sync entrypoint"`
	ReportOutputDir  string `envconfig:"report_output_dir" default:"./reports" desc:"Directory the CLI and cron job write JSON reports to"`
}

// OutputUsage prints the usage string to os.Stdout. The bare-key vars
// (credentials, DB_URL, RUN_DEADLINE_SECONDS) are listed separately since
// they're ignored:"true" on Config and so excluded from the prefixed pass.
func (c *Config) OutputUsage() {
	tabs := tabwriter.NewWriter(os.Stdout, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef("", &bareEnvConfig{}, tabs, usageListFormat) // nolint: gosec
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat)      // nolint: gosec
	_ = tabs.Flush()                                                  // nolint: gosec
}

// PopulateFromEnv loads a .env file if present, processes the environment
// vars into Config, and validates the values that have cross-field
// constraints envconfig tags alone cannot express.
//
// Credentials, DB_URL, and RUN_DEADLINE_SECONDS are read as bare keys (no
// PROPPLY_ prefix): they're the values spec.md §6 documents as the
// recognized environment contract, and an operator setting them directly
// shouldn't have to know this process's internal prefix. Everything else
// still goes through the PROPPLY_ prefix, the teacher's usual envconfig
// idiom.
func (c *Config) PopulateFromEnv() error {
	_ = godotenv.Load() // .env is optional, never required in production

	var bare bareEnvConfig
	if err := envconfig.Process("", &bare); err != nil {
		return err
	}
	c.NYCAPIKeyID = bare.NYCAPIKeyID
	c.NYCAPIKeySecret = bare.NYCAPIKeySecret
	c.NYCAppToken = bare.NYCAppToken
	c.DBURL = bare.DBURL
	c.RunDeadlineSeconds = bare.RunDeadlineSeconds

	if err := envconfig.Process(envVarPrefix, c); err != nil {
		return err
	}
	return c.validateSyncCronSchedule()
}

func (c *Config) validateSyncCronSchedule() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.SyncCronSchedule); err != nil {
		return fmt.Errorf("invalid sync_cron_schedule %q: %v", c.SyncCronSchedule, err)
	}
	return nil
}

// RunDeadline returns the configured per-run deadline as a time.Duration.
func (c *Config) RunDeadline() time.Duration {
	if c.RunDeadlineSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.RunDeadlineSeconds) * time.Second
}
