// Package cli implements the runctl deployment tool: thin wrappers
// around gcloud and gsutil for building, deploying and operating the
// service on Cloud Run.
package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries the GCP coordinates runctl operates on. Values come
// from the environment, with a local .env file loaded first.
type Config struct {
	ProjectID        string `env:"GCP_PROJECT_ID"`
	Region           string `env:"GCP_REGION"`
	CloudSQLInstance string `env:"CLOUD_SQL_INSTANCE"`
	CloudSQLProject  string `env:"CLOUD_SQL_PROJECT"`
	ServiceName      string `env:"SERVICE_NAME"`
	BillingAccount   string `env:"GCP_BILLING_ACCOUNT"`
	OrganizationID   string `env:"GCP_ORGANIZATION_ID"`
}

func (c *Config) LoadDefaults() {
	c.Region = "europe-west2"
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine, runctl can run on plain env vars.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}

	if cfg.CloudSQLProject == "" {
		cfg.CloudSQLProject = cfg.ProjectID
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = cfg.ProjectID
	}

	return cfg, nil
}

// requireProject fails early when commands need a target project and
// none is configured.
func (c *Config) requireProject() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is not set")
	}
	return nil
}

// EnvConfig is the per-environment deployment shape.
type EnvConfig struct {
	Service      string
	SecretsName  string
	MinInstances int
	MaxInstances int
}

// EnvConfig returns the deployment parameters for the named
// environment. Anything other than "staging" maps to production.
func (c *Config) EnvConfig(envName string) EnvConfig {
	if envName == "staging" {
		return EnvConfig{
			Service:      c.ServiceName + "-staging",
			SecretsName:  "application_settings_staging",
			MinInstances: 0,
			MaxInstances: 2,
		}
	}
	return EnvConfig{
		Service:      c.ServiceName,
		SecretsName:  "application_settings",
		MinInstances: 0,
		MaxInstances: 10,
	}
}

func (c *Config) image(ec EnvConfig) string {
	return fmt.Sprintf("gcr.io/%s/%s", c.ProjectID, ec.Service)
}

func (c *Config) sqlConnectionName() string {
	return fmt.Sprintf("%s:%s:%s", c.CloudSQLProject, c.Region, c.CloudSQLInstance)
}
