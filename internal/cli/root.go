package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avolkovs/runbase/internal/logging"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// CLI bundles the shared dependencies of every runctl command.
type CLI struct {
	config *Config
	runner Runner
	logger logging.Logger
	out    io.Writer
}

func New(cfg *Config, runner Runner, logger logging.Logger, out io.Writer) *CLI {
	return &CLI{config: cfg, runner: runner, logger: logger, out: out}
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// tryRun executes a best-effort step: failures are logged and setup
// continues, matching how provisioning handles already-existing
// resources.
func (c *CLI) tryRun(ctx context.Context, name string, args ...string) {
	if err := c.runner.Run(ctx, name, args...); err != nil {
		c.logger.Warn(ctx, "step failed, continuing", "command", name, "error", err.Error())
	}
}

// NewRootCmd assembles the runctl command tree.
func NewRootCmd(c *CLI) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "runctl",
		Short: "Build, deploy and operate the service on Google Cloud Run",
		Long: `runctl wraps the gcloud and gsutil invocations needed to run this
service on Cloud Run: image builds, deploys, migrations, secrets,
database and media transfers, and one-time project setup.

Configuration comes from the environment (or a .env file):
  GCP_PROJECT_ID, GCP_REGION, CLOUD_SQL_INSTANCE, CLOUD_SQL_PROJECT,
  SERVICE_NAME, GCP_BILLING_ACCOUNT, GCP_ORGANIZATION_ID`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newBuildCmd(c),
		newDeployCmd(c),
		newMigrateCmd(c),
		newLogsCmd(c),
		newStatusCmd(c),
		newCreateSuperuserCmd(c),
		newSecretsCmd(c),
		newDBCmd(c),
		newMediaCmd(c),
		newSetupCmd(c),
	)

	return rootCmd
}

// Execute is the entry point used by the runctl binary.
func Execute() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	c := New(cfg, NewExecRunner(), logging.NewConsoleLogger(), os.Stdout)

	rootCmd := NewRootCmd(c)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	return rootCmd.Execute()
}
