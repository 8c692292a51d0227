package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations via Cloud Build",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			ec := c.config.EnvConfig(envName)

			c.printf("Running migrations for %s...", envName)
			return c.runner.Run(cmd.Context(), "gcloud", "builds", "submit",
				"--config", "cloudmigrate.yaml",
				"--project", c.config.ProjectID,
				"--substitutions", fmt.Sprintf("_SECRETS_NAME=%s", ec.SecretsName),
				"--timeout=30m",
			)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}
