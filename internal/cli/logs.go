package cli

import (
	"github.com/spf13/cobra"
)

func newLogsCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read Cloud Run service logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			ec := c.config.EnvConfig(envName)
			return c.runner.Run(cmd.Context(), "gcloud", "run", "services", "logs", "read", ec.Service,
				"--region", c.config.Region,
				"--project", c.config.ProjectID,
			)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}

func newStatusCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Cloud Run service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			ec := c.config.EnvConfig(envName)
			return c.runner.Run(cmd.Context(), "gcloud", "run", "services", "describe", ec.Service,
				"--region", c.config.Region,
				"--project", c.config.ProjectID,
			)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}
