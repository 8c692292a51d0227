package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func (c *CLI) runBuild(ctx context.Context, envName string) error {
	if err := c.config.requireProject(); err != nil {
		return err
	}
	ec := c.config.EnvConfig(envName)
	image := c.config.image(ec)

	c.printf("Building image with Cloud Build: %s", image)
	err := c.runner.Run(ctx, "gcloud", "builds", "submit",
		"--tag", image,
		"--project", c.config.ProjectID,
		"--timeout=30m",
	)
	if err != nil {
		return err
	}
	c.printf("Image built: %s", image)
	return nil
}

func newBuildCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the container image with Cloud Build",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), envName)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}
