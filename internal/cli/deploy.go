package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) runDeploy(ctx context.Context, envName string) error {
	if err := c.runBuild(ctx, envName); err != nil {
		return err
	}

	ec := c.config.EnvConfig(envName)
	image := c.config.image(ec)

	c.printf("Deploying to Cloud Run: %s", ec.Service)
	err := c.runner.Run(ctx, "gcloud", "run", "deploy", ec.Service,
		"--image", image,
		"--platform", "managed",
		"--region", c.config.Region,
		"--project", c.config.ProjectID,
		"--add-cloudsql-instances", c.config.sqlConnectionName(),
		"--set-env-vars", fmt.Sprintf("SECRETS_NAME=%s,GCP_PROJECT_ID=%s", ec.SecretsName, c.config.ProjectID),
		"--min-instances", fmt.Sprint(ec.MinInstances),
		"--max-instances", fmt.Sprint(ec.MaxInstances),
		"--allow-unauthenticated",
	)
	if err != nil {
		return err
	}
	c.printf("Deployed: %s", ec.Service)
	return nil
}

func newDeployCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build the image and deploy it to Cloud Run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeploy(cmd.Context(), envName)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}
