package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSecretsCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Move application settings between Secret Manager and .env files",
	}
	cmd.AddCommand(newSecretsDownloadCmd(c), newSecretsUploadCmd(c))
	return cmd
}

func newSecretsDownloadCmd(c *CLI) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the secret payload to a local .env file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			ec := c.config.EnvConfig(envName)
			outputFile := ".env." + envName

			c.printf("Downloading secrets to %s...", outputFile)
			payload, err := c.runner.Output(cmd.Context(), "gcloud", "secrets", "versions", "access", "latest",
				"--secret="+ec.SecretsName,
				"--project="+c.config.ProjectID,
			)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputFile, []byte(payload+"\n"), 0o600); err != nil {
				return err
			}
			c.printf("Secrets saved to %s", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	return cmd
}

func newSecretsUploadCmd(c *CLI) *cobra.Command {
	var envName, file string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a .env file as a new secret version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			ec := c.config.EnvConfig(envName)
			inputFile := file
			if inputFile == "" {
				inputFile = ".env." + envName
			}
			if _, err := os.Stat(inputFile); err != nil {
				return fmt.Errorf("secrets file %s: %w", inputFile, err)
			}

			c.printf("Uploading secrets from %s...", inputFile)
			err := c.runner.Run(cmd.Context(), "gcloud", "secrets", "versions", "add", ec.SecretsName,
				"--data-file="+inputFile,
				"--project="+c.config.ProjectID,
			)
			if err != nil {
				return err
			}
			c.printf("Secrets uploaded to %s", ec.SecretsName)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	cmd.Flags().StringVar(&file, "file", "", "secrets file to upload (default .env.<env>)")
	return cmd
}
