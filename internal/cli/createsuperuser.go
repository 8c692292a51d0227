package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const superuserBuildTemplate = `steps:
  - name: 'gcr.io/google-appengine/exec-wrapper'
    args:
      - '-i'
      - '%s'
      - '-s'
      - '%s'
      - '-e'
      - 'SECRETS_NAME=%s'
      - '-e'
      - 'SUPERUSER_EMAIL=%s'
      - '-e'
      - 'SUPERUSER_PASSWORD=%s'
      - '--'
      - '/app/server'
      - 'createsuperuser'
timeout: '600s'
`

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newCreateSuperuserCmd(c *CLI) *cobra.Command {
	var envName, email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an admin account via a one-off Cloud Build job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				var err error
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			ec := c.config.EnvConfig(envName)

			c.printf("Creating superuser %s for %s...", email, envName)

			content := fmt.Sprintf(superuserBuildTemplate,
				c.config.image(ec), c.config.sqlConnectionName(), ec.SecretsName, email, password)

			f, err := os.CreateTemp("", "cloudbuild-*.yaml")
			if err != nil {
				return err
			}
			defer os.Remove(f.Name())

			if _, err := f.WriteString(content); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			err = c.runner.Run(cmd.Context(), "gcloud", "builds", "submit",
				"--config", f.Name(),
				"--project", c.config.ProjectID,
				"--no-source",
				"--timeout=10m",
			)
			if err != nil {
				return err
			}
			c.printf("Superuser %s created successfully!", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "target environment (production or staging)")
	cmd.Flags().StringVar(&email, "email", "", "superuser email address")
	cmd.Flags().StringVar(&password, "password", "", "superuser password (prompted when omitted)")
	return cmd
}
