package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Export and import the Cloud SQL database",
	}
	cmd.AddCommand(newDBExportCmd(c), newDBImportCmd(c), newDBDownloadCmd(c))
	return cmd
}

func (c *CLI) runDBExport(ctx context.Context, database string) error {
	if err := c.config.requireProject(); err != nil {
		return err
	}
	db := database
	if db == "" {
		db = c.config.ProjectID
	}
	bucket := c.config.ProjectID

	c.printf("Exporting database %s to gs://%s/%s.gz...", db, bucket, db)
	return c.runner.Run(ctx, "gcloud", "sql", "export", "sql", c.config.CloudSQLInstance,
		fmt.Sprintf("gs://%s/%s.gz", bucket, db),
		"--database="+db,
		"--project="+c.config.CloudSQLProject,
	)
}

func newDBExportCmd(c *CLI) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to the GCS bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDBExport(cmd.Context(), database)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "database name (default: project id)")
	return cmd
}

func newDBImportCmd(c *CLI) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "import <gs://bucket/dump.gz>",
		Short: "Import a database dump from GCS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			db := database
			if db == "" {
				db = c.config.ProjectID
			}

			c.printf("Importing %s to database %s...", args[0], db)
			return c.runner.Run(cmd.Context(), "gcloud", "sql", "import", "sql", c.config.CloudSQLInstance,
				args[0],
				"--database="+db,
				"--project="+c.config.CloudSQLProject,
			)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "database name (default: project id)")
	return cmd
}

func newDBDownloadCmd(c *CLI) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Export the database and download the dump locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.runDBExport(cmd.Context(), database); err != nil {
				return err
			}

			db := database
			if db == "" {
				db = c.config.ProjectID
			}
			bucket := c.config.ProjectID

			c.printf("Downloading gs://%s/%s.gz...", bucket, db)
			if err := c.runner.Run(cmd.Context(), "gsutil", "cp", fmt.Sprintf("gs://%s/%s.gz", bucket, db), "."); err != nil {
				return err
			}
			if err := c.runner.Run(cmd.Context(), "gunzip", "-f", db+".gz"); err != nil {
				return err
			}
			c.printf("Database saved to %s", db)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "database name (default: project id)")
	return cmd
}
