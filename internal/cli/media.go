package cli

import (
	"github.com/spf13/cobra"
)

func newMediaCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Sync media files with the GCS bucket",
	}
	cmd.AddCommand(newMediaDownloadCmd(c), newMediaUploadCmd(c))
	return cmd
}

func (c *CLI) mediaBucket(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return c.config.ProjectID
}

func newMediaDownloadCmd(c *CLI) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download media files from the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			b := c.mediaBucket(bucket)
			c.printf("Downloading media from gs://%s/media...", b)
			return c.runner.Run(cmd.Context(), "gsutil", "-m", "cp", "-r", "gs://"+b+"/media", ".")
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (default: project id)")
	return cmd
}

func newMediaUploadCmd(c *CLI) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload local media files to the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.config.requireProject(); err != nil {
				return err
			}
			b := c.mediaBucket(bucket)
			c.printf("Uploading media to gs://%s/media...", b)
			if err := c.runner.Run(cmd.Context(), "gsutil", "-m", "cp", "-r", "media", "gs://"+b+"/"); err != nil {
				return err
			}
			return c.runner.Run(cmd.Context(), "gsutil", "-m", "acl", "set", "-R", "-a", "public-read", "gs://"+b+"/media")
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (default: project id)")
	return cmd
}
