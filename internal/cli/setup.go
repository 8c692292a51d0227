package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avolkovs/runbase/internal/common"
)

var requiredAPIs = []string{
	"run.googleapis.com",
	"sql-component.googleapis.com",
	"sqladmin.googleapis.com",
	"compute.googleapis.com",
	"cloudbuild.googleapis.com",
	"secretmanager.googleapis.com",
	"storage.googleapis.com",
}

const (
	dbPasswordLength = 30
	secretKeyLength  = 50
)

const bucketCORS = `[{"origin": ["*"], "responseHeader": ["Content-Type"], "method": ["GET", "HEAD"], "maxAgeSeconds": 3600}]`

type serviceAccounts struct {
	cloudRun   string
	cloudBuild string
}

func (c *CLI) setupCreateProject(ctx context.Context, project string) {
	c.logger.Info(ctx, "Creating/selecting project...")
	args := []string{"projects", "create", project}
	if c.config.OrganizationID != "" {
		args = append(args, "--organization", c.config.OrganizationID)
	}
	c.tryRun(ctx, "gcloud", args...)
}

func (c *CLI) setupLinkBilling(ctx context.Context, project, billingAccount string) {
	c.logger.Info(ctx, "Linking billing account...")
	c.tryRun(ctx, "gcloud", "beta", "billing", "projects", "link", project,
		"--billing-account", billingAccount)
}

func (c *CLI) setupEnableAPIs(ctx context.Context, project string) error {
	c.logger.Info(ctx, "Enabling Cloud APIs (this may take a few minutes)...")
	args := append([]string{"services", "--project", project, "enable"}, requiredAPIs...)
	return c.runner.Run(ctx, "gcloud", args...)
}

func (c *CLI) setupServiceAccounts(ctx context.Context, project string) (serviceAccounts, error) {
	num, err := c.runner.Output(ctx, "gcloud", "projects", "describe", project,
		"--format", "value(projectNumber)")
	if err != nil {
		return serviceAccounts{}, fmt.Errorf("project number lookup: %w", err)
	}
	num = strings.TrimSpace(num)

	sa := serviceAccounts{
		cloudRun:   num + "-compute@developer.gserviceaccount.com",
		cloudBuild: num + "@cloudbuild.gserviceaccount.com",
	}
	c.logger.Info(ctx, "Cloud Run SA: "+sa.cloudRun)
	c.logger.Info(ctx, "Cloud Build SA: "+sa.cloudBuild)
	return sa, nil
}

func (c *CLI) setupIAM(ctx context.Context, project string, sa serviceAccounts, sqlProject string) error {
	c.logger.Info(ctx, "Setting up IAM permissions...")

	bindings := []struct {
		project, member, role string
	}{
		{project, sa.cloudBuild, "roles/iam.serviceAccountUser"},
		{project, sa.cloudBuild, "roles/run.admin"},
	}
	if sqlProject != project {
		c.logger.Info(ctx, "Setting up Cloud SQL permissions on "+sqlProject+"...")
		bindings = append(bindings,
			struct{ project, member, role string }{sqlProject, sa.cloudRun, "roles/cloudsql.client"},
			struct{ project, member, role string }{sqlProject, sa.cloudBuild, "roles/cloudsql.client"},
		)
	}

	for _, b := range bindings {
		err := c.runner.Run(ctx, "gcloud", "projects", "add-iam-policy-binding", b.project,
			"--member", "serviceAccount:"+b.member,
			"--role", b.role,
			"--quiet")
		if err != nil {
			return err
		}
	}
	return nil
}

// setupCreateDatabase creates the database and a matching user on the
// shared Cloud SQL instance, returning the generated user password.
func (c *CLI) setupCreateDatabase(ctx context.Context, project, sqlInstance, sqlProject string) (string, error) {
	c.logger.Info(ctx, "Creating database on "+sqlInstance+"...")
	c.tryRun(ctx, "gcloud", "sql", "databases", "create", project,
		"--instance", sqlInstance,
		"--project", sqlProject)

	c.logger.Info(ctx, "Creating database user...")
	password, err := common.MakeRandAlphanumeric(dbPasswordLength)
	if err != nil {
		return "", err
	}

	err = c.runner.Run(ctx, "gcloud", "sql", "users", "create", project,
		"--instance", sqlInstance,
		"--project", sqlProject,
		"--password", password)
	if err != nil {
		c.logger.Warn(ctx, "User already exists, resetting password")
		password, err = common.MakeRandAlphanumeric(dbPasswordLength)
		if err != nil {
			return "", err
		}
		c.tryRun(ctx, "gcloud", "sql", "users", "set-password", project,
			"--instance", sqlInstance,
			"--project", sqlProject,
			"--password", password)
	}

	return password, nil
}

func (c *CLI) setupCreateBucket(ctx context.Context, project, bucket, region string) error {
	c.logger.Info(ctx, "Creating storage bucket: "+bucket+"...")
	c.tryRun(ctx, "gsutil", "mb", "-l", region, "-p", project, "gs://"+bucket)

	c.logger.Info(ctx, "Setting CORS configuration...")
	f, err := os.CreateTemp("", "cors-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(bucketCORS); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.tryRun(ctx, "gsutil", "cors", "set", f.Name(), "gs://"+bucket)
	return nil
}

func (c *CLI) setupCreateSecrets(ctx context.Context, project, secretsName, bucket, dbPassword, sqlProject, region, sqlInstance string, sa serviceAccounts) error {
	c.logger.Info(ctx, "Creating secrets in Secret Manager...")

	secretKey, err := common.MakeRandAlphanumeric(secretKeyLength)
	if err != nil {
		return err
	}

	databaseURL := fmt.Sprintf("postgres://%s:%s@//cloudsql/%s:%s:%s/%s",
		project, dbPassword, sqlProject, region, sqlInstance, project)

	payload := fmt.Sprintf(`DATABASE_URL="%s"
MEDIA_BACKEND="s3"
MEDIA_BUCKET="%s"
SECRET_KEY="%s"
DEBUG="False"
ALLOWED_HOSTS=".run.app"
CORS_ALLOWED_ORIGINS=""
`, databaseURL, bucket, secretKey)

	f, err := os.CreateTemp("", "secrets-*.env")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	err = c.runner.Run(ctx, "gcloud", "secrets", "create", secretsName,
		"--data-file="+f.Name(),
		"--project", project)
	if err != nil {
		// Secret exists, add a new version instead.
		err = c.runner.Run(ctx, "gcloud", "secrets", "versions", "add", secretsName,
			"--data-file="+f.Name(),
			"--project", project)
		if err != nil {
			return err
		}
	}

	c.logger.Info(ctx, "Granting secret access...")
	for _, member := range []string{sa.cloudRun, sa.cloudBuild} {
		err := c.runner.Run(ctx, "gcloud", "secrets", "add-iam-policy-binding", secretsName,
			"--member", "serviceAccount:"+member,
			"--role", "roles/secretmanager.secretAccessor",
			"--project", project,
			"--quiet")
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) runSetup(ctx context.Context, project, billing string, staging bool, region, sqlInstance, sqlProject string) error {
	billingAccount := billing
	if billingAccount == "" {
		billingAccount = c.config.BillingAccount
	}
	if billingAccount == "" {
		return fmt.Errorf("billing account is required: pass --billing or set GCP_BILLING_ACCOUNT")
	}

	if region == "" {
		region = c.config.Region
	}
	if sqlInstance == "" {
		sqlInstance = c.config.CloudSQLInstance
	}
	if sqlProject == "" {
		sqlProject = c.config.CloudSQLProject
	}
	if sqlProject == "" {
		sqlProject = project
	}

	secretsName := "application_settings"
	if staging {
		secretsName = "application_settings_staging"
	}
	bucket := project

	c.logger.Info(ctx, "Setting up GCP project: "+project)
	c.logger.Info(ctx, "Region: "+region)
	c.logger.Info(ctx, fmt.Sprintf("Staging: %v", staging))

	c.setupCreateProject(ctx, project)
	c.setupLinkBilling(ctx, project, billingAccount)

	if err := c.setupEnableAPIs(ctx, project); err != nil {
		return err
	}

	sa, err := c.setupServiceAccounts(ctx, project)
	if err != nil {
		return err
	}

	if err := c.setupIAM(ctx, project, sa, sqlProject); err != nil {
		return err
	}

	dbPassword, err := c.setupCreateDatabase(ctx, project, sqlInstance, sqlProject)
	if err != nil {
		return err
	}

	if err := c.setupCreateBucket(ctx, project, bucket, region); err != nil {
		return err
	}

	if err := c.setupCreateSecrets(ctx, project, secretsName, bucket, dbPassword, sqlProject, region, sqlInstance, sa); err != nil {
		return err
	}

	c.printf("")
	c.printf("==========================================")
	c.printf("GCP Project Setup Complete!")
	c.printf("==========================================")
	c.printf("")
	c.printf("Project ID:     %s", project)
	c.printf("Region:         %s", region)
	c.printf("Database:       %s on %s", project, sqlInstance)
	c.printf("Storage Bucket: gs://%s", bucket)
	c.printf("Secrets:        %s", secretsName)
	c.printf("")
	c.printf("Next steps:")
	c.printf("  1. Update your .env file:")
	c.printf("     GCP_PROJECT_ID=%s", project)
	c.printf("     GCP_REGION=%s", region)
	envFlag := ""
	if staging {
		envFlag = " --env=staging"
	}
	c.printf("  2. Deploy: runctl deploy%s", envFlag)
	c.printf("  3. Run migrations: runctl migrate%s", envFlag)

	return nil
}

func newSetupCmd(c *CLI) *cobra.Command {
	var (
		project, billing    string
		staging             bool
		region, sqlInstance string
		sqlProject          string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision a GCP project for this service",
		Long: `Creates everything a fresh deployment needs: the GCP project,
billing link, required APIs, IAM bindings, a database and user on the
shared Cloud SQL instance, a media bucket with CORS, and the Secret
Manager payload with generated credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" {
				return fmt.Errorf("--project is required")
			}
			return c.runSetup(cmd.Context(), project, billing, staging, region, sqlInstance, sqlProject)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "GCP project id to create or reuse")
	cmd.Flags().StringVar(&billing, "billing", "", "billing account id")
	cmd.Flags().BoolVar(&staging, "staging", false, "provision the staging environment")
	cmd.Flags().StringVar(&region, "region", "", "GCP region (default from GCP_REGION)")
	cmd.Flags().StringVar(&sqlInstance, "sql-instance", "", "Cloud SQL instance name")
	cmd.Flags().StringVar(&sqlProject, "sql-project", "", "project containing the Cloud SQL instance")

	cmd.AddCommand(
		newSetupAPIsCmd(c),
		newSetupIAMCmd(c),
		newSetupBucketCmd(c),
		newSetupDatabaseCmd(c),
	)

	return cmd
}

func newSetupAPIsCmd(c *CLI) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "apis",
		Short: "Enable required GCP APIs on an existing project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.projectOrDefault(project)
			if err != nil {
				return err
			}
			return c.setupEnableAPIs(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "GCP project id (default from GCP_PROJECT_ID)")
	return cmd
}

func newSetupIAMCmd(c *CLI) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "iam",
		Short: "Set up IAM permissions on an existing project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.projectOrDefault(project)
			if err != nil {
				return err
			}
			sa, err := c.setupServiceAccounts(cmd.Context(), p)
			if err != nil {
				return err
			}
			return c.setupIAM(cmd.Context(), p, sa, c.config.CloudSQLProject)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "GCP project id (default from GCP_PROJECT_ID)")
	return cmd
}

func newSetupBucketCmd(c *CLI) *cobra.Command {
	var project, bucket string

	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Create the media bucket on an existing project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.projectOrDefault(project)
			if err != nil {
				return err
			}
			b := bucket
			if b == "" {
				b = p
			}
			return c.setupCreateBucket(cmd.Context(), p, b, c.config.Region)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "GCP project id (default from GCP_PROJECT_ID)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (default: project id)")
	return cmd
}

func newSetupDatabaseCmd(c *CLI) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "database",
		Short: "Create the database on the shared Cloud SQL instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.projectOrDefault(project)
			if err != nil {
				return err
			}
			password, err := c.setupCreateDatabase(cmd.Context(), p, c.config.CloudSQLInstance, c.config.CloudSQLProject)
			if err != nil {
				return err
			}
			c.printf("")
			c.printf("Database password: %s", password)
			c.printf("Save this password - you'll need it for your secrets!")
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "GCP project id (default from GCP_PROJECT_ID)")
	return cmd
}

func (c *CLI) projectOrDefault(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if err := c.config.requireProject(); err != nil {
		return "", err
	}
	return c.config.ProjectID, nil
}
