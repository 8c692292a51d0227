package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	secretmanager "google.golang.org/api/secretmanager/v1"

	"github.com/avolkovs/runbase/internal/logging"
)

// accessSecretVersion is a seam for testing Secret Manager access.
var accessSecretVersion = func(ctx context.Context, name string) (string, error) {
	svc, err := secretmanager.NewService(ctx)
	if err != nil {
		return "", err
	}

	resp, err := svc.Projects.Secrets.Versions.Access(name).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// loadSecrets fetches the application settings secret and injects its
// dotenv-formatted payload into the environment. Variables that are already
// set keep their values. The secret source is selected by GCP_PROJECT_ID and
// SECRETS_NAME; when the project is unset the overlay is skipped entirely,
// and a fetch failure is tolerated with a warning so the service can still
// boot from plain environment variables.
func loadSecrets(ctx context.Context, logger logging.Logger) {
	project := os.Getenv("GCP_PROJECT_ID")
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project == "" {
		return
	}

	secretsName := os.Getenv("SECRETS_NAME")
	if secretsName == "" {
		secretsName = "application_settings"
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secretsName)

	payload, err := accessSecretVersion(ctx, name)
	if err != nil {
		logger.Warn(ctx, "could not load secrets from Secret Manager", "secret", name, "error", err.Error())
		return
	}

	values, err := godotenv.Unmarshal(payload)
	if err != nil {
		logger.Warn(ctx, "could not parse secret payload", "secret", name, "error", err.Error())
		return
	}

	for k, v := range values {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, v)
		}
	}
}
