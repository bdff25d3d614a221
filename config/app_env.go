package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/akeren/crpt-gateway/internal/log"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/akeren/crpt-gateway/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"

	// EnvFilesKey lists dotenv files to load, comma separated. Defaults to ".env".
	EnvFilesKey = "ENV_FILE"
)

var migrationFriendlyEnvs = []string{"", "dev", "development", "local", "test", "testing"}

// InitializeEnvFile loads dotenv files without overriding variables already set in the process,
// so deployment-provided values always win. SKIP_DOTENV=true turns loading off.
func InitializeEnvFile(logger *log.Logger) {
	if skip, _ := utils.EnvBool("SKIP_DOTENV", false); skip {
		logger.Debug("Skipping dotenv load (SKIP_DOTENV=true)")
		return
	}

	files := utils.EnvList(EnvFilesKey)
	explicit := files != nil
	if !explicit {
		files = []string{".env"}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		switch {
		case err == nil:
			logger.Info("Environment loaded from dotenv file", "file", file)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			logger.Debug("No .env file found; using the process environment")
		default:
			logger.Warn("Failed to load dotenv file", "file", file, "error", err.Error())
		}
	}
}

// GetValueFromEnvironmentVariable distinguishes an unset variable from one set to "".
func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

// ValidateAutoMigrateAllowed keeps schema changes on startup out of shared environments; there the
// migrate CLI command is the supported path.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(migrationFriendlyEnvs, env) {
		return nil
	}
	return apperrors.NewConfigurationError(
		fmt.Sprintf("--auto-migrate is not allowed when %s=%q; run `crpt migrate` instead", AppEnvKey, env), nil)
}
