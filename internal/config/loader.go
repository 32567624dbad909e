package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// IsLambda reports whether the process runs inside AWS Lambda. Lambda
// injects configuration through the function environment, so .env files are
// skipped there.
func IsLambda() bool {
	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		return true
	}
	_, exists := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	return exists
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() error {
	if IsLambda() {
		return nil
	}

	// Load base .env file (optional)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	// Load environment-specific file (optional)
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env != "" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	// Load .env.local for local overrides (highest precedence, optional)
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}
