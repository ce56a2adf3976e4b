// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TemporalHostPort  string
	TemporalNamespace string
	DBPath            string
	APIBaseURL        string
	AppKey            string
	MetricsAddr       string
	MasterKey         string
	SaltBase64        string
}

// HasEncryptionSecrets returns true when both the master key and salt are
// configured. The worker refuses to start without them; the operator CLI uses
// this to decide whether to generate a first-run salt.
func (c *Config) HasEncryptionSecrets() bool {
	return c.MasterKey != "" && c.SaltBase64 != ""
}

// Load reads configuration from a .env file (if present) and the environment.
// Encryption secrets (COUPONCLIP_MASTER_KEY, COUPONCLIP_SALT) are not
// validated here; callers that need them fail fast at startup.
// Optional variables with defaults: COUPONCLIP_TEMPORAL_HOSTPORT
// (localhost:7233), COUPONCLIP_TEMPORAL_NAMESPACE (default),
// COUPONCLIP_DB_PATH (couponclip.db), COUPONCLIP_API_BASE_URL,
// COUPONCLIP_APP_KEY (reasors), COUPONCLIP_METRICS_ADDR (0.0.0.0:7280).
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	return &Config{
		TemporalHostPort:  envOr("COUPONCLIP_TEMPORAL_HOSTPORT", "localhost:7233"),
		TemporalNamespace: envOr("COUPONCLIP_TEMPORAL_NAMESPACE", "default"),
		DBPath:            envOr("COUPONCLIP_DB_PATH", "couponclip.db"),
		APIBaseURL:        envOr("COUPONCLIP_API_BASE_URL", "https://api.freshop.ncrcloud.com"),
		AppKey:            envOr("COUPONCLIP_APP_KEY", "reasors"),
		MetricsAddr:       envOr("COUPONCLIP_METRICS_ADDR", "0.0.0.0:7280"),
		MasterKey:         os.Getenv("COUPONCLIP_MASTER_KEY"),
		SaltBase64:        os.Getenv("COUPONCLIP_SALT"),
	}, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
