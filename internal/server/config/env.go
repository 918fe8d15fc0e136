package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays configuration from environment variables onto the
// provided Config. Only variables that are actually set override earlier
// layers; the env tags on Config name the full surface (LDAP_*, JWT_SECRET,
// GRPC_ADDRESS, DATABASE_DSN, TOKEN_VALIDITY).
func parseEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
