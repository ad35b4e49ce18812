package config

import "github.com/caarlos0/env/v11"

// EnvPrefix namespaces every environment variable read by the server.
const EnvPrefix = "ACCOUNTS_"

// parseEnv overlays ACCOUNTS_* variables. Unset variables keep the current
// value.
func parseEnv(config *Config) error {
	return env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix})
}
