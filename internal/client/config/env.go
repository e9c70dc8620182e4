package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays cfg with values from the environment (see the env tags
// on Config). Variables that are unset leave the current value in place.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
