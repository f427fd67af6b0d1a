// Package config centralizes environment parsing and fatal-exit handling
// for the bridge commands. All settings live under the VTT_BRIDGE_ prefix.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from its `env` struct tags. Commands layer flag
// overrides on top of the parsed values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
