package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/koustreak/sharebox/internal/errs"
)

const envPrefix = "SHAREBOX_"

// applyEnv overlays SHAREBOX_* variables on c, e.g. SHAREBOX_DATABASE_HOST.
// A nil environ reads the process environment. A variable that is set but
// cannot be parsed is an error.
func (c *Config) applyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix, Environment: environ}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid environment override", err)
	}
	return nil
}
