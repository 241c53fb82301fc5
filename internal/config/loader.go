package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ppy/osu-performance/internal/procerr"
)

// envPrefix is the namespace for environment-variable overrides, e.g.
// PP_MYSQL_DB_HOST, PP_SCORE_UPDATE_INTERVAL_MS.
const envPrefix = "PP_"

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Precedence (low to high):
//  1. defaults (New())
//  2. file (YAML) if PP_CONFIG names one
//  3. env vars prefixed PP_
func Load(ctx context.Context) (*Config, error) {
	_ = ctx // reserved for future use (e.g. remote config sources)

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, procerr.Wrapf(procerr.ErrConfigInvalid, "load config file %s", path)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, procerr.Wrap(procerr.ErrConfigInvalid, "load env config")
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, procerr.Wrap(procerr.ErrConfigInvalid, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MySQLHost == "" {
		return procerr.Wrap(procerr.ErrConfigInvalid, "mysql_db_host must not be empty")
	}
	if cfg.MySQLDatabase == "" {
		return procerr.Wrap(procerr.ErrConfigInvalid, "mysql_db_database must not be empty")
	}
	if cfg.WorkerCount <= 0 {
		return procerr.Wrap(procerr.ErrConfigInvalid, "worker_count must be positive")
	}
	return nil
}
