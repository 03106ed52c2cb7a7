package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment keys read before koanf takes over.
const (
	envPrefix  = "REGISTRAR_"
	envConfig  = "REGISTRAR_CONFIG"
	envDotFile = "REGISTRAR_ENV_FILE"
	dotEnvPath = ".env"
)

var metricsNamespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if REGISTRAR_CONFIG is set
//  3. env (prefix REGISTRAR_), including values from an optional .env file
//     (REGISTRAR_ENV_FILE overrides its path). Real env vars win over .env.
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, wrapKind(ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapKind(ErrLoadConfig, err)
		}
	}

	// REGISTRAR_WORKER_COUNT -> worker_count; underscores are kept to match tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapKind(ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapKind(ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return wrapKind(ErrInvalidConfig, errors.New("addr must not be empty"))
	case c.UpstreamTimeoutMS <= 0:
		return wrapKind(ErrInvalidConfig, errors.New("upstream_timeout_ms must be positive"))
	case c.UpstreamBaseURL != "" &&
		!strings.HasPrefix(c.UpstreamBaseURL, "http://") && !strings.HasPrefix(c.UpstreamBaseURL, "https://"):
		return wrapKind(ErrInvalidConfig, errors.New("upstream_base_url must be an http(s) URL"))
	case !metricsNamespacePattern.MatchString(c.MetricsNamespace):
		return wrapKind(ErrInvalidConfig, errors.New("metrics_namespace must be a valid Prometheus name"))
	}
	return nil
}

// loadDotEnv copies an optional .env file into the process environment
// without overriding variables that are already set.
func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	explicit := path != ""
	if !explicit {
		path = dotEnvPath
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
