// Package config loads the simplexd service configuration from environment
// variables, with an optional YAML file override pointed at by
// SIMPLEXD_CONFIG.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development" yaml:"environment"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080" yaml:"port"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s" yaml:"read_timeout"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s" yaml:"write_timeout"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s" yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s" yaml:"shutdown_timeout"`
	} `yaml:"http"`
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`
		Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr" yaml:"output"`
	} `yaml:"logging"`
	// Optimizer holds the service-wide defaults applied to jobs that do not
	// override them per request.
	Optimizer struct {
		MaxIterations int     `env:"OPT_MAX_ITERATIONS" envDefault:"200" yaml:"max_iterations"`
		AreaEpsilon   float64 `env:"OPT_AREA_EPSILON" envDefault:"1e-6" yaml:"area_epsilon"`
		ValueEpsilon  float64 `env:"OPT_VALUE_EPSILON" envDefault:"1e-6" yaml:"value_epsilon"`
		Alpha         float64 `env:"OPT_ALPHA" envDefault:"1.0" yaml:"alpha"`
		Beta          float64 `env:"OPT_BETA" envDefault:"0.5" yaml:"beta"`
		Gamma         float64 `env:"OPT_GAMMA" envDefault:"2.0" yaml:"gamma"`
		Dimensions    int     `env:"OPT_DIMENSIONS" envDefault:"2" yaml:"dimensions"`
		SampleMin     float64 `env:"OPT_SAMPLE_MIN" envDefault:"-10" yaml:"sample_min"`
		SampleMax     float64 `env:"OPT_SAMPLE_MAX" envDefault:"0" yaml:"sample_max"`
	} `yaml:"optimizer"`
}

// Load parses the environment and then applies the YAML file named by
// SIMPLEXD_CONFIG, if any, on top of it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if path := os.Getenv("SIMPLEXD_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays a YAML config file onto cfg. Absent keys keep the
// values already parsed from the environment.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	opt := cfg.Optimizer
	if opt.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", opt.MaxIterations)
	}
	if opt.Alpha <= 0 || opt.Beta <= 0 || opt.Gamma <= 0 {
		return fmt.Errorf("optimizer coefficients must be strictly positive: alpha=%v beta=%v gamma=%v",
			opt.Alpha, opt.Beta, opt.Gamma)
	}
	if opt.Dimensions < 1 {
		return fmt.Errorf("dimensions must be at least 1, got %d", opt.Dimensions)
	}
	if opt.SampleMin >= opt.SampleMax {
		return fmt.Errorf("sampling region [%v, %v) is empty", opt.SampleMin, opt.SampleMax)
	}

	return nil
}
