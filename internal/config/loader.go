package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all qsarflow settings.
const envPrefix = "QSARFLOW"

// configKeys enumerates every recognized setting.  Viper only consults the
// environment for keys it knows about, so each key is registered up front;
// the zero defaults here are refined by ApplyDefaults after unmarshalling.
var configKeys = []string{
	"input.type",
	"input.name_field",
	"input.activity_field",
	"input.experimental_field",
	"standardize.method",
	"standardize.delete_original",
	"ionize.method",
	"ionize.ph",
	"convert3d.methods",
	"descriptors.methods",
	"descriptors.settings",
	"worker.num_cpus",
	"worker.keep_intermediates",
	"cache.path",
	"log.level",
	"log.format",
	"log.quiet",
}

// newViper builds a pre-configured Viper instance: YAML file type, QSARFLOW_
// env prefix, automatic env binding, and a key replacer mapping "." → "_" so
// that nested keys like "worker.num_cpus" resolve to QSARFLOW_WORKER_NUM_CPUS.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Legal zero values that ApplyDefaults must not clobber.
	v.SetDefault("cache.enabled", true)
	for _, k := range configKeys {
		v.SetDefault(k, nil)
	}
	return v
}

// Load reads the YAML file at configPath, merges QSARFLOW_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from QSARFLOW_* environment variables
// and defaults, with no config file required.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	// Environment overrides arrive as strings; decode them into the typed
	// fields they target.
	weaklyTyped := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}
