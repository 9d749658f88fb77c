package config

// Default annotation field names, matching the most common SDF conventions
// emitted by dataset curation tools.
const (
	DefaultNameField         = "name"
	DefaultActivityField     = "activity"
	DefaultExperimentalField = "experimental"
)

// ApplyDefaults fills every unset field of cfg with its platform default.
// Explicitly-set zero values that are legal (e.g. cache.enabled=false) are
// handled by the loader before this runs.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.Type == "" {
		cfg.Input.Type = InputMolecule
	}
	if cfg.Input.NameField == "" {
		cfg.Input.NameField = DefaultNameField
	}
	if cfg.Input.ActivityField == "" {
		cfg.Input.ActivityField = DefaultActivityField
	}
	if cfg.Input.ExperimentalField == "" {
		cfg.Input.ExperimentalField = DefaultExperimentalField
	}

	if cfg.Standardize.Method == "" {
		cfg.Standardize.Method = StandardizeLargestFragment
	}

	if len(cfg.Descriptors.Methods) == 0 && cfg.Input.Type == InputMolecule {
		cfg.Descriptors.Methods = []string{"properties"}
	}
	if cfg.Descriptors.Settings == nil {
		cfg.Descriptors.Settings = map[string]string{}
	}

	if cfg.Worker.NumCPUs == 0 {
		cfg.Worker.NumCPUs = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// NewDefault returns a Config populated entirely with defaults, suitable for
// tests and for runs that configure nothing beyond the input file.
func NewDefault() *Config {
	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	ApplyDefaults(cfg)
	return cfg
}
