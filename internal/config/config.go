// Package config defines all configuration structures for qsarflow.  No I/O
// or parsing logic lives here — only plain data types and validation.
//
// Every key the ingestion pipeline recognises is enumerated below with its
// type and legal value set; validation happens once at load time so that the
// pipeline stages never probe for the presence of settings at run time.
package config

import "fmt"

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// Input type selectors.
const (
	InputMolecule = "molecule" // SDF structure input
	InputData     = "data"     // pre-computed numeric matrix (TSV)
)

// InputConfig describes the input file and the annotation fields read from it.
type InputConfig struct {
	// Type selects the pipeline branch: "molecule" or "data".
	Type string `mapstructure:"type"`

	// NameField is the SDF data field holding the molecule identifier.
	// When a record lacks the field, the title line and finally the
	// zero-based file position are used.
	NameField string `mapstructure:"name_field"`

	// ActivityField is the SDF data field holding the experimental activity
	// value.  Non-numeric values are recorded as missing, not as errors.
	ActivityField string `mapstructure:"activity_field"`

	// ExperimentalField is the SDF data field holding the experimental
	// annotation (assay type, units, free text).
	ExperimentalField string `mapstructure:"experimental_field"`
}

// Standardization method names.
const (
	StandardizeNone            = "none"
	StandardizeLargestFragment = "largest-fragment"
)

// StandardizeConfig controls the chemical standardization stage.
type StandardizeConfig struct {
	// Method is the normalization procedure: "largest-fragment" strips salts
	// and counter-ions by keeping the largest connected fragment; "none" (or
	// empty) writes structures through unchanged.  Internal identifiers are
	// assigned in either case.
	Method string `mapstructure:"method"`

	// DeleteOriginal removes the input file after the standardized copy has
	// been fully written.  Irreversible; off by default.
	DeleteOriginal bool `mapstructure:"delete_original"`
}

// Ionization method names.
const IonizeFixedPH = "fixed-ph"

// IonizeConfig controls the optional ionization stage.  An empty Method
// disables the stage entirely (strict pass-through).
type IonizeConfig struct {
	Method string  `mapstructure:"method"`
	PH     float64 `mapstructure:"ph"`
}

// 3D conversion method names.
const Convert3DEmbed = "embed"

// Convert3DConfig controls the optional 3D conversion stage.  An empty
// Methods set disables the stage.
type Convert3DConfig struct {
	Methods []string `mapstructure:"methods"`
}

// DescriptorConfig controls the descriptor-generation stage.
type DescriptorConfig struct {
	// Methods is the ordered set of enabled descriptor methods.  Built-ins:
	// "properties", "topological", "morgan"; additional names resolve against
	// generators registered through the descriptor package.
	Methods []string `mapstructure:"methods"`

	// Settings holds descriptor sub-parameters as flat "method.key" → value
	// strings (e.g. "morgan.bits" → "128").  The set participates in the
	// configuration stamp in deterministic key order.
	Settings map[string]string `mapstructure:"settings"`
}

// WorkerConfig controls parallel execution.
type WorkerConfig struct {
	// NumCPUs is the worker count.  1 runs the workflow synchronously on the
	// whole file; >1 splits the input into that many chunks.
	NumCPUs int `mapstructure:"num_cpus"`

	// KeepIntermediates leaves per-chunk and per-stage temporary files on
	// disk after the run, for debugging.
	KeepIntermediates bool `mapstructure:"keep_intermediates"`
}

// CacheConfig controls the stamped result cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite database file holding result snapshots.  Empty
	// defaults to "<input dir>/qsarflow_cache.db" at run time.
	Path string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"

	// Quiet redirects diagnostics to the fixed error-log file instead of the
	// console.
	Quiet bool `mapstructure:"quiet"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for a pipeline run.
type Config struct {
	Input       InputConfig       `mapstructure:"input"`
	Standardize StandardizeConfig `mapstructure:"standardize"`
	Ionize      IonizeConfig      `mapstructure:"ionize"`
	Convert3D   Convert3DConfig   `mapstructure:"convert3d"`
	Descriptors DescriptorConfig  `mapstructure:"descriptors"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Log         LogConfig         `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to run the pipeline.
func (c *Config) Validate() error {
	switch c.Input.Type {
	case InputMolecule, InputData:
	default:
		return fmt.Errorf("config: input.type %q is invalid; expected molecule|data", c.Input.Type)
	}

	switch c.Standardize.Method {
	case "", StandardizeNone, StandardizeLargestFragment:
	default:
		return fmt.Errorf("config: standardize.method %q is invalid; expected none|largest-fragment", c.Standardize.Method)
	}

	if c.Ionize.Method != "" && c.Ionize.Method != IonizeFixedPH {
		return fmt.Errorf("config: ionize.method %q is invalid; expected fixed-ph or unset", c.Ionize.Method)
	}
	if c.Ionize.Method == IonizeFixedPH && (c.Ionize.PH < 0 || c.Ionize.PH > 14) {
		return fmt.Errorf("config: ionize.ph %.2f is out of range [0, 14]", c.Ionize.PH)
	}

	if c.Input.Type == InputMolecule && len(c.Descriptors.Methods) == 0 {
		return fmt.Errorf("config: descriptors.methods must name at least one method for molecule input")
	}

	if c.Worker.NumCPUs < 1 {
		return fmt.Errorf("config: worker.num_cpus must be ≥ 1, got %d", c.Worker.NumCPUs)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
