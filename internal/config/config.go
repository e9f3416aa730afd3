// Package config owns the .lq workspace: discovery, the config and
// commands files, and capture-time context collection.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

const (
	// DirName is the workspace directory discovered by walking up.
	DirName = ".lq"

	configFile   = "config.yaml"
	commandsFile = "commands.yaml"
	dbFile       = "logq.db"

	defaultRetentionDays = 90
)

// Config is the per-project configuration stored in .lq/config.yaml.
type Config struct {
	// CaptureEnv lists environment variable names recorded with each run.
	CaptureEnv []string `yaml:"capture_env,omitempty"`

	// RetentionDays bounds partition age for prune's default window.
	RetentionDays int `yaml:"retention_days,omitempty"`

	Project struct {
		Namespace string `yaml:"namespace,omitempty"`
		Name      string `yaml:"name,omitempty"`
	} `yaml:"project,omitempty"`

	// Dir is the absolute .lq directory path; set on load, never stored.
	Dir string `yaml:"-"`
}

// NotInitializedError reports that no .lq workspace exists at or above the
// starting directory.
type NotInitializedError struct {
	Start string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("no %s workspace found at or above %s (run 'logq init')", DirName, e.Start)
}

// DBPath returns the location of the workspace database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, dbFile)
}

func (c *Config) configPath() string   { return filepath.Join(c.Dir, configFile) }
func (c *Config) commandsPath() string { return filepath.Join(c.Dir, commandsFile) }

// Find walks up from start looking for a .lq directory and loads its
// config. An empty start means the current directory.
func Find(start string) (*Config, error) {
	if start == "" {
		var err error
		if start, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return load(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, &NotInitializedError{Start: start}
		}
		dir = parent
	}
}

// Init creates a fresh .lq workspace under dir and returns its config.
// Re-initializing an existing workspace is an error.
func Init(dir string) (*Config, error) {
	lqDir := filepath.Join(dir, DirName)
	if _, err := os.Stat(lqDir); err == nil {
		return nil, fmt.Errorf("%s already exists", lqDir)
	}
	if err := os.MkdirAll(lqDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	cfg := &Config{RetentionDays: defaultRetentionDays, Dir: lqDir}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	if err := SaveCommands(cfg, Commands{}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load reads and validates config.yaml from an existing workspace
// directory. A missing file yields defaults; a malformed one is an error.
func load(lqDir string) (*Config, error) {
	cfg := &Config{RetentionDays: defaultRetentionDays, Dir: lqDir}

	data, err := os.ReadFile(filepath.Join(lqDir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := validate(data, "#Config"); err != nil {
		return nil, fmt.Errorf("%s: %w", configFile, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	cfg.Dir = lqDir
	return cfg, nil
}

// Save writes config.yaml.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath(), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// validate unifies YAML data with the named schema definition and reports
// the first violation with its position.
func validate(data []byte, definition string) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath(definition))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(normalizeYAML(doc)))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// normalizeYAML rewrites yaml.v3's map[string]any trees so cue's Encode
// accepts them (yaml decodes nested maps as map[string]any already, but
// list elements may need the same treatment recursively).
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
