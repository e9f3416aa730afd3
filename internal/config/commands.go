package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Command is one registered command template in commands.yaml.
type Command struct {
	Cmd         string   `yaml:"cmd"`
	Description string   `yaml:"description,omitempty"`
	TimeoutSecs int      `yaml:"timeout,omitempty"`
	Format      string   `yaml:"format,omitempty"`
	Capture     *bool    `yaml:"capture,omitempty"`
	CaptureEnv  []string `yaml:"capture_env,omitempty"`
}

// Captured reports whether runs of this command should be parsed and
// stored. Unset means yes.
func (c Command) Captured() bool {
	return c.Capture == nil || *c.Capture
}

// Commands maps registered names to their templates.
type Commands map[string]Command

// Names returns the registered names sorted.
func (cs Commands) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type commandsDoc struct {
	Commands Commands `yaml:"commands"`
}

// LoadCommands reads and validates commands.yaml. A missing file is an
// empty registry.
func LoadCommands(cfg *Config) (Commands, error) {
	data, err := os.ReadFile(cfg.commandsPath())
	if os.IsNotExist(err) {
		return Commands{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}

	if err := validate(data, "#Commands"); err != nil {
		return nil, fmt.Errorf("%s: %w", commandsFile, err)
	}
	var doc commandsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}
	if doc.Commands == nil {
		doc.Commands = Commands{}
	}
	return doc.Commands, nil
}

// SaveCommands writes the registry back to commands.yaml.
func SaveCommands(cfg *Config, cs Commands) error {
	data, err := yaml.Marshal(commandsDoc{Commands: cs})
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	if err := os.WriteFile(cfg.commandsPath(), data, 0o644); err != nil {
		return fmt.Errorf("write commands: %w", err)
	}
	return nil
}
