// Package config loads the compiler's YAML configuration file. Every
// section is optional; missing keys keep their defaults and unknown keys
// are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete compiler configuration
type Config struct {
	Optimization Optimization `yaml:"optimization"`
	Output       Output       `yaml:"output"`
	Preprocessor Preprocessor `yaml:"preprocessor"`
	Analyzer     Analyzer     `yaml:"analyzer"`
	Verbose      bool         `yaml:"verbose"`
}

// Optimization selects the transform passes. A pass runs when the level
// enables it and its switch is on.
type Optimization struct {
	Level               Level `yaml:"level"`
	ConstantFolding     bool  `yaml:"constant_folding"`
	DeadCodeElimination bool  `yaml:"dead_code_elimination"`
	FunctionInlining    bool  `yaml:"function_inlining"`
}

// Output controls code generation
type Output struct {
	Format string `yaml:"format"` // only "asm"
	Strict bool   `yaml:"strict"` // fail on constructs the generator skips
}

// Preprocessor configures the external cc -E step
type Preprocessor struct {
	Enabled      bool              `yaml:"enabled"`
	Command      string            `yaml:"command,omitempty"`
	IncludePaths []string          `yaml:"include_paths,omitempty"`
	Defines      map[string]string `yaml:"defines,omitempty"`
	Undefines    []string          `yaml:"undefines,omitempty"`
	KeepComments bool              `yaml:"keep_comments"`
}

// Analyzer configures semantic analysis
type Analyzer struct {
	Enabled     bool `yaml:"enabled"`
	RequireMain bool `yaml:"require_main"`
}

// Default returns the configuration used without a config file
func Default() *Config {
	return &Config{
		Optimization: Optimization{
			Level:               LevelNone,
			ConstantFolding:     true,
			DeadCodeElimination: true,
			FunctionInlining:    true,
		},
		Output:       Output{Format: "asm"},
		Preprocessor: Preprocessor{Enabled: true},
		Analyzer:     Analyzer{Enabled: true, RequireMain: true},
	}
}

// Load reads and parses the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoder cannot
func (c *Config) Validate() error {
	if c.Optimization.Level < LevelNone || c.Optimization.Level > LevelFull {
		return fmt.Errorf("invalid config: optimization level %d out of range", int(c.Optimization.Level))
	}
	if c.Output.Format != "asm" {
		return fmt.Errorf("invalid config: unsupported output format %q", c.Output.Format)
	}
	return nil
}

// Marshal renders c as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Level is an optimization level. In YAML it is written either as a
// number or as one of none, basic and full.
type Level int

const (
	LevelNone  Level = iota // no passes
	LevelBasic              // constant folding
	LevelFull               // inlining, constant folding and dead code elimination
)

var levelNames = []string{"none", "basic", "full"}

func (l Level) String() string {
	if l >= LevelNone && l <= LevelFull {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts a level name or number
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(LevelNone) || n > int(LevelFull) {
		return 0, fmt.Errorf("unknown optimization level %q", s)
	}
	return Level(n), nil
}

func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: optimization level must be a scalar", node.Line)
	}
	level, err := ParseLevel(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = level
	return nil
}

func (l Level) MarshalYAML() (any, error) {
	return l.String(), nil
}
