package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/capsid/pkg/execute"
)

// Config tunes where runs write their output and which tool commands the
// stage table invokes.
type Config struct {
	// BaseDir is where output directories and packaged artifacts are
	// created. Empty means the current working directory.
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Annotation holds annotation stage settings.
	Annotation AnnotationConfig `yaml:"annotation" json:"annotation"`

	// Tools maps logical tool names to the command invoked for them.
	// Entries override the defaults; unlisted tools keep theirs.
	Tools map[string]string `yaml:"tools" json:"tools"`
}

// AnnotationConfig tunes the annotation stage and its maintenance actions.
type AnnotationConfig struct {
	// Threads is passed to the annotator via -t.
	Threads int `yaml:"threads" json:"threads"`

	// DatabaseDir overrides where the annotation databases live. Empty
	// means the databases directory next to the runtime bin dir.
	DatabaseDir string `yaml:"database_dir" json:"database_dir"`

	// ScriptDir overrides where repair actions look for installed tool
	// scripts. Empty means the runtime bin dir.
	ScriptDir string `yaml:"script_dir" json:"script_dir"`
}

// DefaultConfig returns the built-in settings: tools resolved from PATH
// under their upstream names, four annotation threads.
func DefaultConfig() Config {
	return Config{
		Annotation: AnnotationConfig{Threads: 4},
		Tools: map[string]string{
			"fastqc":      "fastqc",
			"trim_galore": "trim_galore",
			"unicycler":   "unicycler",
			"quast":       "quast.py",
			"pharokka":    "pharokka.py",
		},
	}
}

// Tool returns the configured command for a logical tool name, falling back
// to the default command, then to the name itself.
func (c Config) Tool(name string) string {
	if cmd, ok := c.Tools[name]; ok && cmd != "" {
		return cmd
	}
	if cmd, ok := DefaultConfig().Tools[name]; ok {
		return cmd
	}
	return name
}

// DatabaseDir resolves the annotation database directory. In the bundled
// layout bin/ and databases/ are siblings, so the default is derived from
// the runtime bin dir.
func (c Config) DatabaseDir() string {
	if c.Annotation.DatabaseDir != "" {
		return c.Annotation.DatabaseDir
	}
	bin := execute.RuntimeBinDir()
	if bin == "" {
		return "databases"
	}
	return filepath.Join(filepath.Dir(bin), "databases")
}

// LoadConfig reads a YAML or JSON config file over the defaults. A missing
// file yields the defaults unchanged so a bare deployment needs no config
// at all.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}
