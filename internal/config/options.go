package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options represents the top-level lumen.yaml project configuration.
type Options struct {
	// Entry is the source file holding the program's main function.
	Entry string `yaml:"entry,omitempty"`

	// CachePath is where compiled function descriptors are persisted
	// between runs. Empty disables the cache.
	CachePath string `yaml:"cache,omitempty"`

	// Inline disables forwarder inlining when set to false.
	// Defaults to true.
	Inline *bool `yaml:"inline,omitempty"`

	// MaxPasses caps the rounds of the ambiguity resolution loop per
	// function body. Zero leaves the loop bounded by progress alone.
	MaxPasses int `yaml:"max_passes,omitempty"`
}

// InlineEnabled reports whether forwarder inlining should run.
func (o *Options) InlineEnabled() bool {
	return o.Inline == nil || *o.Inline
}

// LoadOptions reads and parses a lumen.yaml file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses lumen.yaml content from bytes.
// The path argument is used only for error messages.
func ParseOptions(data []byte, path string) (*Options, error) {
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if opts.MaxPasses < 0 {
		return nil, fmt.Errorf("%s: max_passes must not be negative", path)
	}
	return &opts, nil
}

// FindOptions searches for lumen.yaml starting from dir and walking up
// to parent directories. Returns the path if found, or empty string and
// nil error if not found.
func FindOptions(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"lumen.yaml", "lumen.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
