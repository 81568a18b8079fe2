package kalc

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists in a directory or its parents.
var ErrConfigNotFound = errors.New("config file not found")

// DefaultScriptPattern matches script files when a config lists no patterns.
const DefaultScriptPattern = "*.kls"

// Config represents the .kalc.yaml configuration file.
type Config struct {
	// Glob patterns of files compiled in script mode, matched against the
	// base name and the path relative to the config directory.
	Scripts []string `yaml:"scripts,omitempty"`

	// Extra class-library YAML files, relative to the config file.
	Library []string `yaml:"library,omitempty"`

	// Log level for the binaries (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// dir is the directory containing the loaded config file.
	dir string
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".kalc.yaml", ".kalc.yml", "kalc.yaml", "kalc.yml"}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Scripts:  []string{DefaultScriptPattern},
		LogLevel: "info",
	}
}

// LoadConfig finds and loads the nearest .kalc.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	if len(cfg.Scripts) == 0 {
		cfg.Scripts = []string{DefaultScriptPattern}
	}

	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

// IsScript reports whether the file at path compiles in script mode.
func (c *Config) IsScript(path string) bool {
	base := filepath.Base(path)

	rel := path
	if c.dir != "" {
		if r, err := filepath.Rel(c.dir, path); err == nil {
			rel = filepath.ToSlash(r)
		}
	}

	for _, pattern := range c.Scripts {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}

		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}

	return false
}

// LibraryPaths returns the library files resolved against the config directory.
func (c *Config) LibraryPaths() []string {
	paths := make([]string, 0, len(c.Library))

	for _, p := range c.Library {
		if !filepath.IsAbs(p) && c.dir != "" {
			p = filepath.Join(c.dir, p)
		}

		paths = append(paths, p)
	}

	return paths
}
