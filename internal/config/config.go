package config

import "path/filepath"

// Config represents the complete sigmap configuration.
// It can be loaded from .sigmap/config.yml with environment variable overrides.
type Config struct {
	Scan  ScanConfig  `yaml:"scan" mapstructure:"scan"`
	Store StoreConfig `yaml:"store" mapstructure:"store"`
}

// ScanConfig controls discovery and extraction.
type ScanConfig struct {
	Exclude         []string `yaml:"exclude" mapstructure:"exclude"`                   // extra exclusions on top of the builtin set
	RouterFactories []string `yaml:"router_factories" mapstructure:"router_factories"` // call names that declare procedure routers
	RenderDepth     int      `yaml:"render_depth" mapstructure:"render_depth"`         // type rendering depth budget
}

// StoreConfig controls where extracted signatures persist.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // database path, relative to the workspace root
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Exclude:         []string{},
			RouterFactories: []string{"router"},
			RenderDepth:     2,
		},
		Store: StoreConfig{
			Path: filepath.Join(".sigmap", "sigmap.db"),
		},
	}
}

// StorePath resolves the database location against the workspace root.
func (c *Config) StorePath(rootDir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(rootDir, c.Store.Path)
}
