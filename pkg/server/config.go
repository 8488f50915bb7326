package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server's host configuration, loaded from a YAML
// file with environment variable overrides:
//
//	listen_addr: "localhost:12800"
//	root: "/var/galleries"
//	watch: true
type Config struct {
	// ListenAddr is the host:port to bind.
	ListenAddr string `yaml:"listen_addr"`

	// Root is the directory whose subdirectories are galleries.
	Root string `yaml:"root"`

	// Watch invalidates cached metadata when a gallery's metadata file
	// changes on disk (e.g. after re-running make-gallery).
	Watch bool `yaml:"watch"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: "localhost:12800",
		Root:       ".",
	}
}

// LoadConfig reads the YAML config at path (if non-empty) over the
// defaults, then applies GALLERIZE_LISTEN_ADDR and GALLERIZE_ROOT
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(bs, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if v := os.Getenv("GALLERIZE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GALLERIZE_ROOT"); v != "" {
		cfg.Root = v
	}

	if cfg.Root == "" {
		return cfg, fmt.Errorf("root must not be empty")
	}
	return cfg, nil
}
