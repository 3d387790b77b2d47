package core

import (
	"fmt"
	"os"

	"github.com/joeydtaylor/steeze-sinks/pkg/codec"
	manifest "github.com/joeydtaylor/steeze-sinks/pkg/manifest"
)

// LoadConfig reads and validates a TOML service manifest. Unknown keys are
// rejected.
func LoadConfig(path string) (manifest.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return manifest.Config{}, err
	}
	var cfg manifest.Config
	if err := codec.TOML.Unmarshal(b, &cfg); err != nil {
		return manifest.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return manifest.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
