package manifest

import (
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-sinks/pkg/codec"
)

const defaultTopic = "sinks.config"

// Backend describes the channel exported records are pushed through.
// Relay targets, TLS and OAuth come from ELECTRICIAN_* / OAUTH_* env vars.
type Backend struct {
	Topic   string `toml:"topic"`
	Trusted bool   `toml:"trusted"` // false: credentials are masked before publishing
}

func (b *Backend) normalize() {
	b.Topic = strings.TrimSpace(b.Topic)
	if b.Topic == "" {
		b.Topic = defaultTopic
	}
}

// Store selects catalog persistence. An empty path keeps the catalog in memory.
type Store struct {
	Path string `toml:"path"` // .toml | .yaml | .yml | .json
}

func (s *Store) normalize() error {
	s.Path = strings.TrimSpace(s.Path)
	if s.Path == "" {
		return nil
	}
	if _, err := codec.ForPath(s.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

// UI serves static admin assets under /ui/ when Dir is set.
type UI struct {
	Dir string `toml:"dir"`
}

func (u *UI) normalize() { u.Dir = strings.TrimSpace(u.Dir) }
