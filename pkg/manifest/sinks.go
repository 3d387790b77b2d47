package manifest

import (
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// Sink is a seed entry. Options and credentials are decoded by the sink type
// registered under Type, so unknown keys are rejected at startup.
type Sink struct {
	Name        string         `toml:"name"`
	Type        string         `toml:"type"`
	Options     map[string]any `toml:"options"`
	Credentials map[string]any `toml:"credentials"`
}

// Record returns the seed in record form, ready for registry hydration.
func (s Sink) Record() sinkconf.Record {
	rec := sinkconf.Record{Name: s.Name, SinkType: sinkconf.SinkType(s.Type)}
	if s.Options != nil {
		rec.Options = s.Options
	}
	if s.Credentials != nil {
		rec.Credentials = s.Credentials
	}
	return rec
}

func (c *Config) validateSinks() error {
	seen := make(map[string]struct{}, len(c.Sinks))
	for i := range c.Sinks {
		s := &c.Sinks[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Name == "" {
			return fmt.Errorf("sink %d: name is required", i)
		}
		if s.Type == "" {
			return fmt.Errorf("sink %d (%s): type is required", i, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("sink %d: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
