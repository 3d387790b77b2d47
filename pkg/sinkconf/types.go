package sinkconf

import (
	"fmt"
	"strings"
)

// SinkType tags a sink variant ("elastic", "kafka", ...).
type SinkType string

func (t SinkType) String() string { return string(t) }

// Base carries the identity shared by every variant.
type Base struct {
	Name string

	sinkType SinkType
}

// NewBase validates constructor input for a variant.
func NewBase(name string, t SinkType) (Base, error) {
	if strings.TrimSpace(name) == "" {
		return Base{}, fmt.Errorf("%w: sink name is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(string(t)) == "" {
		return Base{}, fmt.Errorf("%w: sink type is required", ErrInvalidArgument)
	}
	return Base{Name: name, sinkType: t}, nil
}

// Type reports the sink type fixed at construction.
func (b *Base) Type() SinkType { return b.sinkType }

// Identity exposes the embedded Base to code that only holds a Configuration.
func (b *Base) Identity() *Base { return b }

// CheckName appends the name rule shared by all variants.
func (b *Base) CheckName(v *Violations) {
	if strings.TrimSpace(b.Name) == "" {
		v.Add("name", "must not be empty")
	}
}

// Configuration is the contract every sink variant implements.
type Configuration interface {
	Identity() *Base
	Type() SinkType

	// Validate reports every rule violation in a stable order and never
	// mutates the receiver. An empty result means the configuration is valid.
	Validate() Violations

	// Export validates and returns a detached Record, or a *ValidationError
	// carrying the same violations Validate reports.
	Export() (Record, error)

	// Hydrate replaces the option and credential groups from their JSON
	// encodings. Unknown fields are rejected.
	Hydrate(options, credentials []byte) error
}

// Constructor builds an empty variant named name.
type Constructor func(name string) (Configuration, error)
