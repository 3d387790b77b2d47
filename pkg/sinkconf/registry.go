package sinkconf

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
)

// Registry maps sink types to variant constructors. The zero value is not
// usable; build one with NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	order []SinkType
	types map[SinkType]registration
}

type registration struct {
	desc Descriptor
	ctor Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[SinkType]registration)}
}

// Register adds a variant. Types are listed in registration order.
func (r *Registry) Register(desc Descriptor, ctor Constructor) error {
	if strings.TrimSpace(string(desc.Type)) == "" || ctor == nil {
		return fmt.Errorf("%w: sink type and constructor required", ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[desc.Type]; dup {
		return fmt.Errorf("sink type %q already registered", desc.Type)
	}
	r.types[desc.Type] = registration{desc: desc, ctor: ctor}
	r.order = append(r.order, desc.Type)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(desc Descriptor, ctor Constructor) {
	if err := r.Register(desc, ctor); err != nil {
		panic(err)
	}
}

// Describe returns the display metadata for t.
func (r *Registry) Describe(t SinkType) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[t]
	return reg.desc, ok
}

// Create returns a new, empty variant of type t.
func (r *Registry) Create(t SinkType, name string) (Configuration, error) {
	r.mu.RLock()
	reg, ok := r.types[t]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSinkType, t)
	}
	cfg, err := reg.ctor(name)
	if err != nil {
		return nil, err
	}
	if cfg.Type() != t {
		return nil, fmt.Errorf("sink type %q constructor built %q", t, cfg.Type())
	}
	return cfg, nil
}

// SinkTypes yields the registered types in registration order. Each range
// over the returned sequence starts from the beginning.
func (r *Registry) SinkTypes() iter.Seq[SinkType] {
	return func(yield func(SinkType) bool) {
		for _, t := range r.snapshot() {
			if !yield(t) {
				return
			}
		}
	}
}

// Descriptors yields display metadata in registration order.
func (r *Registry) Descriptors() iter.Seq[Descriptor] {
	return func(yield func(Descriptor) bool) {
		for _, t := range r.snapshot() {
			d, ok := r.Describe(t)
			if !ok {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

func (r *Registry) snapshot() []SinkType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SinkType(nil), r.order...)
}

// Hydrate rebuilds a variant from a Record, e.g. one loaded from storage.
// The result is not validated; call Validate or Export on it.
func (r *Registry) Hydrate(rec Record) (Configuration, error) {
	opts, err := encodeGroup("options", rec.Options)
	if err != nil {
		return nil, err
	}
	creds, err := encodeGroup("credentials", rec.Credentials)
	if err != nil {
		return nil, err
	}
	return r.build(rec.SinkType, rec.Name, opts, creds)
}

// Decode rebuilds a variant from the JSON encoding of a Record.
func (r *Registry) Decode(data []byte) (Configuration, error) {
	var raw rawRecord
	if err := DecodeGroup(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return r.build(raw.SinkType, raw.Name, raw.Options, raw.Credentials)
}

func (r *Registry) build(t SinkType, name string, opts, creds []byte) (Configuration, error) {
	cfg, err := r.Create(t, name)
	if err != nil {
		return nil, err
	}
	if err := cfg.Hydrate(opts, creds); err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s sink %q: %v", ErrInvalidArgument, t, name, err)
	}
	return cfg, nil
}
