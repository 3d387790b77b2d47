// Package builtin assembles a registry with every sink type shipped here.
package builtin

import (
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/elastic"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/kafka"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/s3"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/splunk"
)

// Registrations lists the built-in variants in selector order.
var Registrations = []func(*sinkconf.Registry) error{
	elastic.Register,
	kafka.Register,
	s3.Register,
	splunk.Register,
}

// NewRegistry returns a registry holding all built-in sink types.
func NewRegistry() (*sinkconf.Registry, error) {
	r := sinkconf.NewRegistry()
	for _, reg := range Registrations {
		if err := reg(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
