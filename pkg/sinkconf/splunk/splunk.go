// Package splunk is the Splunk HTTP Event Collector sink variant.
package splunk

import (
	"fmt"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// SinkType is the registry tag for Splunk HEC sinks.
const SinkType sinkconf.SinkType = "splunk"

// Options locate the collector.
type Options struct {
	Endpoint           string `json:"endpoint" toml:"endpoint" yaml:"endpoint"`
	Index              string `json:"index" toml:"index" yaml:"index"`
	SourceType         string `json:"sourceType" toml:"sourceType" yaml:"sourceType"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify" toml:"insecureSkipVerify" yaml:"insecureSkipVerify"`
}

// Credentials hold the HEC token. HEC has no anonymous mode.
type Credentials struct {
	Token string `json:"token" toml:"token" yaml:"token"`
}

// Redacted masks the token.
func (c Credentials) Redacted() any {
	c.Token = sinkconf.Mask(c.Token)
	return c
}

// Unredacted restores a masked token from the stored credentials.
func (c Credentials) Unredacted(prev any) any {
	if p, ok := prev.(Credentials); ok {
		c.Token = sinkconf.KeepMasked(c.Token, p.Token)
	}
	return c
}

// Config is an editable Splunk HEC sink configuration.
type Config struct {
	sinkconf.Base
	Options     Options
	Credentials Credentials
}

var _ sinkconf.Configuration = (*Config)(nil)

func New(name string) (*Config, error) {
	b, err := sinkconf.NewBase(name, SinkType)
	if err != nil {
		return nil, err
	}
	return &Config{Base: b}, nil
}

func (c *Config) Validate() sinkconf.Violations {
	var v sinkconf.Violations
	c.CheckName(&v)
	sinkconf.CheckEndpoint(&v, "options.endpoint", c.Options.Endpoint, "http", "https")
	if c.Options.Index != "" {
		sinkconf.CheckIndexName(&v, "options.index", c.Options.Index)
	}
	sinkconf.RequireText(&v, "credentials.token", c.Credentials.Token)
	return v
}

func (c *Config) Export() (sinkconf.Record, error) {
	if err := sinkconf.Validated(SinkType, c.Validate()); err != nil {
		return sinkconf.Record{}, err
	}
	return sinkconf.Record{
		Name:        c.Name,
		SinkType:    SinkType,
		Options:     c.Options,
		Credentials: c.Credentials,
	}, nil
}

func (c *Config) Hydrate(options, credentials []byte) error {
	var opts Options
	if err := sinkconf.DecodeGroup(options, &opts); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	var creds Credentials
	if err := sinkconf.DecodeGroup(credentials, &creds); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	c.Options, c.Credentials = opts, creds
	return nil
}

func Descriptor() sinkconf.Descriptor {
	return sinkconf.Descriptor{
		Type:        SinkType,
		Title:       "Splunk HEC",
		Description: "Send events to a Splunk HTTP Event Collector.",
		Fields: []sinkconf.FieldDescriptor{
			{Path: "options.endpoint", Label: "Collector URL", ValueType: "string", Required: true, Placeholder: "https://splunk:8088"},
			{Path: "options.index", Label: "Index", ValueType: "string"},
			{Path: "options.sourceType", Label: "Source type", ValueType: "string"},
			{Path: "options.insecureSkipVerify", Label: "Skip TLS verification", ValueType: "boolean"},
			{Path: "credentials.token", Label: "HEC token", ValueType: "password", Required: true, Sensitive: true},
		},
	}
}

func Register(r *sinkconf.Registry) error {
	return r.Register(Descriptor(), func(name string) (sinkconf.Configuration, error) {
		c, err := New(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
