// Package elastic is the Elasticsearch sink variant.
package elastic

import (
	"fmt"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// SinkType is the registry tag for Elasticsearch sinks.
const SinkType sinkconf.SinkType = "elastic"

// Options are the connection settings. Node order is the client failover order.
type Options struct {
	Nodes []string `json:"nodes" toml:"nodes" yaml:"nodes"`
	Index string   `json:"index" toml:"index" yaml:"index"`
}

// Credentials may both be empty for clusters that allow anonymous access.
type Credentials struct {
	User     string `json:"user" toml:"user" yaml:"user"`
	Password string `json:"password" toml:"password" yaml:"password"`
}

// Redacted masks the password.
func (c Credentials) Redacted() any {
	c.Password = sinkconf.Mask(c.Password)
	return c
}

// Unredacted restores a masked password from the stored credentials.
func (c Credentials) Unredacted(prev any) any {
	if p, ok := prev.(Credentials); ok {
		c.Password = sinkconf.KeepMasked(c.Password, p.Password)
	}
	return c
}

// Config is an editable Elasticsearch sink configuration.
type Config struct {
	sinkconf.Base
	Options     Options
	Credentials Credentials
}

var _ sinkconf.Configuration = (*Config)(nil)

// New returns an empty configuration named name.
func New(name string) (*Config, error) {
	b, err := sinkconf.NewBase(name, SinkType)
	if err != nil {
		return nil, err
	}
	return &Config{Base: b, Options: Options{Nodes: []string{}}}, nil
}

// Validate checks every rule independently.
func (c *Config) Validate() sinkconf.Violations {
	var v sinkconf.Violations
	c.CheckName(&v)
	if len(c.Options.Nodes) == 0 {
		v.Add("options.nodes", "must contain at least one endpoint")
	}
	for i, n := range c.Options.Nodes {
		sinkconf.CheckEndpoint(&v, fmt.Sprintf("options.nodes[%d]", i), n, "http", "https")
	}
	sinkconf.CheckIndexName(&v, "options.index", c.Options.Index)
	sinkconf.CheckCredentialPair(&v,
		"credentials.user", c.Credentials.User,
		"credentials.password", c.Credentials.Password)
	return v
}

// Export validates and returns a detached record.
func (c *Config) Export() (sinkconf.Record, error) {
	if err := sinkconf.Validated(SinkType, c.Validate()); err != nil {
		return sinkconf.Record{}, err
	}
	return sinkconf.Record{
		Name:     c.Name,
		SinkType: SinkType,
		Options: Options{
			Nodes: sinkconf.CloneStrings(c.Options.Nodes),
			Index: c.Options.Index,
		},
		Credentials: c.Credentials,
	}, nil
}

// Hydrate loads both groups; on error the receiver is unchanged.
func (c *Config) Hydrate(options, credentials []byte) error {
	opts := Options{Nodes: []string{}}
	if err := sinkconf.DecodeGroup(options, &opts); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	var creds Credentials
	if err := sinkconf.DecodeGroup(credentials, &creds); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if opts.Nodes == nil {
		opts.Nodes = []string{}
	}
	c.Options, c.Credentials = opts, creds
	return nil
}

// Descriptor is the UI metadata for Elasticsearch sinks.
func Descriptor() sinkconf.Descriptor {
	return sinkconf.Descriptor{
		Type:        SinkType,
		Title:       "Elasticsearch",
		Description: "Index events into an Elasticsearch cluster.",
		Fields: []sinkconf.FieldDescriptor{
			{Path: "options.nodes", Label: "Nodes", ValueType: "string[]", Required: true, Placeholder: "https://es1:9200"},
			{Path: "options.index", Label: "Index", ValueType: "string", Required: true, Placeholder: "events"},
			{Path: "credentials.user", Label: "User", ValueType: "string"},
			{Path: "credentials.password", Label: "Password", ValueType: "password", Sensitive: true},
		},
	}
}

// Register adds the Elasticsearch variant to r.
func Register(r *sinkconf.Registry) error {
	return r.Register(Descriptor(), func(name string) (sinkconf.Configuration, error) {
		c, err := New(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
