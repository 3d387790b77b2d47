// Package kafka is the Kafka sink variant.
package kafka

import (
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// SinkType is the registry tag for Kafka sinks.
const SinkType sinkconf.SinkType = "kafka"

const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"

	MechanismPlain       = "PLAIN"
	MechanismScramSHA256 = "SCRAM-SHA-256"
	MechanismScramSHA512 = "SCRAM-SHA-512"

	defaultClientID = "steeze-sink-writer"
	maxTopicLen     = 249
)

// Options configure the producer.
type Options struct {
	Brokers  []string `json:"brokers" toml:"brokers" yaml:"brokers"` // host:port
	Topic    string   `json:"topic" toml:"topic" yaml:"topic"`
	ClientID string   `json:"clientId" toml:"clientId" yaml:"clientId"`
	Format   string   `json:"format" toml:"format" yaml:"format"` // ndjson | json
}

// Credentials are SASL settings; all empty means no SASL.
type Credentials struct {
	Mechanism string `json:"mechanism" toml:"mechanism" yaml:"mechanism"`
	Username  string `json:"username" toml:"username" yaml:"username"`
	Password  string `json:"password" toml:"password" yaml:"password"`
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

// Config is an editable Kafka sink configuration.
type Config struct {
	sinkconf.Base
	Options     Options
	Credentials Credentials
}

var _ sinkconf.Configuration = (*Config)(nil)

func defaults() Options {
	return Options{Brokers: []string{}, ClientID: defaultClientID, Format: FormatNDJSON}
}

// New returns a configuration named name with writer defaults filled in.
func New(name string) (*Config, error) {
	b, err := sinkconf.NewBase(name, SinkType)
	if err != nil {
		return nil, err
	}
	return &Config{Base: b, Options: defaults()}, nil
}

func (c *Config) Validate() sinkconf.Violations {
	var v sinkconf.Violations
	c.CheckName(&v)
	if len(c.Options.Brokers) == 0 {
		v.Add("options.brokers", "must contain at least one broker")
	}
	for i, b := range c.Options.Brokers {
		sinkconf.CheckHostPort(&v, fmt.Sprintf("options.brokers[%d]", i), b)
	}
	checkTopic(&v, "options.topic", c.Options.Topic)
	sinkconf.RequireText(&v, "options.clientId", c.Options.ClientID)
	sinkconf.CheckOneOf(&v, "options.format", c.Options.Format, FormatNDJSON, FormatJSON)

	cr := c.Credentials
	switch cr.Mechanism {
	case "":
		if cr.Username != "" || cr.Password != "" {
			v.Add("credentials.mechanism", "required when username or password is set")
		}
	case MechanismPlain, MechanismScramSHA256, MechanismScramSHA512:
		if cr.Username == "" {
			v.Addf("credentials.username", "required for %s", cr.Mechanism)
		}
		if cr.Password == "" {
			v.Addf("credentials.password", "required for %s", cr.Mechanism)
		}
	default:
		v.Addf("credentials.mechanism", "must be one of %s, %s, %s",
			MechanismPlain, MechanismScramSHA256, MechanismScramSHA512)
	}
	return v
}

// checkTopic applies the broker's topic naming rules.
func checkTopic(v *sinkconf.Violations, path, topic string) {
	switch {
	case topic == "":
		v.Add(path, "must not be empty")
	case topic == "." || topic == "..":
		v.Add(path, "must not be . or ..")
	case len(topic) > maxTopicLen:
		v.Addf(path, "must be at most %d characters", maxTopicLen)
	case strings.IndexFunc(topic, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-')
	}) >= 0:
		v.Add(path, "may only contain ASCII letters, digits, '.', '_' and '-'")
	}
}

func (c *Config) Export() (sinkconf.Record, error) {
	if err := sinkconf.Validated(SinkType, c.Validate()); err != nil {
		return sinkconf.Record{}, err
	}
	opts := c.Options
	opts.Brokers = sinkconf.CloneStrings(c.Options.Brokers)
	return sinkconf.Record{
		Name:        c.Name,
		SinkType:    SinkType,
		Options:     opts,
		Credentials: c.Credentials,
	}, nil
}

func (c *Config) Hydrate(options, credentials []byte) error {
	opts := defaults()
	if err := sinkconf.DecodeGroup(options, &opts); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	var creds Credentials
	if err := sinkconf.DecodeGroup(credentials, &creds); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if opts.Brokers == nil {
		opts.Brokers = []string{}
	}
	c.Options, c.Credentials = opts, creds
	return nil
}

func Descriptor() sinkconf.Descriptor {
	return sinkconf.Descriptor{
		Type:        SinkType,
		Title:       "Kafka",
		Description: "Produce events to a Kafka topic.",
		Fields: []sinkconf.FieldDescriptor{
			{Path: "options.brokers", Label: "Brokers", ValueType: "string[]", Required: true, Placeholder: "127.0.0.1:9092"},
			{Path: "options.topic", Label: "Topic", ValueType: "string", Required: true},
			{Path: "options.clientId", Label: "Client ID", ValueType: "string", Required: true},
			{Path: "options.format", Label: "Format", ValueType: "enum", Required: true, Options: []string{FormatNDJSON, FormatJSON}},
			{Path: "credentials.mechanism", Label: "SASL mechanism", ValueType: "enum", Options: []string{MechanismPlain, MechanismScramSHA256, MechanismScramSHA512}},
			{Path: "credentials.username", Label: "Username", ValueType: "string"},
			{Path: "credentials.password", Label: "Password", ValueType: "password", Sensitive: true},
		},
	}
}

// Register adds the Kafka variant to r.
func Register(r *sinkconf.Registry) error {
	return r.Register(Descriptor(), func(name string) (sinkconf.Configuration, error) {
		c, err := New(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
