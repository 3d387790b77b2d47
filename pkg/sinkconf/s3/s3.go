// Package s3 is the S3 (and S3-compatible) object storage sink variant.
package s3

import (
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7/pkg/s3utils"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// SinkType is the registry tag for S3 sinks.
const SinkType sinkconf.SinkType = "s3"

const (
	FormatParquet = "parquet"

	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"

	defaultRegion = "us-east-1"
	defaultPrefix = "events/{yyyy}/{MM}/{dd}/{HH}/"
)

// Options describe where and how objects are written.
type Options struct {
	Bucket         string `json:"bucket" toml:"bucket" yaml:"bucket"`
	Region         string `json:"region" toml:"region" yaml:"region"`
	PrefixTemplate string `json:"prefixTemplate" toml:"prefixTemplate" yaml:"prefixTemplate"`
	EndpointURL    string `json:"endpointUrl" toml:"endpointUrl" yaml:"endpointUrl"` // empty = AWS
	UsePathStyle   bool   `json:"usePathStyle" toml:"usePathStyle" yaml:"usePathStyle"`
	Format         string `json:"format" toml:"format" yaml:"format"`
	Compression    string `json:"compression" toml:"compression" yaml:"compression"`
}

// Credentials are static keys; both empty means ambient (role/instance) credentials.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId" toml:"accessKeyId" yaml:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey" toml:"secretAccessKey" yaml:"secretAccessKey"`
}

// Redacted masks the secret key.
func (c Credentials) Redacted() any {
	c.SecretAccessKey = sinkconf.Mask(c.SecretAccessKey)
	return c
}

// Unredacted restores a masked secret key from the stored credentials.
func (c Credentials) Unredacted(prev any) any {
	if p, ok := prev.(Credentials); ok {
		c.SecretAccessKey = sinkconf.KeepMasked(c.SecretAccessKey, p.SecretAccessKey)
	}
	return c
}

// Config is an editable S3 sink configuration.
type Config struct {
	sinkconf.Base
	Options     Options
	Credentials Credentials
}

var _ sinkconf.Configuration = (*Config)(nil)

func defaults() Options {
	return Options{
		Region:         defaultRegion,
		PrefixTemplate: defaultPrefix,
		Format:         FormatParquet,
		Compression:    CompressionZstd,
	}
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
	if err := s3utils.CheckValidBucketNameStrict(c.Options.Bucket); err != nil {
		v.Add("options.bucket", strings.ToLower(err.Error()))
	}
	sinkconf.RequireText(&v, "options.region", c.Options.Region)
	if sinkconf.RequireText(&v, "options.prefixTemplate", c.Options.PrefixTemplate) &&
		strings.HasPrefix(c.Options.PrefixTemplate, "/") {
		v.Add("options.prefixTemplate", "must not start with /")
	}
	if c.Options.EndpointURL != "" {
		sinkconf.CheckEndpoint(&v, "options.endpointUrl", c.Options.EndpointURL, "http", "https")
	}
	sinkconf.CheckOneOf(&v, "options.format", c.Options.Format, FormatParquet)
	sinkconf.CheckOneOf(&v, "options.compression", c.Options.Compression,
		CompressionZstd, CompressionSnappy, CompressionGzip)
	sinkconf.CheckCredentialPair(&v,
		"credentials.accessKeyId", c.Credentials.AccessKeyID,
		"credentials.secretAccessKey", c.Credentials.SecretAccessKey)
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
	opts := defaults()
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
		Title:       "Amazon S3",
		Description: "Write batched Parquet objects to an S3 or S3-compatible bucket.",
		Fields: []sinkconf.FieldDescriptor{
			{Path: "options.bucket", Label: "Bucket", ValueType: "string", Required: true},
			{Path: "options.region", Label: "Region", ValueType: "string", Required: true, Placeholder: defaultRegion},
			{Path: "options.prefixTemplate", Label: "Prefix template", ValueType: "string", Required: true, Placeholder: defaultPrefix},
			{Path: "options.endpointUrl", Label: "Endpoint URL", ValueType: "string", Placeholder: "http://localhost:9000"},
			{Path: "options.usePathStyle", Label: "Path-style addressing", ValueType: "boolean"},
			{Path: "options.format", Label: "Format", ValueType: "enum", Required: true, Options: []string{FormatParquet}},
			{Path: "options.compression", Label: "Compression", ValueType: "enum", Required: true, Options: []string{CompressionZstd, CompressionSnappy, CompressionGzip}},
			{Path: "credentials.accessKeyId", Label: "Access key ID", ValueType: "string"},
			{Path: "credentials.secretAccessKey", Label: "Secret access key", ValueType: "password", Sensitive: true},
		},
	}
}

// Register adds the S3 variant to r.
func Register(r *sinkconf.Registry) error {
	return r.Register(Descriptor(), func(name string) (sinkconf.Configuration, error) {
		c, err := New(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
