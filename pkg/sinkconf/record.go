package sinkconf

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joeydtaylor/steeze-sinks/pkg/codec"
)

// Record is the plain, backend-facing form of a sink configuration.
// Options and Credentials hold the variant's own group types.
type Record struct {
	Name        string   `json:"name" toml:"name" yaml:"name"`
	SinkType    SinkType `json:"sinkType" toml:"sinkType" yaml:"sinkType"`
	Options     any      `json:"options" toml:"options" yaml:"options"`
	Credentials any      `json:"credentials" toml:"credentials" yaml:"credentials"`
}

// Redactor is implemented by credential groups that hold secrets.
type Redactor interface {
	Redacted() any
}

// Redacted returns a copy whose secret credential fields are masked.
func (r Record) Redacted() Record {
	if rd, ok := r.Credentials.(Redactor); ok {
		r.Credentials = rd.Redacted()
	}
	return r
}

// Unredactor is implemented by credential groups that can take back the
// secrets Redacted masked, using the stored group prev.
type Unredactor interface {
	Unredacted(prev any) any
}

// Unredacted returns a copy whose masked credential fields are filled from
// prev. Records of another sink type leave r unchanged.
func (r Record) Unredacted(prev Record) Record {
	if r.SinkType != prev.SinkType {
		return r
	}
	if u, ok := r.Credentials.(Unredactor); ok {
		r.Credentials = u.Unredacted(prev.Credentials)
	}
	return r
}

// Masked is what Mask returns for a set secret.
const Masked = "********"

// Mask hides a secret while keeping "unset" distinguishable from "set".
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	return Masked
}

// KeepMasked returns prev when cur is still the mask, else cur.
func KeepMasked(cur, prev string) string {
	if cur == Masked {
		return prev
	}
	return cur
}

// rawRecord keeps the groups undecoded until the variant is known.
type rawRecord struct {
	Name        string          `json:"name"`
	SinkType    SinkType        `json:"sinkType"`
	Options     json.RawMessage `json:"options"`
	Credentials json.RawMessage `json:"credentials"`
}

// DecodeGroup strictly decodes one JSON field group into dst.
// Empty input and JSON null leave dst untouched.
func DecodeGroup(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return codec.JSONStrict.Unmarshal(trimmed, dst)
}

func encodeGroup(name string, v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return b, nil
}
