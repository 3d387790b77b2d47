package codec

import (
	"bytes"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

type tomlStrict struct{}

// TOML mirrors JSONStrict for TOML documents.
var TOML Codec = tomlStrict{}

func (tomlStrict) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := toml.NewEncoder(buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlStrict) Unmarshal(data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("toml decode: %w", err)
	}
	return nil
}

func (tomlStrict) ContentType() string { return "application/toml" }
