package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ForPath picks a codec from a file extension (.toml, .yaml/.yml, .json).
func ForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSONStrict, nil
	default:
		return nil, fmt.Errorf("codec: unsupported file extension %q", filepath.Ext(path))
	}
}
