package logger

import (
	"encoding/json"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// redactBody masks every value under a top-level "credentials" object.
// Bodies that are not a JSON object are never logged.
func redactBody(body []byte) ([]byte, bool) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, false
	}
	if creds, ok := doc["credentials"].(map[string]any); ok {
		for k, v := range creds {
			switch s := v.(type) {
			case nil:
			case string:
				creds[k] = sinkconf.Mask(s)
			default:
				creds[k] = sinkconf.Mask("set")
			}
		}
	} else if doc["credentials"] != nil {
		doc["credentials"] = sinkconf.Mask("set")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return out, true
}
