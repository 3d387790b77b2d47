package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-sinks/pkg/codec"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := codec.JSONStrict.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.JSONStrict.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

type errorBody struct {
	Error      string              `json:"error"`
	Violations sinkconf.Violations `json:"violations,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, v sinkconf.Violations) {
	writeJSON(w, status, errorBody{Error: msg, Violations: v})
}
