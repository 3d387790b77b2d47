package logger

import (
	"net/http"
	"strings"
)

// DefaultBodyPaths are the path prefixes whose JSON bodies reach the access log.
var DefaultBodyPaths = []string{"/api/sinks"}

// AddBodyLogPaths extends the allowlist of path prefixes.
func (m *Middleware) AddBodyLogPaths(paths ...string) {
	m.mu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			m.bodyPaths = append(m.bodyPaths, p)
		}
	}
	m.mu.Unlock()
}

// Only log small JSON request bodies on allowlisted routes.
func (m *Middleware) shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 { // 64 KiB cap
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.bodyPaths {
		if r.URL.Path == p || strings.HasPrefix(r.URL.Path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
