package manifest

import (
	"errors"
	"strings"
)

const defaultListen = ":4000"

type Server struct {
	Listen         string     `toml:"listen"` // host:port, overridden by SERVER_LISTEN_ADDRESS
	ReadTimeoutMS  int        `toml:"read_timeout_ms"`
	WriteTimeoutMS int        `toml:"write_timeout_ms"`
	TLS            *ServerTLS `toml:"tls"`
}

type ServerTLS struct {
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

func (s *Server) normalize() error {
	s.Listen = strings.TrimSpace(s.Listen)
	if s.Listen == "" {
		s.Listen = defaultListen
	}
	if s.ReadTimeoutMS < 0 || s.WriteTimeoutMS < 0 {
		return errors.New("server: timeouts must be >= 0")
	}
	if s.ReadTimeoutMS == 0 {
		s.ReadTimeoutMS = 15000
	}
	if s.WriteTimeoutMS == 0 {
		s.WriteTimeoutMS = 30000
	}
	if t := s.TLS; t != nil {
		t.Cert, t.Key = strings.TrimSpace(t.Cert), strings.TrimSpace(t.Key)
		if (t.Cert == "") != (t.Key == "") {
			return errors.New("server.tls: cert and key must be set together")
		}
	}
	return nil
}
