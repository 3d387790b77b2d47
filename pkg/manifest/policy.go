package manifest

import (
	"errors"
	"strings"
)

// Guard restricts a group of API routes.
type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Auth holds one guard for read-only routes and one for mutating routes.
type Auth struct {
	Read  Guard `toml:"read"`
	Write Guard `toml:"write"`
}

func (a *Auth) normalize() {
	a.Read.normalize()
	a.Write.normalize()
}

func (g *Guard) normalize() {
	g.Roles = trimAll(g.Roles)
	g.Users = trimAll(g.Users)
}

// Policy applies to every /api route.
type Policy struct {
	TimeoutMS int        `toml:"timeout_ms"`
	RateLimit *RateLimit `toml:"rate_limit"` // mutating routes only
}

type RateLimit struct {
	RPS   int `toml:"rps"`
	Burst int `toml:"burst"`
}

func (p *Policy) normalize() error {
	if p.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	if p.TimeoutMS == 0 {
		p.TimeoutMS = 5000
	}
	if rl := p.RateLimit; rl != nil {
		if rl.RPS < 0 || rl.Burst < 0 {
			return errors.New("policy.rate_limit values must be >= 0")
		}
		if rl.Burst == 0 {
			rl.Burst = rl.RPS
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
