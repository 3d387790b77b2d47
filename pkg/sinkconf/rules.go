package sinkconf

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// Shared rule helpers. Each appends to v and never returns early, so
// callers can run them back to back and collect every problem.

// RequireText flags an empty or whitespace-only value.
func RequireText(v *Violations, path, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(path, "must not be empty")
		return false
	}
	return true
}

// CheckEndpoint validates a connection URI: allowed scheme, host, optional
// port, nothing else.
func CheckEndpoint(v *Violations, path, raw string, schemes ...string) {
	if strings.TrimSpace(raw) == "" {
		v.Add(path, "must not be empty")
		return
	}
	if raw != strings.TrimSpace(raw) {
		v.Add(path, "must not contain surrounding whitespace")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		v.Add(path, "must be an absolute URI with scheme and host")
		return
	}
	if !oneOf(strings.ToLower(u.Scheme), schemes) {
		v.Addf(path, "scheme must be one of %s", strings.Join(schemes, ", "))
		return
	}
	if u.User != nil {
		v.Add(path, "must not embed user info; use credentials instead")
		return
	}
	if u.Hostname() == "" {
		v.Add(path, "must include a host")
		return
	}
	if p := u.Port(); p != "" {
		if !validPort(p) {
			v.Add(path, "port must be between 1 and 65535")
			return
		}
	} else if strings.HasSuffix(u.Host, ":") {
		v.Add(path, "port must be between 1 and 65535")
		return
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		v.Add(path, "must not carry a query or fragment")
	}
}

// CheckHostPort validates a "host:port" broker address.
func CheckHostPort(v *Violations, path, raw string) {
	if strings.TrimSpace(raw) == "" {
		v.Add(path, "must not be empty")
		return
	}
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		v.Add(path, "must be host:port")
		return
	}
	if host == "" || strings.ContainsFunc(host, unicode.IsSpace) {
		v.Add(path, "must include a host")
		return
	}
	if !validPort(port) {
		v.Add(path, "port must be between 1 and 65535")
	}
}

// CheckCredentialPair allows both members empty (anonymous) and flags the
// empty member when only one is set.
func CheckCredentialPair(v *Violations, userPath, user, secretPath, secret string) {
	hasUser, hasSecret := user != "", secret != ""
	switch {
	case hasUser && !hasSecret:
		v.Addf(secretPath, "required when %s is set", userPath)
	case hasSecret && !hasUser:
		v.Addf(userPath, "required when %s is set", secretPath)
	}
}

// CheckOneOf flags values outside allowed.
func CheckOneOf(v *Violations, path, value string, allowed ...string) {
	if !oneOf(value, allowed) {
		v.Addf(path, "must be one of %s", strings.Join(allowed, ", "))
	}
}

// CheckIndexName applies search-store index naming rules: lowercase, no
// whitespace, no leading '-', '_', '+' or '.', none of \/*?"<>|,#: and at
// most 255 bytes.
func CheckIndexName(v *Violations, path, name string) {
	if name == "" {
		v.Add(path, "must not be empty")
		return
	}
	if name == "." || name == ".." {
		v.Add(path, "must not be . or ..")
		return
	}
	if len(name) > 255 {
		v.Add(path, "must be at most 255 bytes")
	}
	if strings.ContainsAny(name[:1], "-_+.") {
		v.Add(path, "must not start with -, _, + or .")
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		v.Add(path, "must not contain whitespace")
	}
	if strings.ContainsFunc(name, unicode.IsUpper) {
		v.Add(path, "must be lowercase")
	}
	if strings.ContainsAny(name, `\/*?"<>|,#:`) {
		v.Add(path, `must not contain any of \ / * ? " < > | , # :`)
	}
}

func validPort(p string) bool {
	n, err := strconv.Atoi(p)
	return err == nil && n >= 1 && n <= 65535
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// CloneStrings copies s, mapping nil to an empty slice.
func CloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
