package electrician

import (
	"crypto/tls"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"
)

// RelayOptions configure the forward relay used to push sink records to the
// management backend. No targets means publishing is disabled.
type RelayOptions struct {
	Targets []string

	// TLS
	TLSEnable    bool
	TLSClientCrt string
	TLSClientKey string
	TLSCA        string
	TLSMin       uint16
	TLSMax       uint16
	InsecureTLS  bool // dev only, token client

	// Perf/Security
	CompressSnappy bool
	EncryptAESGCM  bool
	AESKey         []byte // 32 bytes

	// OAuth2 CC
	OAuthIssuer    string
	OAuthJWKS      string
	OAuthClientID  string
	OAuthSecret    string
	OAuthScopes    []string
	OAuthLeeway    time.Duration
	OAuthPreflight time.Duration // 0 skips the token preflight
	OAuthTokenPath string

	StaticHeaders   map[string]string
	DevelopmentLogs bool
}

// OAuthEnabled reports whether client-credentials auth is fully configured.
func (o RelayOptions) OAuthEnabled() bool {
	return o.OAuthIssuer != "" && o.OAuthClientID != "" && o.OAuthSecret != ""
}

// LoadRelayOptionsFromEnv reads ELECTRICIAN_* and OAUTH_* variables.
//
//	ELECTRICIAN_TARGET          = "host:port[,host2:port2]"
//	ELECTRICIAN_TLS_ENABLE      = "true" | "false"
//	ELECTRICIAN_TLS_CLIENT_CRT  = path (default: keys/tls/client.crt)
//	ELECTRICIAN_TLS_CLIENT_KEY  = path (default: keys/tls/client.key)
//	ELECTRICIAN_TLS_CA          = path (default: keys/tls/ca.crt)
//	ELECTRICIAN_TLS_INSECURE    = "true" | "false"
//	ELECTRICIAN_COMPRESS        = "snappy" | ""
//	ELECTRICIAN_ENCRYPT         = "aesgcm" | ""
//	ELECTRICIAN_AES256_KEY_HEX  = 64 hex chars
//	ELECTRICIAN_STATIC_HEADERS  = "k=v,k2=v2"
//	ELECTRICIAN_LOG_DEV         = "true" | "false"
//	OAUTH_ISSUER_BASE, OAUTH_JWKS_URL, OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET,
//	OAUTH_SCOPES, OAUTH_REFRESH_LEEWAY (20s), OAUTH_PREFLIGHT_TIMEOUT (0s),
//	OAUTH_TOKEN_PATH (/api/auth/oauth/token)
func LoadRelayOptionsFromEnv() (RelayOptions, error) {
	opt := RelayOptions{
		Targets:        splitCSV(os.Getenv("ELECTRICIAN_TARGET")),
		TLSEnable:      strings.EqualFold(os.Getenv("ELECTRICIAN_TLS_ENABLE"), "true"),
		TLSClientCrt:   getenv("ELECTRICIAN_TLS_CLIENT_CRT", "keys/tls/client.crt"),
		TLSClientKey:   getenv("ELECTRICIAN_TLS_CLIENT_KEY", "keys/tls/client.key"),
		TLSCA:          getenv("ELECTRICIAN_TLS_CA", "keys/tls/ca.crt"),
		TLSMin:         tls.VersionTLS13,
		TLSMax:         tls.VersionTLS13,
		InsecureTLS:    strings.EqualFold(os.Getenv("ELECTRICIAN_TLS_INSECURE"), "true"),
		CompressSnappy: strings.EqualFold(os.Getenv("ELECTRICIAN_COMPRESS"), "snappy"),
		EncryptAESGCM:  strings.EqualFold(os.Getenv("ELECTRICIAN_ENCRYPT"), "aesgcm"),

		OAuthIssuer:    strings.TrimSpace(os.Getenv("OAUTH_ISSUER_BASE")),
		OAuthJWKS:      strings.TrimSpace(os.Getenv("OAUTH_JWKS_URL")),
		OAuthClientID:  strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		OAuthSecret:    strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		OAuthScopes:    splitCSV(os.Getenv("OAUTH_SCOPES")),
		OAuthLeeway:    parseDur(getenv("OAUTH_REFRESH_LEEWAY", "20s"), 20*time.Second),
		OAuthPreflight: parseDur(os.Getenv("OAUTH_PREFLIGHT_TIMEOUT"), 0),
		OAuthTokenPath: getenv("OAUTH_TOKEN_PATH", "/api/auth/oauth/token"),

		StaticHeaders:   parseKV(os.Getenv("ELECTRICIAN_STATIC_HEADERS")),
		DevelopmentLogs: strings.EqualFold(os.Getenv("ELECTRICIAN_LOG_DEV"), "true"),
	}

	if k := strings.TrimSpace(os.Getenv("ELECTRICIAN_AES256_KEY_HEX")); k != "" {
		raw, err := hex.DecodeString(k)
		if err != nil {
			return RelayOptions{}, errors.New("ELECTRICIAN_AES256_KEY_HEX is not valid hex")
		}
		if len(raw) != 32 {
			return RelayOptions{}, errors.New("ELECTRICIAN_AES256_KEY_HEX must decode to 32 bytes")
		}
		opt.AESKey = raw
	}
	if opt.EncryptAESGCM && len(opt.AESKey) == 0 {
		return RelayOptions{}, errors.New("ELECTRICIAN_ENCRYPT=aesgcm requires ELECTRICIAN_AES256_KEY_HEX")
	}
	return opt, nil
}
