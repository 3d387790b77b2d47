package auth

import (
	"encoding/base64"
	"math/big"
)

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func b64url(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// exponent decodes a JWKS "e" value; empty means the common 65537.
func exponent(b []byte) int {
	e := new(big.Int).SetBytes(b)
	if e.Sign() == 0 || !e.IsInt64() {
		return 65537
	}
	return int(e.Int64())
}
