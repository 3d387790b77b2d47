package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxKeyBody = 1 << 20

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (m *Middleware) backgroundRefresh() {
	for {
		time.Sleep(max(m.getCacheTTL(), 5*time.Second))
		_ = m.refreshAssertionKey(context.Background())
	}
}

// refreshAssertionKey fetches the verification key as JWKS (by content type
// or a .json URL) or as a PEM public key. A 304 keeps the current key.
func (m *Middleware) refreshAssertionKey(ctx context.Context) error {
	if m.assertKeyURL == "" {
		return errors.New("ASSERTION_KEY_URL not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.assertKeyURL, nil)
	if err != nil {
		return err
	}
	if etag := m.getETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("Accept", "*/*")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotModified && m.getKey() != nil {
		m.commit(nil, res)
		return nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("key fetch %s: %s", m.assertKeyURL, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxKeyBody))
	if err != nil {
		return err
	}
	ct := strings.ToLower(res.Header.Get("Content-Type"))
	var pub *rsa.PublicKey
	if strings.Contains(ct, "application/json") || strings.HasSuffix(strings.ToLower(m.assertKeyURL), ".json") {
		pub, err = m.keyFromJWKS(body)
	} else {
		pub, err = keyFromPEM(body)
	}
	if err != nil {
		return err
	}
	m.commit(pub, res)
	return nil
}

func (m *Middleware) keyFromJWKS(body []byte) (*rsa.PublicKey, error) {
	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, err
	}
	k, ok := selectJWK(set.Keys, m.assertKeyKID)
	if !ok {
		return nil, errors.New("no suitable RSA key in JWKS")
	}
	n, err := b64url(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad jwks.n: %w", err)
	}
	e, err := b64url(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad jwks.e: %w", err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exponent(e)}, nil
}

// selectJWK picks the RSA key with kid, or without a kid the first RSA
// signing key usable for RS256.
func selectJWK(keys []jwk, kid string) (jwk, bool) {
	for _, k := range keys {
		if k.Kty != "RSA" {
			continue
		}
		if kid != "" {
			if k.Kid == kid {
				return k, true
			}
			continue
		}
		if (k.Use == "" || k.Use == "sig") && (k.Alg == "" || strings.EqualFold(k.Alg, "RS256")) {
			return k, true
		}
	}
	return jwk{}, false
}

func keyFromPEM(body []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(body)
	if block == nil {
		return nil, errors.New("no PEM block in response")
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rk, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("PEM is not RSA public key")
	}
	return rk, nil
}

// commit stores pub (nil keeps the current key) and the response's cache
// headers.
func (m *Middleware) commit(pub *rsa.PublicKey, res *http.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pub != nil {
		m.assertKey = pub
		m.assertETag = res.Header.Get("ETag")
	}
	if ttl, ok := maxAge(res.Header.Get("Cache-Control")); ok {
		m.cacheTTL = ttl
	}
}

// maxAge parses max-age from Cache-Control; values under 5s are ignored.
func maxAge(cc string) (time.Duration, bool) {
	for _, p := range strings.Split(cc, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if v, ok := strings.CutPrefix(p, "max-age="); ok {
			if s, err := strconv.Atoi(v); err == nil && s >= 5 {
				return time.Duration(s) * time.Second, true
			}
		}
	}
	return 0, false
}

func (m *Middleware) getKey() *rsa.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assertKey
}

func (m *Middleware) getETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assertETag
}

func (m *Middleware) getCacheTTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cacheTTL
}
