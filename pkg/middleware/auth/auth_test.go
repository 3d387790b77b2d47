package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serve(m *Middleware, req *http.Request) (User, int) {
	var got User
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = m.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec.Code
}

func signedAssertion(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDevBypass(t *testing.T) {
	m := New(Options{DevBypass: true, AdminRole: "admin"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "alice")
	req.Header.Set("X-Dev-Role", "admin")
	u, code := serve(m, req)
	if code != http.StatusOK || u.Username != "alice" {
		t.Fatalf("user = %+v code = %d", u, code)
	}

	ctx := context.WithValue(context.Background(), userCtxKey, u)
	if !m.IsAdmin(ctx) || !m.IsAuthenticated(ctx) || !m.IsRole(ctx, Role{Name: "viewer"}) {
		t.Fatal("admin checks failed")
	}
}

func TestDevHeadersIgnoredWithoutBypass(t *testing.T) {
	m := New(Options{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "mallory")
	if u, code := serve(m, req); u.Username != "" || code != http.StatusOK {
		t.Fatalf("user = %+v code = %d", u, code)
	}
}

func TestAssertionCookie(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	m := New(Options{AssertIssuer: "idp", AssertAudience: "sinkadmin", AssertLeeway: time.Minute}, nil)
	m.assertKey = &key.PublicKey

	now := time.Now()
	good := signedAssertion(t, key, jwt.MapClaims{
		"uid": "alice", "roles": []string{"sink-admin"}, "iss": "idp", "aud": "sinkadmin",
		"iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "assert", Value: good})
	u, _ := serve(m, req)
	if u.Username != "alice" || u.Role.Name != "sink-admin" || u.AuthenticationSource.Provider != "assert" {
		t.Fatalf("user = %+v", u)
	}

	for name, claims := range map[string]jwt.MapClaims{
		"issuer":   {"uid": "alice", "iss": "other", "aud": "sinkadmin", "exp": now.Add(time.Minute).Unix()},
		"audience": {"uid": "alice", "iss": "idp", "aud": "else", "exp": now.Add(time.Minute).Unix()},
		"expired":  {"uid": "alice", "iss": "idp", "aud": "sinkadmin", "exp": now.Add(-time.Hour).Unix()},
		"no uid":   {"iss": "idp", "aud": "sinkadmin", "exp": now.Add(time.Minute).Unix()},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "assert", Value: signedAssertion(t, key, claims)})
		if u, _ := serve(m, req); u.Username != "" {
			t.Errorf("%s: accepted as %+v", name, u)
		}
	}
}

func TestSessionAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(User{Username: "bob", Role: Role{Name: "viewer"}})
	}))
	defer srv.Close()

	m := New(Options{SessionAPI: srv.URL, SessionCookie: "sid"}, srv.Client())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "good"})
	if u, code := serve(m, req); u.Username != "bob" || code != http.StatusOK {
		t.Fatalf("user = %+v code = %d", u, code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "stale"})
	if _, code := serve(m, req); code != http.StatusUnauthorized {
		t.Fatalf("stale session code = %d", code)
	}
}

func TestRefreshAssertionKeyJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "max-age=120")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{
			{"kty": "EC", "kid": "skip"},
			{"kty": "RSA", "kid": "k1", "use": "sig", "alg": "RS256",
				"n": base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e": base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())},
		}})
	}))
	defer srv.Close()

	m := New(Options{AssertKeyURL: srv.URL}, srv.Client())
	if err := m.refreshAssertionKey(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !m.getKey().Equal(&key.PublicKey) {
		t.Fatal("wrong key selected")
	}
	if m.getCacheTTL() != 120*time.Second {
		t.Fatalf("ttl = %v", m.getCacheTTL())
	}
}

func TestRefreshAssertionKeyPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-pem-file")
		_ = pem.Encode(w, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
	}))
	defer srv.Close()

	m := New(Options{AssertKeyURL: srv.URL}, srv.Client())
	if err := m.refreshAssertionKey(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !m.getKey().Equal(&key.PublicKey) {
		t.Fatal("wrong key")
	}
}

func TestExponent(t *testing.T) {
	if exponent(nil) != 65537 || exponent([]byte{1, 0, 1}) != 65537 || exponent([]byte{3}) != 3 {
		t.Fatal("exponent decoding")
	}
}

func TestSelectJWK(t *testing.T) {
	keys := []jwk{
		{Kty: "EC", Kid: "a"},
		{Kty: "RSA", Kid: "enc", Use: "enc"},
		{Kty: "RSA", Kid: "ps", Alg: "PS256"},
		{Kty: "RSA", Kid: "sig"},
	}
	if k, ok := selectJWK(keys, ""); !ok || k.Kid != "sig" {
		t.Fatalf("default pick = %+v %v", k, ok)
	}
	if k, ok := selectJWK(keys, "enc"); !ok || k.Kid != "enc" {
		t.Fatalf("kid pick = %+v %v", k, ok)
	}
	if _, ok := selectJWK(keys, "a"); ok {
		t.Fatal("non-RSA key selected")
	}
}

func TestMaxAge(t *testing.T) {
	if d, ok := maxAge("public, Max-Age=300"); !ok || d != 300*time.Second {
		t.Fatalf("got %v %v", d, ok)
	}
	if _, ok := maxAge("max-age=2"); ok {
		t.Fatal("short max-age accepted")
	}
	if _, ok := maxAge(""); ok {
		t.Fatal("empty header accepted")
	}
}
