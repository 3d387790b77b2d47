package electrician

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadRelayOptionsFromEnv(t *testing.T) {
	t.Setenv("ELECTRICIAN_TARGET", " relay-a:50051, ,relay-b:50051 ")
	t.Setenv("ELECTRICIAN_COMPRESS", "SNAPPY")
	t.Setenv("ELECTRICIAN_STATIC_HEADERS", "x-tenant=acme, broken ,x-env=prod")
	t.Setenv("OAUTH_REFRESH_LEEWAY", "nonsense")
	t.Setenv("ELECTRICIAN_AES256_KEY_HEX", strings.Repeat("ab", 32))

	o, err := LoadRelayOptionsFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !o.Enabled() || len(o.Targets) != 2 || o.Targets[1] != "relay-b:50051" {
		t.Fatalf("targets = %q", o.Targets)
	}
	if !o.CompressSnappy || o.EncryptAESGCM {
		t.Fatalf("flags = %+v", o)
	}
	if len(o.StaticHeaders) != 2 || o.StaticHeaders["x-env"] != "prod" {
		t.Fatalf("headers = %v", o.StaticHeaders)
	}
	if o.OAuthLeeway != 20*time.Second || o.OAuthPreflight != 0 {
		t.Fatalf("durations = %v %v", o.OAuthLeeway, o.OAuthPreflight)
	}
	if len(o.AESKey) != 32 || o.OAuthEnabled() {
		t.Fatalf("aes=%d oauth=%v", len(o.AESKey), o.OAuthEnabled())
	}
}

func TestLoadRelayOptionsKeyErrors(t *testing.T) {
	t.Setenv("ELECTRICIAN_AES256_KEY_HEX", "abcd")
	if _, err := LoadRelayOptionsFromEnv(); err == nil {
		t.Fatal("short key accepted")
	}
	t.Setenv("ELECTRICIAN_AES256_KEY_HEX", "")
	t.Setenv("ELECTRICIAN_ENCRYPT", "aesgcm")
	if _, err := LoadRelayOptionsFromEnv(); err == nil {
		t.Fatal("encryption without key accepted")
	}
}

func TestNewRelayWithoutTargetsIsNoop(t *testing.T) {
	p, err := NewRelay(RelayOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(noopRelay); !ok {
		t.Fatalf("got %T", p)
	}
	if err := p.Publish(context.Background(), Message{}); err != nil {
		t.Fatal(err)
	}
	p.Close()
}

func TestBuilderRelayPublish(t *testing.T) {
	var got [][]byte
	canceled := false
	r := &builderRelay{
		cancel: func() { canceled = true },
		submit: func(_ context.Context, b []byte) error { got = append(got, b); return nil },
	}
	if err := r.Publish(context.Background(), Message{Body: []byte("x")}); err == nil {
		t.Fatal("publish without topic accepted")
	}
	if err := r.Publish(context.Background(), Message{Topic: "t", Body: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	r.Close()
	r.Close()
	if !canceled || len(got) != 1 {
		t.Fatalf("canceled=%v submitted=%d", canceled, len(got))
	}
	if err := r.Publish(context.Background(), Message{Topic: "t"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("after close: %v", err)
	}
}

func TestPreflightRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"t"}`))
	}))
	defer srv.Close()

	err := preflightOAuthToken(context.Background(), srv.Client(), srv.URL+"/token", "id", "secret", []string{"a", "b"}, 5*time.Second)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestPreflightSkipsWhenUnconfigured(t *testing.T) {
	if err := preflightOAuthToken(context.Background(), http.DefaultClient, "", "id", "s", nil, time.Second); err != nil {
		t.Fatal(err)
	}
}
