// Package electrician publishes sink configuration messages over an
// Electrician forward relay.
package electrician

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/joeydtaylor/electrician/pkg/builder"
)

// Message is the byte-level publish envelope.
type Message struct {
	Topic   string
	Body    []byte
	Headers map[string]string
}

// Publisher is the publish-only surface the backend needs.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
	Close()
}

var ErrClosed = errors.New("electrician: relay closed")

// noopRelay accepts publishes and discards them.
type noopRelay struct{}

func (noopRelay) Publish(context.Context, Message) error { return nil }
func (noopRelay) Close()                                 {}

// Noop returns a Publisher that discards every message.
func Noop() Publisher { return noopRelay{} }

// Enabled reports whether opts carry at least one relay target.
func (o RelayOptions) Enabled() bool { return len(o.Targets) > 0 }

type builderRelay struct {
	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
	submit func(context.Context, []byte) error // captures wire.Submit
}

// NewRelay starts a ForwardRelay[[]byte] fed by a wire. Internals are hidden
// behind closures; no builder types are stored on the struct. Without targets
// it returns Noop().
func NewRelay(opts RelayOptions) (Publisher, error) {
	if !opts.Enabled() {
		return Noop(), nil
	}

	logger := builder.NewLogger(builder.LoggerWithDevelopment(opts.DevelopmentLogs))

	ctx, cancel := context.WithCancel(context.Background())
	wire := builder.NewWire[[]byte](ctx, builder.WireWithLogger[[]byte](logger))

	perf := builder.NewPerformanceOptions(opts.CompressSnappy, builder.COMPRESS_SNAPPY)
	sec := builder.NewSecurityOptions(opts.EncryptAESGCM, builder.ENCRYPTION_AES_GCM)
	tlsCfg := builder.NewTlsClientConfig(
		opts.TLSEnable,
		opts.TLSClientCrt, opts.TLSClientKey, opts.TLSCA,
		opts.TLSMin, opts.TLSMax,
	)
	aesKey := string(opts.AESKey)

	var relayStart func(context.Context) error
	if opts.OAuthEnabled() {
		authOpts := builder.NewForwardRelayAuthenticationOptionsOAuth2(nil)
		if opts.OAuthJWKS != "" {
			authOpts = builder.NewForwardRelayAuthenticationOptionsOAuth2(
				builder.NewForwardRelayOAuth2JWTOptions(opts.OAuthIssuer, opts.OAuthJWKS, []string{}, opts.OAuthScopes, 300),
			)
		}
		authHTTP := &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS13,
					MaxVersion:         tls.VersionTLS13,
					InsecureSkipVerify: opts.InsecureTLS,
				},
			},
		}
		if opts.OAuthPreflight > 0 {
			_ = preflightOAuthToken(ctx, authHTTP, opts.OAuthIssuer+opts.OAuthTokenPath,
				opts.OAuthClientID, opts.OAuthSecret, opts.OAuthScopes, opts.OAuthPreflight)
		}
		ts := builder.NewForwardRelayRefreshingClientCredentialsSource(
			opts.OAuthIssuer, opts.OAuthClientID, opts.OAuthSecret, opts.OAuthScopes, opts.OAuthLeeway, authHTTP,
		)
		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](opts.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, aesKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](opts.StaticHeaders),
			builder.ForwardRelayWithAuthenticationOptions[[]byte](authOpts),
			builder.ForwardRelayWithOAuthBearer[[]byte](ts),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	} else {
		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](opts.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, aesKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](opts.StaticHeaders),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	}

	if err := wire.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("builder wire start: %w", err)
	}
	if err := relayStart(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("builder relay start: %w", err)
	}
	return &builderRelay{
		cancel: cancel,
		submit: func(ctx context.Context, b []byte) error { return wire.Submit(ctx, b) },
	}, nil
}

// Publish submits the body into the relay pipeline. The topic is required;
// routing metadata travels inside the body.
func (c *builderRelay) Publish(ctx context.Context, m Message) error {
	if m.Topic == "" {
		return errors.New("relay: missing topic")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return c.submit(ctx, m.Body)
}

// Close stops the relay; later publishes fail with ErrClosed.
func (c *builderRelay) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.cancel()
	}
}
