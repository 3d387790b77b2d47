package electrician

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// preflightOAuthToken attempts a client-credentials token call, backing off
// for up to total. Best-effort: the caller ignores the result and the relay
// surfaces real auth failures itself.
func preflightOAuthToken(ctx context.Context, hc *http.Client, tokenURL, clientID, clientSecret string, scopes []string, total time.Duration) error {
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil
	}
	if _, err := url.Parse(tokenURL); err != nil {
		return nil
	}

	// 250ms -> 500ms -> 1s -> 2s ... until the budget is spent
	deadline := time.Now().Add(total)
	sleep := 250 * time.Millisecond

	for {
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		if len(scopes) > 0 {
			form.Set("scope", strings.Join(scopes, " "))
		}
		form.Set("client_id", clientID)
		form.Set("client_secret", clientSecret)

		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		req, _ := http.NewRequestWithContext(reqCtx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := hc.Do(req)
		cancel()

		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		if sleep < 2*time.Second {
			sleep *= 2
		}
	}
}
