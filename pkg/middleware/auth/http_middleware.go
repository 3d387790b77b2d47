package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxSessionBody = 64 << 10

func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := m.resolve(r)
			switch {
			case err != nil:
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case u.Username != "":
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
			default:
				// anonymous; route guards decide
				next.ServeHTTP(w, r)
			}
		})
	}
}

// resolve returns the zero User for anonymous requests and an error only
// when a presented session cookie is rejected.
func (m *Middleware) resolve(r *http.Request) (User, error) {
	// NEVER enable in prod
	if m.devBypass {
		if u := devUserFromHeaders(r); u.Username != "" {
			return u, nil
		}
	}

	// An invalid assertion falls through to the session cookie.
	if ac, _ := r.Cookie(m.assertCookieName); ac != nil && ac.Value != "" && m.getKey() != nil {
		if u, err := m.validateAssertion(ac.Value); err == nil {
			return u, nil
		}
	}

	if m.cookieName == "" {
		return User{}, nil
	}
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return User{}, nil
	}
	u, err := m.validateSession(r.Context(), c)
	if err != nil {
		return User{}, err
	}
	if u.Username == "" {
		return User{}, errors.New("session has no user")
	}
	return u, nil
}

func (m *Middleware) validateSession(ctx context.Context, c *http.Cookie) (User, error) {
	if m.sessionAPI == "" {
		return User{}, errors.New("SESSION_STATE_API not set")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.sessionAPI, nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(c)

	res, err := m.httpClient.Do(req)
	if err != nil {
		return User{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("session api status %d", res.StatusCode)
	}

	var u User
	if err := json.NewDecoder(io.LimitReader(res.Body, maxSessionBody)).Decode(&u); err != nil {
		return User{}, err
	}
	return u, nil
}
