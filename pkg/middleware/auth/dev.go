package auth

import "net/http"

// devUserFromHeaders reads X-Dev-User / X-Dev-Role / X-Dev-Provider.
// Only consulted when AUTH_DEV_BYPASS=true.
func devUserFromHeaders(r *http.Request) User {
	user := r.Header.Get("X-Dev-User")
	if user == "" {
		return User{}
	}
	prov := r.Header.Get("X-Dev-Provider")
	if prov == "" {
		prov = "dev"
	}
	return User{
		Username:             user,
		AuthenticationSource: AuthenticationSource{Provider: prov},
		Role:                 Role{Name: r.Header.Get("X-Dev-Role")},
	}
}
