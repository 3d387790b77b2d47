package auth

import "context"

func userFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey).(User)
	return u, ok && u.Username != ""
}

func withUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

func (m *Middleware) GetUser(ctx context.Context) User {
	u, _ := userFrom(ctx)
	return u
}

func (m *Middleware) isAdminUser(u User) bool {
	return m.adminRole != "" && u.Role.Name == m.adminRole
}

// IsRole passes admins for every role.
func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	u, ok := userFrom(ctx)
	return ok && (u.Role.Name == role.Name || m.isAdminUser(u))
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	u, ok := userFrom(ctx)
	return ok && m.isAdminUser(u)
}

func (m *Middleware) IsUser(ctx context.Context, username string) bool {
	u, ok := userFrom(ctx)
	return ok && (u.Username == username || m.isAdminUser(u))
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	_, ok := userFrom(ctx)
	return ok
}
