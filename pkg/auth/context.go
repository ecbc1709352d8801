// Package auth holds request identity context helpers. Authentication
// itself is an external collaborator: the embedding application injects a
// middleware that validates the session and populates these values.
package auth

import "context"

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyUserID is the context key for the user's database ID
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyRole is the context key for the user's role
	ContextKeyRole contextKey = "role"
)

// RoleAdmin marks requests allowed on the admin surface.
const RoleAdmin = "admin"

// WithUserID adds the user ID to the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserIDFromContext retrieves the user ID from the context
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(int64)
	return id, ok
}

// WithRole adds the role to the context
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RoleFromContext retrieves the role from the context
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ContextKeyRole).(string)
	return role, ok
}

// IsAdmin reports whether the request context carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, ok := RoleFromContext(ctx)
	return ok && role == RoleAdmin
}
