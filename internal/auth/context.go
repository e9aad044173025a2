package auth

import "context"

type contextKey struct{}

// Context carries the authenticated identity for one request. Handlers must
// take the owner id from here and nowhere else; request parameters never
// reach the stores' owner filter.
type Context struct {
	UserID    int64
	SessionID int64
	Timezone  string
}

func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

// UserID returns the authenticated user id, or 0 when unauthenticated.
func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// Timezone returns the authenticated user's timezone label, defaulting to
// UTC when unauthenticated.
func Timezone(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok || ac.Timezone == "" {
		return "UTC"
	}
	return ac.Timezone
}
