package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// CurrentUserID returns the numeric user id bound to the request session, or
// zero when the request is unauthenticated.
func CurrentUserID(ctx context.Context) int64 {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0
	}
	return sess.UserID()
}

type apiScopesContextKey struct{}

// ContextWithAPIScopes stores the scopes granted to an authenticated API
// client. Machine consumers have no session; their scopes stand in for
// effective permissions.
func ContextWithAPIScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, apiScopesContextKey{}, scopes)
}

// APIScopesFromContext extracts API client scopes from context.
func APIScopesFromContext(ctx context.Context) []string {
	scopes, _ := ctx.Value(apiScopesContextKey{}).([]string)
	return scopes
}
