package internal

import "context"

type ctxKey string

const ContextSessionKey ctxKey = "sessionID"

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sessionID, ok := ctx.Value(ContextSessionKey).(string); ok {
		return sessionID
	}
	return ""
}

func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextSessionKey, sessionID)
}
