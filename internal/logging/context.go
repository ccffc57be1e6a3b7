package logging

import "context"

// Context keys for correlation ids.
type contextKey string

const (
	turnIDKey    contextKey = "turn_id"
	sessionIDKey contextKey = "session_id"
)

// TurnIDKey returns the context key for the per-turn correlation id:
//
//	ctx := context.WithValue(ctx, logging.TurnIDKey(), turnID)
func TurnIDKey() interface{} {
	return turnIDKey
}

// SessionIDKey returns the context key for the session id.
func SessionIDKey() interface{} {
	return sessionIDKey
}

// WithTurnID returns a context carrying the given turn correlation id.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnIDKey, turnID)
}

// WithSessionID returns a context carrying the given session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// extractContextFields extracts turn_id and session_id from ctx if present.
// Returns nil when ctx is nil or carries neither.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})
	if turnID := ctx.Value(turnIDKey); turnID != nil {
		fields["turn_id"] = turnID
	}
	if sessionID := ctx.Value(sessionIDKey); sessionID != nil {
		fields["session_id"] = sessionID
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
