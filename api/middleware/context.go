package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/internal/access"
)

type contextKey string

const (
	ctxCaller   contextKey = "caller"
	ctxAccessID contextKey = "access_id"
)

// WithCaller stores the authenticated identity and its token id.
func WithCaller(ctx context.Context, caller access.Caller, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCaller, caller)
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// CallerFromContext returns the zero Caller for anonymous requests.
func CallerFromContext(ctx context.Context) access.Caller {
	if ctx == nil {
		return access.Caller{}
	}
	if v, ok := ctx.Value(ctxCaller).(access.Caller); ok {
		return v
	}
	return access.Caller{}
}

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	caller := CallerFromContext(ctx)
	if caller.UserID == uuid.Nil {
		return ""
	}
	return caller.UserID.String()
}

func StoreIDFromContext(ctx context.Context) string {
	caller := CallerFromContext(ctx)
	if caller.StoreID == nil {
		return ""
	}
	return caller.StoreID.String()
}
