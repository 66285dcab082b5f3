package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugKey struct{}

// EnableDebugMode marks ctx so that C-prefixed log calls made with it print at debug level
// regardless of the logger's level. key tags the debugging session; an empty key gets a short
// random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = uuid.NewString()[:6]
	}
	return context.WithValue(ctx, debugKey{}, key)
}

// IsDebugMode reports whether ctx was marked by EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugKey(ctx) != ""
}

// DebugKey returns the key ctx was marked with, or "".
func DebugKey(ctx context.Context) string {
	key, _ := ctx.Value(debugKey{}).(string)
	return key
}
