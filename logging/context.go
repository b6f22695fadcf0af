package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugKeyType struct{}

// EnableDebugMode returns a context under which CDebugw logs regardless of the logger's level.
// Those lines carry key so the lines of one request can be found together. An empty key is
// replaced by a random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugKeyType{}, key)
}

// IsDebugMode returns whether ctx has debug mode enabled.
func IsDebugMode(ctx context.Context) bool {
	_, ok := debugKey(ctx)
	return ok
}

func debugKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(debugKeyType{}).(string)
	return key, ok && key != ""
}
