package ctxkey

import "context"

type key string

const userKey key = "user"

func attach(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, userKey, 1)
	ctx = context.WithValue(ctx, "user", 1) // want "context key should have its own type, not string"
	return context.WithValue(ctx, 7, 1) // want "context key should have its own type, not int"
}
