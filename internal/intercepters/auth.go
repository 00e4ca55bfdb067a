package intercepters

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/storage"
)

// WithJWT authenticates calls by the "authorization: Bearer <token>"
// metadata and injects the caller into the context. Methods listed in
// public are let through without a token.
func WithJWT(auth service.AuthIface, log *zap.Logger, public ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if slices.Contains(public, info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeader := md.Get("authorization")
		if len(authHeader) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		claims, err := auth.ParseRawJWT(strings.TrimPrefix(authHeader[0], "Bearer "))
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid JWT: %v", err)
		}

		u, err := auth.Lookup(ctx, claims.UserID)
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, status.Error(codes.Unauthenticated, "unknown user")
		}
		if err != nil {
			log.Error("session lookup", zap.String("user_id", claims.UserID), zap.Error(err))
			return nil, status.Error(codes.Internal, "session lookup failed")
		}

		return handler(middleware.ContextWithUser(ctx, *u), req)
	}
}

// WithAnonymous makes every call act as the anonymous owner.
func WithAnonymous(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	return handler(middleware.ContextWithAnonymous(ctx), req)
}
