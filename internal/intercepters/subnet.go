package intercepters

import (
	"context"
	"net"
	"slices"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// WithSubnet restricts the listed methods to callers inside the CIDR
// subnet. The address comes from "x-real-ip" metadata, falling back to the
// peer. An empty or malformed subnet denies everyone.
func WithSubnet(subnet string, methods ...string) grpc.UnaryServerInterceptor {
	_, trusted, parseErr := net.ParseCIDR(subnet)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !slices.Contains(methods, info.FullMethod) {
			return handler(ctx, req)
		}
		if parseErr != nil {
			return nil, status.Error(codes.PermissionDenied, "no trusted subnet")
		}

		ip := realIP(ctx)
		if ip == nil || !trusted.Contains(ip) {
			return nil, status.Error(codes.PermissionDenied, "address not in trusted subnet")
		}

		return handler(ctx, req)
	}
}

func realIP(ctx context.Context) net.IP {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 {
			if ip := net.ParseIP(ips[0]); ip != nil {
				return ip
			}
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err == nil {
			return net.ParseIP(host)
		}
	}

	return nil
}
