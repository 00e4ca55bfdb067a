// Package grpc serves the shortener over gRPC with a JSON codec.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/intercepters"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

// Options configures the gRPC server.
type Options struct {
	Port          int
	Anonymous     bool
	TrustedSubnet string
}

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// New creates a new gRPC server instance. auth may be nil in anonymous mode.
func New(logger *zap.Logger, opts Options, svc service.URLServiceIface, auth service.AuthIface) *Server {
	var identify grpc.UnaryServerInterceptor = intercepters.WithAnonymous
	if !opts.Anonymous {
		identify = intercepters.WithJWT(auth, logger, ResolveFullMethodName)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.WithSubnet(opts.TrustedSubnet, StatsFullMethodName),
			identify,
		),
	)

	RegisterShortenerService(s, &ShortenerServer{Service: svc})

	return &Server{
		grpcServer: s,
		port:       opts.Port,
		logger:     logger,
	}
}

// Serve accepts connections on lis until the server stops. Stopping is not
// an error.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Start listens on the configured port and serves.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	return s.Serve(lis)
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// ShortenerServer implements ShortenerService on top of the URL service.
type ShortenerServer struct {
	Service service.URLServiceIface
}

func (s *ShortenerServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.Service.Register(ctx, owner, toModel(req))
	if err != nil {
		return nil, toStatus(err)
	}

	return &RegisterResponse{Name: r.Name, ShortURL: r.ShortURL}, nil
}

func (s *ShortenerServer) Edit(ctx context.Context, req *RegisterRequest) (*emptypb.Empty, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Service.Edit(ctx, owner, toModel(req)); err != nil {
		return nil, toStatus(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *ShortenerServer) Remove(ctx context.Context, req *RemoveRequest) (*emptypb.Empty, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Service.Remove(ctx, owner, req.Name); err != nil {
		return nil, toStatus(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *ShortenerServer) List(ctx context.Context, _ *ListRequest) (*ListResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.Service.List(ctx, owner)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &ListResponse{Entries: make([]*Entry, 0, len(entries))}
	for _, e := range entries {
		item := &Entry{
			Name:     e.Name,
			ShortURL: e.ShortURL,
			Target:   e.Target,
			Uses:     e.Uses,
			MaxUses:  e.MaxUses,
		}
		if e.Expiration != nil {
			item.Expiration = timestamppb.New(*e.Expiration)
		}
		resp.Entries = append(resp.Entries, item)
	}

	return resp, nil
}

// Resolve counts a use, exactly like following the short link.
func (s *ShortenerServer) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	target, err := s.Service.Resolve(ctx, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}

	return &ResolveResponse{Target: target}, nil
}

func (s *ShortenerServer) Stats(ctx context.Context, _ *emptypb.Empty) (*StatsResponse, error) {
	return &StatsResponse{URLs: s.Service.Stats(ctx).URLs}, nil
}

func ownerFrom(ctx context.Context) (registry.Owner, error) {
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		return registry.Owner{}, status.Error(codes.Internal, "owner missing in context")
	}
	return owner, nil
}

func toModel(req *RegisterRequest) models.RegisterRequest {
	m := models.RegisterRequest{
		Target:  req.Target,
		MaxUses: req.MaxUses,
	}
	if req.Name != "" {
		m.Name = &req.Name
	}
	if req.Expiration != nil {
		exp := req.Expiration.AsTime().Format(time.RFC3339Nano)
		m.Expiration = &exp
	}
	return m
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
