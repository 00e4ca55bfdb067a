package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Full method names of the shortage.v1.Shortener service.
const (
	ServiceName            = "shortage.v1.Shortener"
	RegisterFullMethodName = "/" + ServiceName + "/Register"
	EditFullMethodName     = "/" + ServiceName + "/Edit"
	RemoveFullMethodName   = "/" + ServiceName + "/Remove"
	ListFullMethodName     = "/" + ServiceName + "/List"
	ResolveFullMethodName  = "/" + ServiceName + "/Resolve"
	StatsFullMethodName    = "/" + ServiceName + "/Stats"
)

// RegisterRequest creates a mapping, or on Edit replaces its fields.
type RegisterRequest struct {
	Target     string                 `json:"target"`
	Name       string                 `json:"name,omitempty"`
	Expiration *timestamppb.Timestamp `json:"expiration,omitempty"`
	MaxUses    *uint64                `json:"max_uses,omitempty"`
}

type RegisterResponse struct {
	Name     string `json:"name"`
	ShortURL string `json:"short_url"`
}

type RemoveRequest struct {
	Name string `json:"name"`
}

type ListRequest struct{}

type ListResponse struct {
	Entries []*Entry `json:"entries"`
}

// Entry is one mapping of the caller.
type Entry struct {
	Name       string                 `json:"name"`
	ShortURL   string                 `json:"short_url"`
	Target     string                 `json:"target"`
	Uses       uint64                 `json:"uses"`
	Expiration *timestamppb.Timestamp `json:"expiration,omitempty"`
	MaxUses    *uint64                `json:"max_uses,omitempty"`
}

type ResolveRequest struct {
	Name string `json:"name"`
}

type ResolveResponse struct {
	Target string `json:"target"`
}

type StatsResponse struct {
	URLs int `json:"urls"`
}

// ShortenerService is the server API of shortage.v1.Shortener.
type ShortenerService interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Edit(context.Context, *RegisterRequest) (*emptypb.Empty, error)
	Remove(context.Context, *RemoveRequest) (*emptypb.Empty, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
	Stats(context.Context, *emptypb.Empty) (*StatsResponse, error)
}

// RegisterShortenerService registers srv with s.
func RegisterShortenerService(s grpc.ServiceRegistrar, srv ShortenerService) {
	s.RegisterService(&ShortenerServiceDesc, srv)
}

// ShortenerServiceDesc describes shortage.v1.Shortener. There is no .proto
// behind it; messages travel through the json codec.
var ShortenerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(RegisterFullMethodName, ShortenerService.Register)},
		{MethodName: "Edit", Handler: unaryHandler(EditFullMethodName, ShortenerService.Edit)},
		{MethodName: "Remove", Handler: unaryHandler(RemoveFullMethodName, ShortenerService.Remove)},
		{MethodName: "List", Handler: unaryHandler(ListFullMethodName, ShortenerService.List)},
		{MethodName: "Resolve", Handler: unaryHandler(ResolveFullMethodName, ShortenerService.Resolve)},
		{MethodName: "Stats", Handler: unaryHandler(StatsFullMethodName, ShortenerService.Stats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortage/v1/shortener",
}

func unaryHandler[Req, Resp any](fullMethod string, call func(ShortenerService, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerService), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ShortenerService), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls shortage.v1.Shortener over cc.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using the json codec on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c, RegisterFullMethodName, in, opts)
}

func (c *Client) Edit(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, EditFullMethodName, in, opts)
}

func (c *Client) Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, RemoveFullMethodName, in, opts)
}

func (c *Client) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c, ListFullMethodName, in, opts)
}

func (c *Client) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	return invoke[ResolveResponse](ctx, c, ResolveFullMethodName, in, opts)
}

func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c, StatsFullMethodName, &emptypb.Empty{}, opts)
}
