package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	CallbackService_Revoke_FullMethodName = "/lockcache.v1.CallbackService/Revoke"
	CallbackService_Retry_FullMethodName  = "/lockcache.v1.CallbackService/Retry"
)

// CallbackServiceClient is used by the lock server to reach a client.
// Both calls take a lock id and return an acknowledgement value.
type CallbackServiceClient interface {
	Revoke(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error)
	Retry(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error)
}

type callbackServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCallbackServiceClient(cc grpc.ClientConnInterface) CallbackServiceClient {
	return &callbackServiceClient{cc}
}

func (c *callbackServiceClient) Revoke(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.cc.Invoke(ctx, CallbackService_Revoke_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *callbackServiceClient) Retry(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.cc.Invoke(ctx, CallbackService_Retry_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallbackServiceServer is implemented by lock clients.
type CallbackServiceServer interface {
	Revoke(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error)
	Retry(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error)
}

// UnimplementedCallbackServiceServer must be embedded for forward compatibility.
type UnimplementedCallbackServiceServer struct{}

func (UnimplementedCallbackServiceServer) Revoke(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Revoke not implemented")
}
func (UnimplementedCallbackServiceServer) Retry(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int32Value, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Retry not implemented")
}

func RegisterCallbackServiceServer(s grpc.ServiceRegistrar, srv CallbackServiceServer) {
	s.RegisterService(&CallbackService_ServiceDesc, srv)
}

func _CallbackService_Revoke_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CallbackServiceServer).Revoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallbackService_Revoke_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CallbackServiceServer).Revoke(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _CallbackService_Retry_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CallbackServiceServer).Retry(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallbackService_Retry_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CallbackServiceServer).Retry(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

var CallbackService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lockcache.v1.CallbackService",
	HandlerType: (*CallbackServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Revoke", Handler: _CallbackService_Revoke_Handler},
		{MethodName: "Retry", Handler: _CallbackService_Retry_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lockcache/v1/callback.proto",
}
