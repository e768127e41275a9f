// Package rpc exposes the sculpture pipeline over gRPC.
//
// Messages are google.protobuf.Struct documents with the same JSON shape as
// the HTTP API, so the service is declared directly against the
// well-known types.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "routesculpture.v1.SculptureService"

const (
	methodServerInfo  = "/" + ServiceName + "/ServerInfo"
	methodBuildGrid   = "/" + ServiceName + "/BuildGrid"
	methodValidate    = "/" + ServiceName + "/Validate"
	methodQuickStatus = "/" + ServiceName + "/QuickStatus"
	methodExport      = "/" + ServiceName + "/Export"
)

// SculptureServiceServer is the server API for SculptureService.
type SculptureServiceServer interface {
	ServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	BuildGrid(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QuickStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSculptureServiceServer registers srv on s.
func RegisterSculptureServiceServer(s grpc.ServiceRegistrar, srv SculptureServiceServer) {
	s.RegisterService(&SculptureService_ServiceDesc, srv)
}

// unaryHandler adapts one Struct-to-Struct method to a grpc.MethodDesc handler.
func unaryHandler(fullMethod string, call func(SculptureServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SculptureServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SculptureServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func serverInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SculptureServiceServer).ServerInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodServerInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SculptureServiceServer).ServerInfo(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// SculptureService_ServiceDesc is the grpc.ServiceDesc for SculptureService.
var SculptureService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SculptureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ServerInfo", Handler: serverInfoHandler},
		{MethodName: "BuildGrid", Handler: unaryHandler(methodBuildGrid, SculptureServiceServer.BuildGrid)},
		{MethodName: "Validate", Handler: unaryHandler(methodValidate, SculptureServiceServer.Validate)},
		{MethodName: "QuickStatus", Handler: unaryHandler(methodQuickStatus, SculptureServiceServer.QuickStatus)},
		{MethodName: "Export", Handler: unaryHandler(methodExport, SculptureServiceServer.Export)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "routesculpture/v1/sculpture.proto",
}

// SculptureServiceClient is the client API for SculptureService.
type SculptureServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSculptureServiceClient wraps cc.
func NewSculptureServiceClient(cc grpc.ClientConnInterface) *SculptureServiceClient {
	return &SculptureServiceClient{cc: cc}
}

func (c *SculptureServiceClient) ServerInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodServerInfo, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SculptureServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SculptureServiceClient) BuildGrid(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodBuildGrid, in, opts)
}

func (c *SculptureServiceClient) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodValidate, in, opts)
}

func (c *SculptureServiceClient) QuickStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodQuickStatus, in, opts)
}

func (c *SculptureServiceClient) Export(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExport, in, opts)
}
