package chatservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "agora.chat.v1.ChatService"

const (
	MethodCreateChannel  = "/" + ServiceName + "/CreateChannel"
	MethodListChannels   = "/" + ServiceName + "/ListChannels"
	MethodGetMessages    = "/" + ServiceName + "/GetMessages"
	MethodAddMessage     = "/" + ServiceName + "/AddMessage"
	MethodInitialCounter = "/" + ServiceName + "/InitialCounter"
)

// ChatServer is the server side of ChatService. Requests and responses are
// well-known protobuf types so that no generated code is needed on either side.
type ChatServer interface {
	CreateChannel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListChannels(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetMessages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddMessage(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	InitialCounter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateChannel", ChatServer.CreateChannel),
		unary("ListChannels", ChatServer.ListChannels),
		unary("GetMessages", ChatServer.GetMessages),
		unary("AddMessage", ChatServer.AddMessage),
		unary("InitialCounter", ChatServer.InitialCounter),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agora/chat/v1/chat.proto",
}

func Register(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the method handler protoc-gen-go-grpc would generate for method.
func unary[Req proto.Message, Resp any](method string, call func(ChatServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			var zero Req
			in := zero.ProtoReflect().New().Interface().(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
